package page

import (
	"context"

	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/ports"
)

// Static serves a snapshot built elsewhere, such as text piped on stdin.
type Static struct {
	Page domain.PageSnapshot
}

func (s Static) Snapshot(context.Context) (domain.PageSnapshot, error) {
	return s.Page, nil
}

var _ ports.PageSource = Static{}
