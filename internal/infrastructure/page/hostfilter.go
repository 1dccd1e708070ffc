// Package page extracts the content a question is asked about: page text
// from a URL or file, the user's selection and an optional screenshot.
package page

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gobwas/glob"

	"github.com/doeshing/askpage-go/internal/domain"
)

// HostFilter refuses hosts matching any configured glob. Patterns are
// compiled without separators so "*.github.dev" covers every subdomain depth.
type HostFilter struct {
	patterns []glob.Glob
}

// NewHostFilter compiles patterns.
func NewHostFilter(patterns []string) (*HostFilter, error) {
	f := &HostFilter{}
	for _, pattern := range patterns {
		pattern = strings.ToLower(strings.TrimSpace(pattern))
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid disabled host pattern %q: %w", pattern, err)
		}
		f.patterns = append(f.patterns, g)
	}
	return f, nil
}

// Disabled reports whether host matches a pattern.
func (f *HostFilter) Disabled(host string) bool {
	if f == nil {
		return false
	}
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, g := range f.patterns {
		if g.Match(host) {
			return true
		}
	}
	return false
}

// Check returns HOST_DISABLED when rawURL points at a disabled host. Local
// paths and unparsable input pass.
func (f *HostFilter) Check(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return nil
	}
	if f.Disabled(u.Hostname()) {
		return domain.NewHostDisabled(u.Hostname())
	}
	return nil
}

