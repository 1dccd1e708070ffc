// Package history keeps the bounded prompt history and the cursor used to
// walk it from the dialog input.
package history

import (
	"context"
	"fmt"

	"github.com/doeshing/askpage-go/internal/domain"
	"github.com/doeshing/askpage-go/internal/ports"
)

// History is an ordered list of past questions, oldest first. Every mutation
// is written through to the store before it returns.
type History struct {
	store    ports.KeyValueStore
	capacity int
	entries  []string
	cursor   int
}

// Load reads the stored history. A missing key is an empty history.
func Load(ctx context.Context, store ports.KeyValueStore) (*History, error) {
	h := &History{store: store, capacity: domain.MaxHistoryEntries}
	if _, err := store.Get(ctx, domain.KeyPromptHistory, &h.entries); err != nil {
		return nil, fmt.Errorf("load prompt history: %w", err)
	}
	h.trim()
	h.cursor = len(h.entries)
	return h, nil
}

// Append adds question, evicting the oldest entries beyond capacity, and
// parks the cursor on fresh input.
func (h *History) Append(ctx context.Context, question string) error {
	if question == "" {
		return nil
	}
	next := append(append([]string(nil), h.entries...), question)
	if len(next) > h.capacity {
		next = next[len(next)-h.capacity:]
	}
	if err := h.store.Set(ctx, domain.KeyPromptHistory, next); err != nil {
		return fmt.Errorf("save prompt history: %w", err)
	}
	h.entries = next
	h.cursor = len(h.entries)
	return nil
}

// Clear empties the history.
func (h *History) Clear(ctx context.Context) error {
	if err := h.store.Set(ctx, domain.KeyPromptHistory, []string{}); err != nil {
		return fmt.Errorf("clear prompt history: %w", err)
	}
	h.entries = nil
	h.cursor = 0
	return nil
}

// All returns a copy of the entries, oldest first.
func (h *History) All() []string {
	return append([]string(nil), h.entries...)
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}

// Prev moves the cursor to the previous entry and returns it. At the oldest
// entry the cursor stays put; with no entries it returns false.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor > 0 {
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next moves the cursor toward newer entries. Past the newest entry it parks
// on fresh input and returns the empty string.
func (h *History) Next() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor < len(h.entries)-1 {
		h.cursor++
		return h.entries[h.cursor], true
	}
	h.cursor = len(h.entries)
	return "", true
}

// Reset parks the cursor on fresh input.
func (h *History) Reset() {
	h.cursor = len(h.entries)
}

// Cursor returns the cursor position in [0, Len()].
func (h *History) Cursor() int {
	return h.cursor
}

func (h *History) trim() {
	if len(h.entries) > h.capacity {
		h.entries = h.entries[len(h.entries)-h.capacity:]
	}
}
