package election

import (
	"errors"
	"fmt"
)

// ErrUnknownVariant is returned by ParseVariant for anything other than "General" or "Primary"
var ErrUnknownVariant = errors.New("unknown election variant")

// A Variant selects the eligibility rules of an election. It is chosen once, when the Election is created.
type Variant uint8

const (
	// General elections let any registered voter vote for any candidate
	General Variant = iota
	// Primary elections restrict voters to candidates of their own party
	Primary
)

// String returns the string representation of the Variant
func (v Variant) String() string {
	switch v {
	case General:
		return "General"
	case Primary:
		return "Primary"
	default:
		return "Unknown"
	}
}

// ParseVariant matches the exact, case-sensitive names "General" and "Primary"
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "General":
		return General, nil
	case "Primary":
		return Primary, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}

// Candidate is a person standing in the election, keyed by Name
type Candidate struct {
	Name  string
	Party string
	// Votes counts accepted votes since the last reset
	Votes int
}

// Voter is a registered voter, keyed by Name
type Voter struct {
	Name  string
	Party string
	// Voted is set by an accepted vote and cleared by a reset
	Voted bool
}

// registry is a name-keyed table that remembers registration order, so listings and tallies come out the same way
// on every run over the same input.
type registry[T any] struct {
	index map[string]int
	items []*T
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{
		index: make(map[string]int),
		items: make([]*T, 0),
	}
}

func (r *registry[T]) get(name string) (*T, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.items[i], true
}

// add appends item under name. Callers check get first; names are never re-added.
func (r *registry[T]) add(name string, item *T) {
	r.index[name] = len(r.items)
	r.items = append(r.items, item)
}

func (r *registry[T]) each(fn func(*T)) {
	for _, item := range r.items {
		fn(item)
	}
}

func (r *registry[T]) len() int {
	return len(r.items)
}
