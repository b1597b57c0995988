package core

import (
	"fmt"

	"github.com/segmentio/ksuid"
)

// ID is the canonical identifier type for all persisted entities.
type ID string

// NewID generates a new sortable unique ID.
func NewID() (ID, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return ID(id.String()), nil
}

// MustNewID generates a new ID and panics on failure. Intended for tests.
func MustNewID() ID {
	id, err := NewID()
	if err != nil {
		panic(err)
	}
	return id
}

// ParseID validates the string form of an ID.
func ParseID(s string) (ID, error) {
	if s == "" {
		return "", fmt.Errorf("id is empty")
	}
	if _, err := ksuid.Parse(s); err != nil {
		return "", fmt.Errorf("invalid id %q: %w", s, err)
	}
	return ID(s), nil
}

func (i ID) String() string { return string(i) }
func (i ID) IsZero() bool   { return i == "" }
