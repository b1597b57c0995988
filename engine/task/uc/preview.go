package uc

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/fieldops/dispatch/engine/message"
)

// Preview runs the parser alone with no persistence, for caller-side
// confirmation before commit.
type Preview struct {
	text      string
	minLength int
}

func NewPreview(text string, minLength int) *Preview {
	if minLength <= 0 {
		minLength = message.MinLength
	}
	return &Preview{text: text, minLength: minLength}
}

func (uc *Preview) Execute(_ context.Context) (*message.ParsedFields, error) {
	trimmed := strings.TrimSpace(uc.text)
	if utf8.RuneCountInString(trimmed) < uc.minLength {
		return nil, ErrMessageTooShort
	}
	parsed, err := message.Parse(trimmed)
	if err != nil {
		if errors.Is(err, message.ErrTooShort) {
			return nil, ErrMessageTooShort
		}
		return nil, err
	}
	return parsed, nil
}
