package ai

import (
	"errors"
	"fmt"
)

// Kind classifies a draft failure so the HTTP layer can pick a status.
type Kind string

const (
	KindValidation Kind = "validation"
	KindTimeout    Kind = "timeout"
	KindUpstream   Kind = "upstream"
	KindTruncated  Kind = "truncated"
	KindMalformed  Kind = "malformed"
)

// Error is returned by every operation in this package.
type Error struct {
	Kind    Kind
	Message string

	// Status and Body are set for non-2xx upstream responses.
	Status int
	Body   string

	// Excerpt is a bounded prefix of the raw completion for malformed output.
	Excerpt string

	Err error
}

func (e *Error) Error() string {
	msg := string(e.Kind) + ": " + e.Message
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of err, or "" when err did not come from this package.
func KindOf(err error) Kind {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Kind
	}
	return ""
}

const (
	maxBodyBytes   = 2 << 10
	maxExcerptRune = 200
)

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
