package core

// validation.go checks rows at two levels:
//  1. Structure: the raw row has a value at every mapped column position
//  2. Semantics: the normalized email is a syntactically valid address
//
// Name and surname are never rejected, including when empty.

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// RFC 5321 limits.
const (
	maxEmailLength     = 254
	maxLocalPartLength = 64
)

// ErrInvalidEmail is wrapped by every error ValidateEmail returns.
var ErrInvalidEmail = errors.New("invalid email")

var validate = validator.New()

// MalformedRowError reports a row with too few fields for the ColumnMap.
type MalformedRowError struct {
	Got  int
	Need int
}

func (e *MalformedRowError) Error() string {
	return fmt.Sprintf("%d fields, need at least %d", e.Got, e.Need)
}

// ValidateStructure returns a *MalformedRowError if row is too short to hold
// every mapped column. Empty values in present fields are fine.
func ValidateStructure(row RawRow, cols ColumnMap) error {
	need := cols.MaxIndex() + 1
	if len(row) < need {
		return &MalformedRowError{Got: len(row), Need: need}
	}
	return nil
}

// ValidateEmail checks email syntax only; no DNS or MX lookups are made.
// The address must be ASCII, with a non-empty local part, an "@", and a
// domain with at least one "." between non-empty labels. Bracketed domain
// literals such as "a@[127.0.0.1]" are rejected.
func ValidateEmail(email string) error {
	for _, r := range email {
		if r > unicode.MaxASCII {
			return fmt.Errorf("%w: %q contains non-ASCII characters", ErrInvalidEmail, email)
		}
	}

	if err := validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	if len(email) > maxEmailLength {
		return fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidEmail, email, maxEmailLength)
	}

	at := strings.LastIndex(email, "@")
	local, domain := email[:at], email[at+1:]
	if local == "" || len(local) > maxLocalPartLength {
		return fmt.Errorf("%w: %q has an invalid local part", ErrInvalidEmail, email)
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return fmt.Errorf("%w: %q has no dot in the domain", ErrInvalidEmail, email)
	}
	for _, l := range labels {
		if l == "" {
			return fmt.Errorf("%w: %q has an empty domain label", ErrInvalidEmail, email)
		}
	}

	return nil
}
