package core

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lower maps s to lower case without language-specific rules.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// NormalizeName trims s, lower-cases it and upper-cases the first character.
// Multi-word and hyphenated names are not treated specially: "mary-ann"
// becomes "Mary-ann". Empty input stays empty.
func NormalizeName(s string) string {
	s = lower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// NormalizeEmail trims s and lower-cases it entirely. Internal whitespace is
// left alone for the validator to reject.
func NormalizeEmail(s string) string {
	return lower(strings.TrimSpace(s))
}

// Normalize builds a NormalizedRecord from raw field values. It never fails.
func Normalize(name, surname, email string) NormalizedRecord {
	return NormalizedRecord{
		Name:    NormalizeName(name),
		Surname: NormalizeName(surname),
		Email:   NormalizeEmail(email),
	}
}
