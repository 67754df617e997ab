package core

import (
	"fmt"
)

// RawRow is one CSV record as read, before any validation.
type RawRow []string

// Column is a logical column name, matched case-insensitively against the header.
type Column string

const (
	ColName    Column = "name"
	ColSurname Column = "surname"
	ColEmail   Column = "email"
)

// RequiredColumns lists the logical columns every input file must provide.
var RequiredColumns = []Column{ColName, ColSurname, ColEmail}

// ColumnMap maps each required column to its zero-based position in a RawRow.
type ColumnMap map[Column]int

// MaxIndex returns the largest mapped position, or -1 for an empty map.
func (m ColumnMap) MaxIndex() int {
	hi := -1
	for _, i := range m {
		if i > hi {
			hi = i
		}
	}
	return hi
}

// Field returns the raw value of col in row. The row must already have passed
// ValidateStructure.
func (m ColumnMap) Field(row RawRow, col Column) string {
	return row[m[col]]
}

// NormalizedRecord is one user ready for insertion.
type NormalizedRecord struct {
	Name    string
	Surname string
	Email   string
}

// Mode selects between inserting rows and only reporting them.
type Mode int

const (
	ModeLive Mode = iota
	ModeDryRun
)

func (m Mode) String() string {
	if m == ModeDryRun {
		return "dry-run"
	}
	return "live"
}

// Outcome is how a single row was resolved.
type Outcome int

const (
	OutcomeInserted Outcome = iota
	OutcomeSkipped
	OutcomeDryRunValidated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeDryRunValidated:
		return "validated"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Reason explains a skipped row.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonMalformedRow
	ReasonInvalidEmail
	ReasonInsertFailed
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonMalformedRow:
		return "malformed row"
	case ReasonInvalidEmail:
		return "invalid email"
	case ReasonInsertFailed:
		return "insert failed"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Result is the resolution of one data row.
type Result struct {
	Row     int // CSV record number; the header is row 1
	Outcome Outcome
	Reason  Reason            // ReasonNone unless Outcome is OutcomeSkipped
	Record  *NormalizedRecord // nil for malformed rows
	Err     error             // cause of a skip
}

// RunSummary aggregates results across a run.
type RunSummary struct {
	RowsSeen int
	Inserted int // includes rows validated in dry-run mode
	Errors   int
}

// Record counts one result.
func (s *RunSummary) Record(r Result) {
	s.RowsSeen++
	if r.Outcome == OutcomeSkipped {
		s.Errors++
		return
	}
	s.Inserted++
}
