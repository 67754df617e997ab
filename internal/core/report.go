package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// failedHeaderPrefix precedes the input header in the failed-rows report.
var failedHeaderPrefix = []string{"row", "code", "reason", "detail"}

// Reporter writes one line per row result to out, and optionally every
// skipped row to a CSV report.
type Reporter struct {
	out    io.Writer
	failed *csv.Writer
}

// NewReporter creates a Reporter. failed may be nil to disable the report;
// otherwise its header row is written immediately.
func NewReporter(out io.Writer, failed io.Writer, header []string) (*Reporter, error) {
	r := &Reporter{out: out}
	if failed == nil {
		return r, nil
	}

	r.failed = csv.NewWriter(failed)
	if err := r.failed.Write(append(append([]string{}, failedHeaderPrefix...), header...)); err != nil {
		return nil, fmt.Errorf("write failed-rows header: %w", err)
	}
	return r, nil
}

// Result reports one resolved row.
func (r *Reporter) Result(res Result, row RawRow) error {
	if _, err := fmt.Fprintln(r.out, formatResult(res)); err != nil {
		return fmt.Errorf("write row %d: %w", res.Row, err)
	}

	if r.failed == nil || res.Outcome != OutcomeSkipped {
		return nil
	}

	msg := MapResult(res)
	rec := []string{strconv.Itoa(res.Row), msg.Code, msg.Message, errText(res.Err)}
	if err := r.failed.Write(append(rec, row...)); err != nil {
		return fmt.Errorf("write failed row %d: %w", res.Row, err)
	}
	return nil
}

// Summary writes the closing aggregate line.
func (r *Reporter) Summary(s RunSummary, mode Mode) error {
	format := "\nProcessing complete. Inserted: %d, Errors: %d\n"
	if mode == ModeDryRun {
		format = "\nProcessing complete (dry run). Validated: %d, Errors: %d\n"
	}
	if _, err := fmt.Fprintf(r.out, format, s.Inserted, s.Errors); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// Flush writes any buffered failed rows.
func (r *Reporter) Flush() error {
	if r.failed == nil {
		return nil
	}
	r.failed.Flush()
	return r.failed.Error()
}

func formatResult(res Result) string {
	switch res.Outcome {
	case OutcomeInserted:
		return fmt.Sprintf("Row %d: Inserted - Name: %s, Surname: %s, Email: %s",
			res.Row, res.Record.Name, res.Record.Surname, res.Record.Email)
	case OutcomeDryRunValidated:
		return fmt.Sprintf("Row %d: Validated - Name: %s, Surname: %s, Email: %s",
			res.Row, res.Record.Name, res.Record.Surname, res.Record.Email)
	}

	switch res.Reason {
	case ReasonMalformedRow:
		return fmt.Sprintf("Row %d: Malformed row (%s). Skipping.", res.Row, errText(res.Err))
	case ReasonInvalidEmail:
		return fmt.Sprintf("Row %d: Invalid email '%s'. Skipping insert.", res.Row, res.Record.Email)
	default:
		return fmt.Sprintf("Row %d: Failed to insert: %s", res.Row, errText(res.Err))
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}
