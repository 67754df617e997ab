package core

import (
	"context"
	"fmt"
	"time"

	db "github.com/JonMunkholm/userupload/internal/database"
	"github.com/JonMunkholm/userupload/internal/logging"
)

// UserWriter inserts one user. *database.Queries satisfies it.
type UserWriter interface {
	InsertUser(ctx context.Context, arg db.InsertUserParams) error
}

// Processor resolves data rows one at a time into Results, applying the
// insert side effect in live mode. It is not safe for concurrent use.
type Processor struct {
	cols          ColumnMap
	mode          Mode
	store         UserWriter
	report        *Reporter
	summary       *RunSummary
	insertTimeout time.Duration
}

// NewProcessor creates a Processor. store may be nil in dry-run mode.
// Results are counted into summary, which the caller owns.
func NewProcessor(cols ColumnMap, mode Mode, store UserWriter, report *Reporter, summary *RunSummary) *Processor {
	return &Processor{
		cols:    cols,
		mode:    mode,
		store:   store,
		report:  report,
		summary: summary,
	}
}

// SetInsertTimeout bounds each insert. Zero means no bound.
func (p *Processor) SetInsertTimeout(d time.Duration) {
	p.insertTimeout = d
}

// Process resolves one data row. rowNum is the CSV record number, with the
// header counted as row 1.
//
// The returned error is non-nil only when the run must stop: a
// *FatalRowError for a lost connection, ctx being cancelled mid-insert, or a
// failure to write the report.
// Every other problem is part of the Result.
func (p *Processor) Process(ctx context.Context, rowNum int, row RawRow) (Result, error) {
	res := Result{Row: rowNum}

	if err := ValidateStructure(row, p.cols); err != nil {
		return p.skip(res, row, ReasonMalformedRow, err)
	}

	rec := Normalize(
		p.cols.Field(row, ColName),
		p.cols.Field(row, ColSurname),
		p.cols.Field(row, ColEmail),
	)
	res.Record = &rec

	if err := ValidateEmail(rec.Email); err != nil {
		return p.skip(res, row, ReasonInvalidEmail, err)
	}

	if p.mode == ModeDryRun {
		res.Outcome = OutcomeDryRunValidated
		return p.finish(res, row)
	}

	if err := p.insert(ctx, rec); err != nil {
		if db.IsConnectionError(err) {
			if ctx.Err() != nil {
				return res, fmt.Errorf("run cancelled at row %d: %w", rowNum, ctx.Err())
			}
			return res, &FatalRowError{Row: rowNum, Err: err}
		}
		logging.FromContext(ctx).Debug("insert rejected", "row", rowNum, "error", err)
		return p.skip(res, row, ReasonInsertFailed, err)
	}

	res.Outcome = OutcomeInserted
	return p.finish(res, row)
}

// Reject records a row the CSV parser could not read as malformed.
func (p *Processor) Reject(rowNum int, row RawRow, err error) (Result, error) {
	return p.skip(Result{Row: rowNum}, row, ReasonMalformedRow, err)
}

func (p *Processor) insert(ctx context.Context, rec NormalizedRecord) error {
	if p.insertTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.insertTimeout)
		defer cancel()
	}

	return p.store.InsertUser(ctx, db.InsertUserParams{
		Name:    rec.Name,
		Surname: rec.Surname,
		Email:   rec.Email,
	})
}

func (p *Processor) skip(res Result, row RawRow, reason Reason, err error) (Result, error) {
	res.Outcome = OutcomeSkipped
	res.Reason = reason
	res.Err = err
	return p.finish(res, row)
}

func (p *Processor) finish(res Result, row RawRow) (Result, error) {
	p.summary.Record(res)
	return res, p.report.Result(res, row)
}
