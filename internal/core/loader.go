package core

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/userupload/internal/logging"
)

// Options configures a Loader.
type Options struct {
	Mode Mode

	// Encoding is the input charset; "" means UTF-8.
	Encoding string

	// InsertTimeout bounds each insert. Zero means no bound.
	InsertTimeout time.Duration

	// FailedOut receives a CSV report of skipped rows when non-nil.
	FailedOut io.Writer
}

// Loader drives one CSV input through the Processor and reports the summary.
type Loader struct {
	store UserWriter
	out   io.Writer
	opts  Options
}

// NewLoader creates a Loader writing per-row lines and the summary to out.
// store may be nil when opts.Mode is ModeDryRun.
func NewLoader(store UserWriter, out io.Writer, opts Options) *Loader {
	return &Loader{
		store: store,
		out:   out,
		opts:  opts,
	}
}

// Run processes every record of src. Errors before the first data row
// (unreadable input, ErrEmptyFile, *MissingColumnsError) are fatal and print
// nothing to out. A *FatalRowError or a cancelled ctx stops the run mid-file; the
// summary so far is returned with the error and no summary line is printed.
func (l *Loader) Run(ctx context.Context, src io.Reader) (RunSummary, error) {
	var summary RunSummary
	start := time.Now()
	logger := logging.WithFields(ctx, "mode", l.opts.Mode.String())

	if l.opts.Mode == ModeLive && l.store == nil {
		return summary, errors.New("live mode requires a database store")
	}

	in, counter, err := WrapForStreaming(src, l.opts.Encoding)
	if err != nil {
		return summary, err
	}

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return summary, ErrEmptyFile
	}
	if err != nil {
		return summary, fmt.Errorf("read header: %w", err)
	}

	cols, err := ResolveColumns(header)
	if err != nil {
		return summary, err
	}
	logger.Debug("header resolved",
		"name", cols[ColName], "surname", cols[ColSurname], "email", cols[ColEmail])

	report, err := NewReporter(l.out, l.opts.FailedOut, header)
	if err != nil {
		return summary, err
	}

	proc := NewProcessor(cols, l.opts.Mode, l.store, report, &summary)
	proc.SetInsertTimeout(l.opts.InsertTimeout)

	rowNum := 1
	for {
		if err := ctx.Err(); err != nil {
			return summary, l.abort(report, fmt.Errorf("run cancelled before row %d: %w", rowNum+1, err))
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++

		var parseErr *csv.ParseError
		switch {
		case errors.As(err, &parseErr):
			_, err = proc.Reject(rowNum, record, err)
		case err != nil:
			return summary, l.abort(report, fmt.Errorf("read row %d: %w", rowNum, err))
		default:
			_, err = proc.Process(ctx, rowNum, record)
		}
		if err != nil {
			return summary, l.abort(report, err)
		}
	}

	if err := report.Summary(summary, l.opts.Mode); err != nil {
		return summary, l.abort(report, err)
	}
	if err := report.Flush(); err != nil {
		return summary, err
	}

	logger.Info("load finished",
		"rows", summary.RowsSeen,
		"inserted", summary.Inserted,
		"errors", summary.Errors,
		"bytes", counter.BytesRead,
		"duration", time.Since(start),
	)
	return summary, nil
}

// abort flushes the failed-rows report so rows seen before a fatal error are
// not lost, then returns err.
func (l *Loader) abort(report *Reporter, err error) error {
	if ferr := report.Flush(); ferr != nil {
		return errors.Join(err, ferr)
	}
	return err
}
