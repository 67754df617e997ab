package core

import (
	"bytes"
	"context"
	"errors"
	"testing"

	db "github.com/JonMunkholm/userupload/internal/database"
)

// cancellingStore cancels the run context from inside the insert, the way a
// SIGINT arriving mid-query does.
type cancellingStore struct {
	cancel context.CancelFunc
}

func (s cancellingStore) InsertUser(ctx context.Context, _ db.InsertUserParams) error {
	s.cancel()
	return ctx.Err()
}

func newTestProcessor(t *testing.T, mode Mode, store UserWriter) (*Processor, *RunSummary, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	report, err := NewReporter(&out, nil, nil)
	if err != nil {
		t.Fatalf("NewReporter() error = %v", err)
	}
	summary := &RunSummary{}
	cols := ColumnMap{ColName: 0, ColSurname: 1, ColEmail: 2}
	return NewProcessor(cols, mode, store, report, summary), summary, &out
}

func TestProcessor_Outcomes(t *testing.T) {
	tests := []struct {
		name        string
		mode        Mode
		row         RawRow
		wantOutcome Outcome
		wantReason  Reason
		wantOut     string
	}{
		{
			name:        "live insert",
			mode:        ModeLive,
			row:         RawRow{"john", "doe", "j@d.io"},
			wantOutcome: OutcomeInserted,
			wantOut:     "Row 2: Inserted - Name: John, Surname: Doe, Email: j@d.io\n",
		},
		{
			name:        "dry run",
			mode:        ModeDryRun,
			row:         RawRow{"john", "doe", "j@d.io"},
			wantOutcome: OutcomeDryRunValidated,
			wantOut:     "Row 2: Validated - Name: John, Surname: Doe, Email: j@d.io\n",
		},
		{
			name:        "invalid email reports normalized value",
			mode:        ModeLive,
			row:         RawRow{"john", "doe", " Foo@Bar "},
			wantOutcome: OutcomeSkipped,
			wantReason:  ReasonInvalidEmail,
			wantOut:     "Row 2: Invalid email 'foo@bar'. Skipping insert.\n",
		},
		{
			name:        "malformed",
			mode:        ModeDryRun,
			row:         RawRow{"john"},
			wantOutcome: OutcomeSkipped,
			wantReason:  ReasonMalformedRow,
			wantOut:     "Row 2: Malformed row (1 fields, need at least 3). Skipping.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var store UserWriter
			if tt.mode == ModeLive {
				store = newFakeStore()
			}
			p, summary, out := newTestProcessor(t, tt.mode, store)

			res, err := p.Process(context.Background(), 2, tt.row)
			if err != nil {
				t.Fatalf("Process() error = %v", err)
			}
			if res.Outcome != tt.wantOutcome || res.Reason != tt.wantReason {
				t.Errorf("Process() = %v/%v, want %v/%v", res.Outcome, res.Reason, tt.wantOutcome, tt.wantReason)
			}
			if out.String() != tt.wantOut {
				t.Errorf("output = %q, want %q", out.String(), tt.wantOut)
			}
			if summary.RowsSeen != 1 {
				t.Errorf("RowsSeen = %d, want 1", summary.RowsSeen)
			}
		})
	}
}

func TestProcessor_CancelledMidInsert(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, summary, out := newTestProcessor(t, ModeLive, cancellingStore{cancel: cancel})

	_, err := p.Process(ctx, 5, RawRow{"a", "b", "a@b.co"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Process() error = %v, want context.Canceled", err)
	}
	if IsFatal(err) {
		t.Error("cancellation reported as a lost connection")
	}
	if summary.RowsSeen != 0 || out.Len() != 0 {
		t.Errorf("cancelled row was recorded: summary %+v, output %q", summary, out.String())
	}
}

func TestProcessor_Reject(t *testing.T) {
	p, summary, out := newTestProcessor(t, ModeLive, newFakeStore())

	res, err := p.Reject(9, nil, errors.New("bare \" in non-quoted-field"))
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if res.Reason != ReasonMalformedRow || summary.Errors != 1 {
		t.Errorf("Reject() = %+v, summary %+v", res, summary)
	}
	if want := "Row 9: Malformed row (bare \" in non-quoted-field). Skipping.\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}
