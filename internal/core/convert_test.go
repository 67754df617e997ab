package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple string unchanged", input: "email", want: "email"},
		{name: "empty string", input: "", want: ""},
		{name: "surrounded by whitespace", input: "  name  ", want: "name"},
		{name: "Excel formula with quotes", input: `="surname"`, want: "surname"},
		{name: "bare equals sign", input: "=name", want: "name"},
		{name: "double quotes", input: `"email"`, want: "email"},
		{name: "single quotes", input: "'email'", want: "email"},
		{name: "whitespace inside quotes", input: `" name "`, want: "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMakeHeaderIndex(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		checks map[string]int // key -> expected index
	}{
		{
			name:   "simple headers",
			header: []string{"name", "surname", "email"},
			checks: map[string]int{"name": 0, "surname": 1, "email": 2},
		},
		{
			name:   "case insensitive lookup",
			header: []string{"NAME", "Surname", "eMaIl"},
			checks: map[string]int{"name": 0, "surname": 1, "email": 2},
		},
		{
			name:   "headers with quotes and whitespace",
			header: []string{` "Name" `, `="Email"`},
			checks: map[string]int{"name": 0, "email": 1},
		},
		{
			name:   "first occurrence wins",
			header: []string{"Email", "Name", "email"},
			checks: map[string]int{"email": 0, "name": 1},
		},
		{
			name:   "empty header",
			header: []string{},
			checks: map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := MakeHeaderIndex(tt.header)
			for key, wantPos := range tt.checks {
				gotPos, ok := idx[key]
				if !ok {
					t.Errorf("MakeHeaderIndex(%v)[%q] not found, want index %d", tt.header, key, wantPos)
					continue
				}
				if gotPos != wantPos {
					t.Errorf("MakeHeaderIndex(%v)[%q] = %d, want %d", tt.header, key, gotPos, wantPos)
				}
			}
		})
	}
}

func TestResolveColumns(t *testing.T) {
	tests := []struct {
		name        string
		header      []string
		want        ColumnMap
		wantMissing []Column
	}{
		{
			name:   "canonical order",
			header: []string{"name", "surname", "email"},
			want:   ColumnMap{ColName: 0, ColSurname: 1, ColEmail: 2},
		},
		{
			name:   "reordered with extra columns",
			header: []string{"id", "Email", "phone", "SURNAME", "Name"},
			want:   ColumnMap{ColName: 4, ColSurname: 3, ColEmail: 1},
		},
		{
			name:        "missing surname",
			header:      []string{"Email", "Name"},
			wantMissing: []Column{ColSurname},
		},
		{
			name:        "nothing matches",
			header:      []string{"first", "last"},
			wantMissing: []Column{ColName, ColSurname, ColEmail},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveColumns(tt.header)

			if tt.wantMissing != nil {
				var mce *MissingColumnsError
				if !errors.As(err, &mce) {
					t.Fatalf("ResolveColumns(%v) error = %v, want *MissingColumnsError", tt.header, err)
				}
				if !reflect.DeepEqual(mce.Missing, tt.wantMissing) {
					t.Errorf("Missing = %v, want %v", mce.Missing, tt.wantMissing)
				}
				return
			}

			if err != nil {
				t.Fatalf("ResolveColumns(%v) error = %v", tt.header, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolveColumns(%v) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestMissingColumnsError(t *testing.T) {
	err := &MissingColumnsError{Missing: []Column{ColName, ColEmail}}
	want := "CSV missing expected column(s): name, email"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestColumnMap(t *testing.T) {
	cols := ColumnMap{ColName: 2, ColSurname: 0, ColEmail: 5}
	if got := cols.MaxIndex(); got != 5 {
		t.Errorf("MaxIndex() = %d, want 5", got)
	}
	if got := (ColumnMap{}).MaxIndex(); got != -1 {
		t.Errorf("empty MaxIndex() = %d, want -1", got)
	}

	row := RawRow{"doe", "x", "john", "y", "z", "j@d.io"}
	if got := cols.Field(row, ColName); got != "john" {
		t.Errorf("Field(name) = %q, want %q", got, "john")
	}
}
