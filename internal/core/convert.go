package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyFile is returned when the input has no header record.
var ErrEmptyFile = errors.New("CSV file appears to be empty")

// MissingColumnsError is returned when the header lacks required columns.
type MissingColumnsError struct {
	Missing []Column
}

func (e *MissingColumnsError) Error() string {
	names := make([]string, len(e.Missing))
	for i, c := range e.Missing {
		names[i] = string(c)
	}
	return fmt.Sprintf("CSV missing expected column(s): %s", strings.Join(names, ", "))
}

// HeaderIndex maps cleaned, lowercased header cells to their position.
// When a name repeats, the first position wins.
type HeaderIndex map[string]int

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if _, seen := idx[key]; !seen {
			idx[key] = i
		}
	}
	return idx
}

// ResolveColumns builds the ColumnMap for header, or returns a
// *MissingColumnsError naming every required column that is absent.
// Extra columns are ignored.
func ResolveColumns(header []string) (ColumnMap, error) {
	idx := MakeHeaderIndex(header)
	cols := make(ColumnMap, len(RequiredColumns))
	var missing []Column

	for _, c := range RequiredColumns {
		pos, ok := idx[string(c)]
		if !ok {
			missing = append(missing, c)
			continue
		}
		cols[c] = pos
	}

	if len(missing) > 0 {
		return nil, &MissingColumnsError{Missing: missing}
	}
	return cols, nil
}

// CleanCell removes common spreadsheet artifacts from a header cell:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.TrimSpace(strings.Trim(s, `"'`))
}
