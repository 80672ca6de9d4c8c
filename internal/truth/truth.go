// Package truth reads the hand-curated ground-truth spreadsheet. The
// workbook has a decorative first row; the real header sits on the
// second row and data starts on the third. A handful of control columns
// (ids, validity flags, the patient name itself) carry no extractable
// data and are excluded from the field set.
package truth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrRowNotFound reports a patient with no ground-truth row.
var ErrRowNotFound = errors.New("ground-truth row not found")

const nameColumn = "Nome"

var ignoredColumns = map[string]bool{
	"Idnum":    true,
	"valido":   true,
	nameColumn: true,
	"nan":      true,
	"":         true,
}

// Table is the loaded spreadsheet, indexed by patient name.
type Table struct {
	fields []string
	rows   map[string]Row
}

// Row maps field name to the expected raw cell value.
type Row map[string]string

// FieldValue returns the expected value for one field; false when the
// column does not exist.
func (r Row) FieldValue(field string) (string, bool) {
	v, ok := r[field]
	return v, ok
}

// Load reads the first sheet of the workbook at path.
func Load(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening spreadsheet: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("reading sheet: %w", err)
	}
	if len(rows) < 3 {
		return nil, fmt.Errorf("spreadsheet has no data rows")
	}

	header := rows[1]
	nameIdx := -1
	for i, col := range header {
		if strings.TrimSpace(col) == nameColumn {
			nameIdx = i
			break
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("spreadsheet has no %q column", nameColumn)
	}

	t := &Table{rows: make(map[string]Row)}
	for _, col := range header {
		col = strings.TrimSpace(col)
		if !ignoredColumns[col] {
			t.fields = append(t.fields, col)
		}
	}

	for _, cells := range rows[2:] {
		if nameIdx >= len(cells) {
			continue
		}
		name := strings.TrimSpace(cells[nameIdx])
		if name == "" {
			continue
		}
		row := make(Row, len(t.fields))
		for i, col := range header {
			col = strings.TrimSpace(col)
			if ignoredColumns[col] {
				continue
			}
			if i < len(cells) {
				row[col] = strings.TrimSpace(cells[i])
			} else {
				row[col] = ""
			}
		}
		t.rows[name] = row
	}
	return t, nil
}

// Fields returns the data columns in sheet order.
func (t *Table) Fields() []string {
	return t.fields
}

// Row looks up a patient by directory slug; underscores in the slug
// stand for spaces in the spreadsheet name.
func (t *Table) Row(slug string) (Row, error) {
	name := strings.ReplaceAll(slug, "_", " ")
	row, ok := t.rows[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRowNotFound, name)
	}
	return row, nil
}

// Patients returns every patient name present in the table.
func (t *Table) Patients() []string {
	out := make([]string, 0, len(t.rows))
	for name := range t.rows {
		out = append(out, name)
	}
	return out
}
