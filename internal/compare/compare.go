// Package compare canonicalizes extracted and ground-truth values into
// one comparable form and scores predictions against the truth
// spreadsheet. Both sides of every comparison go through the same
// normalization, so 24 matches 24.0 and 2017-01-20 matches 20/01/2017.
package compare

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

var dateLayouts = []string{"02/01/2006", "2006-01-02", "02-01-2006"}

// NormalizeValue maps a raw value to its canonical comparison string.
// Empty/NaN-like inputs become the empty string, which the comparison
// layer treats as "no opinion". Integral numerics lose their trailing
// zeros; date-like strings are re-emitted dd/mm/yyyy; everything else
// is trimmed and lowered.
func NormalizeValue(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	low := strings.ToLower(s)
	if low == "nan" || low == "none" {
		return ""
	}
	if strings.ContainsAny(s, "/-") {
		token := strings.Fields(low)[0]
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, token); err == nil {
				return t.Format("02/01/2006")
			}
		}
	}
	if f, err := strconv.ParseFloat(strings.ReplaceAll(low, ",", "."), 64); err == nil &&
		!math.IsNaN(f) && !math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return low
}

// Match reports whether two raw values are equal after normalization.
func Match(predicted, expected string) bool {
	return NormalizeValue(predicted) == NormalizeValue(expected)
}

// FieldResult is one field's comparison outcome for one record.
type FieldResult struct {
	Field     string
	Predicted string
	Expected  string
	Match     bool
}

// RowReport aggregates one record's comparison. Total counts only
// fields where the truth has an opinion.
type RowReport struct {
	Fields  []FieldResult
	Correct int
	Total   int
}

func (r RowReport) Accuracy() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Total)
}

// TruthFunc returns the expected value for a field, false when the
// column does not exist for this record.
type TruthFunc func(field string) (string, bool)

// CompareRow scores one record's predictions field by field. Fields
// missing from the truth row are skipped entirely; fields whose truth
// value normalizes to empty are listed but excluded from the
// denominator.
func CompareRow(fields []string, predicted map[string]string, truth TruthFunc) RowReport {
	var report RowReport
	for _, field := range fields {
		expected, ok := truth(field)
		if !ok {
			continue
		}
		if NormalizeValue(expected) == "" {
			continue
		}
		fr := FieldResult{
			Field:     field,
			Predicted: predicted[field],
			Expected:  expected,
			Match:     Match(predicted[field], expected),
		}
		if fr.Match {
			report.Correct++
		}
		report.Total++
		report.Fields = append(report.Fields, fr)
	}
	return report
}

const maxErrorSamples = 5

// ErrorSample is one wrong prediction kept for the per-column report.
type ErrorSample struct {
	Patient   string
	Predicted string
	Expected  string
}

// ColumnStats accumulates one field's accuracy across records.
type ColumnStats struct {
	Field   string
	Correct int
	Total   int
	Samples []ErrorSample
}

func (c ColumnStats) Accuracy() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Correct) / float64(c.Total)
}

// ColumnReport ranks fields by how badly they extract, with a bounded
// set of error examples per field.
type ColumnReport struct {
	columns map[string]*ColumnStats
}

func NewColumnReport() *ColumnReport {
	return &ColumnReport{columns: make(map[string]*ColumnStats)}
}

// Add records one field comparison. Empty-truth fields are ignored, the
// same exclusion CompareRow applies.
func (r *ColumnReport) Add(patient, field, predicted, expected string) {
	if NormalizeValue(expected) == "" {
		return
	}
	col := r.columns[field]
	if col == nil {
		col = &ColumnStats{Field: field}
		r.columns[field] = col
	}
	col.Total++
	if Match(predicted, expected) {
		col.Correct++
		return
	}
	if len(col.Samples) < maxErrorSamples {
		col.Samples = append(col.Samples, ErrorSample{
			Patient:   patient,
			Predicted: predicted,
			Expected:  expected,
		})
	}
}

// Columns returns the accumulated stats, worst accuracy first, ties on
// field name.
func (r *ColumnReport) Columns() []ColumnStats {
	out := make([]ColumnStats, 0, len(r.columns))
	for _, col := range r.columns {
		out = append(out, *col)
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].Accuracy(), out[j].Accuracy()
		if ai != aj {
			return ai < aj
		}
		return out[i].Field < out[j].Field
	})
	return out
}
