package engine

import (
	"strconv"
	"strings"
	"time"
)

// Kind identifies the domain of a resolved field value.
type Kind int

const (
	KindAbsent Kind = iota
	KindInt
	KindDecimal
	KindDate
	KindText
)

// Value is a resolved field value. Numeric and date fields are always
// well-typed; a field with no detectable value carries KindAbsent, never
// a raw unvalidated string.
type Value struct {
	Kind Kind
	Int  int
	Dec  float64
	Text string
}

// Absent marks a field with no detectable value.
func Absent() Value { return Value{Kind: KindAbsent} }

func IntVal(n int) Value       { return Value{Kind: KindInt, Int: n} }
func DecVal(f float64) Value   { return Value{Kind: KindDecimal, Dec: f} }
func TextVal(s string) Value   { return Value{Kind: KindText, Text: s} }

// DateVal keeps the dd/mm/yyyy literal; dash separators are unified to
// slashes the way the source records mix them.
func DateVal(s string) Value {
	return Value{Kind: KindDate, Text: strings.ReplaceAll(s, "-", "/")}
}

// IsAbsent reports whether the field had no detectable value.
func (v Value) IsAbsent() bool { return v.Kind == KindAbsent }

// String renders the canonical textual form used by the comparison layer.
// Absent renders as the empty string.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.Itoa(v.Int)
	case KindDecimal:
		return strconv.FormatFloat(v.Dec, 'f', -1, 64)
	case KindDate, KindText:
		return v.Text
	default:
		return ""
	}
}

// dateLayout is the literal form surgical dates take in the records.
const dateLayout = "02/01/2006"

// parseRecordDate parses a dd/mm/yyyy literal, tolerating dash separators.
func parseRecordDate(s string) (time.Time, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "-", "/")
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
