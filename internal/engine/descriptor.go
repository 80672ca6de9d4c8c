package engine

import (
	"strconv"
	"strings"
)

// MergePolicy decides how a field combines the rule-based ranking with
// the external oracle's answer.
type MergePolicy int

const (
	// MergeRuleFirst keeps the rule-based top candidate; the oracle is
	// consulted only when the ranking is genuinely ambiguous, and a
	// valid oracle answer then settles the tie.
	MergeRuleFirst MergePolicy = iota
	// MergeOracleFirst always consults the oracle (the field's surface
	// patterns are intrinsically unreliable); the rule-based result is
	// only a fallback.
	MergeOracleFirst
	// MergeRuleOnly never consults the oracle.
	MergeRuleOnly
)

// Domain describes a field's value domain: the expected kind plus the
// plausible range enforced before a candidate may win.
type Domain struct {
	Kind   Kind
	MinInt int
	MaxInt int
	MinDec float64
	MaxDec float64
	// Hint and Format describe the domain to the oracle
	// ("Classificação ASA pré-operatória (1-4)", "número inteiro").
	Hint   string
	Format string
}

func intDomain(min, max int, hint, format string) Domain {
	return Domain{Kind: KindInt, MinInt: min, MaxInt: max, Hint: hint, Format: format}
}

func decDomain(min, max float64, hint, format string) Domain {
	return Domain{Kind: KindDecimal, MinDec: min, MaxDec: max, Hint: hint, Format: format}
}

func dateDomain(hint string) Domain {
	return Domain{Kind: KindDate, Hint: hint, Format: "data no formato dd/mm/aaaa"}
}

func textDomain(hint string) Domain {
	return Domain{Kind: KindText, Hint: hint, Format: "valor simples"}
}

// parseValue converts a raw token into a typed value, rejecting
// anything outside the domain. Malformed parses are discarded silently.
func (dom Domain) parseValue(raw string) (Value, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Absent(), false
	}
	switch dom.Kind {
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Absent(), false
		}
		if dom.MaxInt != 0 || dom.MinInt != 0 {
			if n < dom.MinInt || n > dom.MaxInt {
				return Absent(), false
			}
		}
		return IntVal(n), true
	case KindDecimal:
		f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
		if err != nil {
			return Absent(), false
		}
		if dom.MaxDec != 0 || dom.MinDec != 0 {
			if f < dom.MinDec || f > dom.MaxDec {
				return Absent(), false
			}
		}
		return DecVal(f), true
	case KindDate:
		if _, ok := parseRecordDate(raw); !ok {
			return Absent(), false
		}
		return DateVal(raw), true
	default:
		return TextVal(strings.ToLower(raw)), true
	}
}

// Descriptor is the static, per-field extraction configuration. It
// describes how a field is extracted; it holds no record data.
type Descriptor struct {
	Name      string
	Domain    Domain
	Threshold int // top-two score gap below which the ranking is ambiguous; 0 disables the gate
	Merge     MergePolicy

	// Generate scans the document and yields ranked candidates.
	Generate func(d *Document) []Candidate
	// Parse converts a candidate token to a typed value; nil means the
	// domain's default parser.
	Parse func(raw string) (Value, bool)
	// Derive resolves the field directly, possibly from already-resolved
	// fields; a field has either Derive or Generate, never both.
	Derive func(d *Document, r Result) Value
}

func (desc Descriptor) parse(raw string) (Value, bool) {
	if desc.Parse != nil {
		return desc.Parse(raw)
	}
	return desc.Domain.parseValue(raw)
}

// Result maps field name to its resolved value. It always contains
// exactly the fields declared by the descriptor table.
type Result map[string]Value

// Fields returns the declared extraction order. Derived fields appear
// after the fields they read from.
func Fields() []Descriptor {
	return fieldTable
}
