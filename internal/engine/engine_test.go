package engine

import (
	"context"
	"errors"
	"testing"
)

type fakeOracle struct {
	answer string
	err    error
	calls  int
}

func (f *fakeOracle) Ask(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func TestExtractCoversDeclaredFields(t *testing.T) {
	e := New()
	d := NewDocument([]string{"paciente internado para cirurgia eletiva"})
	r := e.Extract(context.Background(), d)

	if len(r) != len(Fields()) {
		t.Fatalf("result has %d fields, want %d", len(r), len(Fields()))
	}
	for _, desc := range Fields() {
		if _, ok := r[desc.Name]; !ok {
			t.Errorf("result missing field %q", desc.Name)
		}
	}
}

func TestExtractDerivedFieldsReadEarlierResults(t *testing.T) {
	e := New()
	d := NewDocument([]string{"exenteracao posterior com histerectomia e ressecao de bexiga"})
	r := e.Extract(context.Background(), d)

	if r["utero"] != IntVal(1) {
		t.Errorf("utero = %+v, want 1", r["utero"])
	}
	if r["bexiga"] != IntVal(1) {
		t.Errorf("bexiga = %+v, want 1", r["bexiga"])
	}
	if r["n_orgaos"] != IntVal(2) {
		t.Errorf("n_orgaos = %+v, want 2", r["n_orgaos"])
	}
}

// ambiguousASADoc yields two bare ASA mentions with identical context
// scores, which trips the disambiguation gate.
func ambiguousASADoc() *Document {
	return NewDocument([]string{
		"anotacao asa 2",
		spaces(400),
		"registro asa 3",
	})
}

func TestAmbiguousFieldConsultsOracle(t *testing.T) {
	oracle := &fakeOracle{answer: "3"}
	e := New(WithOracle(oracle))
	r := e.Extract(context.Background(), ambiguousASADoc())

	if r["ASA"] != IntVal(3) {
		t.Errorf("ASA = %+v, want oracle answer 3", r["ASA"])
	}
	if oracle.calls == 0 {
		t.Error("oracle was never consulted")
	}
}

func TestOracleFailureFallsBackToRule(t *testing.T) {
	oracle := &fakeOracle{err: errors.New("timeout")}
	e := New(WithOracle(oracle))
	r := e.Extract(context.Background(), ambiguousASADoc())

	if r["ASA"] != IntVal(2) {
		t.Errorf("ASA = %+v, want rule-based 2", r["ASA"])
	}
}

func TestSentinelAnswerKeepsRuleResult(t *testing.T) {
	for _, answer := range []string{"None", "não encontrado", "N/A"} {
		oracle := &fakeOracle{answer: answer}
		e := New(WithOracle(oracle))
		r := e.Extract(context.Background(), ambiguousASADoc())

		if r["ASA"] != IntVal(2) {
			t.Errorf("answer %q: ASA = %+v, want rule-based 2", answer, r["ASA"])
		}
	}
}

func TestAnswerOutsideDomainKeepsRuleResult(t *testing.T) {
	oracle := &fakeOracle{answer: "7"}
	e := New(WithOracle(oracle))
	r := e.Extract(context.Background(), ambiguousASADoc())

	if r["ASA"] != IntVal(2) {
		t.Errorf("ASA = %+v, want rule-based 2", r["ASA"])
	}
}

func TestOracleFirstFieldPrefersOracle(t *testing.T) {
	oracle := &fakeOracle{answer: "pT3 pN1 pM0"}
	e := New(WithOracle(oracle))
	d := NewDocument([]string{"laudo ap: t2 n0 m0"})
	r := e.Extract(context.Background(), d)

	if r["AP"] != TextVal("pT3 pN1 pM0") {
		t.Errorf("AP = %+v, want oracle answer", r["AP"])
	}
	// AP is the only oracle-first field and nothing else is ambiguous
	// here, so rule-only fields must not have consulted.
	if oracle.calls != 1 {
		t.Errorf("oracle consulted %d times, want 1", oracle.calls)
	}
}

func TestNoOracleStaysRuleBased(t *testing.T) {
	e := New()
	r := e.Extract(context.Background(), ambiguousASADoc())
	if r["ASA"] != IntVal(2) {
		t.Errorf("ASA = %+v, want rule-based 2", r["ASA"])
	}
}
