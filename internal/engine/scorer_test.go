package engine

import (
	"regexp"
	"testing"
)

func TestKeywordBonusIncreasesScore(t *testing.T) {
	rules := ContextRules{Keywords: []string{"avaliacao"}, AnchorBonus: -1}
	with := NewDocument([]string{"avaliacao pre-operatoria asa 2"})
	without := NewDocument([]string{"registro antigo asa 2"})

	if got, want := rules.scoreAt(with, 25), rules.scoreAt(without, 20); got <= want {
		t.Errorf("keyword context score = %d, want > %d", got, want)
	}
}

func TestProximityBonusDecaysWithDistance(t *testing.T) {
	rules := ContextRules{Preferred: []string{"cirurgia"}, AnchorBonus: -1}
	near := NewDocument([]string{"cirurgia asa 2"})
	far := NewDocument([]string{"cirurgia" + spaces(200) + "asa 2"})

	nearScore := rules.scoreAt(near, 9)
	farScore := rules.scoreAt(far, 209)
	if nearScore <= farScore {
		t.Errorf("near score %d should beat far score %d", nearScore, farScore)
	}
}

func TestAnchorBonus(t *testing.T) {
	rules := ContextRules{}
	d := NewDocument([]string{"data da cirurgia 20/01/2017 asa 2"})
	noAnchor := NewDocument([]string{"sem data asa 2"})

	if got := rules.scoreAt(d, 28); got < defaultAnchorBonus {
		t.Errorf("score with anchor in window = %d, want >= %d", got, defaultAnchorBonus)
	}
	if got := rules.scoreAt(noAnchor, 9); got != 0 {
		t.Errorf("score without anchor = %d, want 0", got)
	}
}

func TestFindScoredRanksByContext(t *testing.T) {
	// Scenario: ASA 2 sits inside a pre-op assessment, ASA 3 is a bare
	// mention. The contextual one must win.
	d := NewDocument([]string{
		"avaliacao pre-operatoria completa. cirurgia indicada. ASA 2.",
		spaces(400),
		"anotacao avulsa ASA 3",
	})
	cands := findScored(d, regexp.MustCompile(`asa\s*[:=]?\s*([1-4])`), asaRules)
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	if cands[0].Raw != "2" {
		t.Errorf("top candidate = %q, want 2", cands[0].Raw)
	}
	if cands[0].Score <= cands[1].Score {
		t.Errorf("contextual candidate score %d should beat bare score %d", cands[0].Score, cands[1].Score)
	}
}

func TestRankTiesBreakOnPosition(t *testing.T) {
	cands := rank([]Candidate{
		{Raw: "b", Pos: 50, Score: 5},
		{Raw: "a", Pos: 10, Score: 5},
	})
	if cands[0].Raw != "a" {
		t.Errorf("earliest position should win ties, got %q first", cands[0].Raw)
	}
}

func TestAmbiguous(t *testing.T) {
	tests := []struct {
		name      string
		cands     []Candidate
		threshold int
		want      bool
	}{
		{"clear winner", []Candidate{{Score: 10}, {Score: 2}}, 3, false},
		{"close call", []Candidate{{Score: 10}, {Score: 9}}, 3, true},
		{"single candidate", []Candidate{{Score: 10}}, 3, false},
		{"disabled threshold", []Candidate{{Score: 10}, {Score: 10}}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ambiguous(tt.cands, tt.threshold); got != tt.want {
				t.Errorf("ambiguous = %v, want %v", got, tt.want)
			}
		})
	}
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
