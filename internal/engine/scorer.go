package engine

import (
	"regexp"
	"sort"
	"strings"
)

// Candidate is a provisional extracted value: the raw token (from
// normalized text unless the generator says otherwise), its byte
// position in the document, and the accumulated context score.
// Candidates live only within a single field's extraction pass.
type Candidate struct {
	Raw   string
	Pos   int
	Score int
}

// ContextRules configures the additive scoring primitives applied to a
// candidate's surrounding text window.
type ContextRules struct {
	// Keywords each add keywordBonus when present anywhere in the window.
	Keywords []string
	// Preferred keywords add a proximity-weighted bonus that decays
	// linearly with character distance.
	Preferred []string
	// Window is the number of characters inspected before and after the
	// match. Zero means defaultWindow.
	Window int
	// AnchorBonus is added when the anchor date (any separator variant)
	// appears in the window. Zero means defaultAnchorBonus; -1 disables.
	AnchorBonus int
}

const (
	defaultWindow      = 300
	keywordBonus       = 2
	defaultAnchorBonus = 10
	proximityCeiling   = 15
	proximityStep      = 20
)

func (r ContextRules) window() int {
	if r.Window > 0 {
		return r.Window
	}
	return defaultWindow
}

func (r ContextRules) anchorBonus() int {
	switch {
	case r.AnchorBonus > 0:
		return r.AnchorBonus
	case r.AnchorBonus < 0:
		return 0
	default:
		return defaultAnchorBonus
	}
}

// scoreAt computes the context score for a match at pos using the
// configured rules. before/after are the window halves.
func (r ContextRules) scoreAt(d *Document, pos int) int {
	w := r.window()
	lo := pos - w
	if lo < 0 {
		lo = 0
	}
	hi := pos + w
	if hi > len(d.Norm) {
		hi = len(d.Norm)
	}
	before := d.Norm[lo:pos]
	after := d.Norm[pos:hi]
	context := before + after

	score := 0
	for _, kw := range r.Keywords {
		if strings.Contains(context, kw) {
			score += keywordBonus
		}
	}
	for _, kw := range r.Preferred {
		if idx := strings.LastIndex(before, kw); idx >= 0 {
			dist := len(before) - idx
			if b := proximityCeiling - dist/proximityStep; b > 0 {
				score += b
			}
		}
		if idx := strings.Index(after, kw); idx >= 0 {
			if b := proximityCeiling - idx/proximityStep; b > 0 {
				score += b
			}
		}
	}
	if bonus := r.anchorBonus(); bonus > 0 {
		for _, variant := range d.anchorVariants() {
			if strings.Contains(context, variant) {
				score += bonus
				break
			}
		}
	}
	return score
}

// findScored runs pattern over the normalized text and scores every
// match's first capture group (or the whole match) against the rules.
// The returned list is ranked.
func findScored(d *Document, pattern *regexp.Regexp, rules ContextRules) []Candidate {
	return findScoredIn(d, d.Norm, 0, pattern, rules)
}

// findScoredIn is findScored over a sub-slice of the normalized text
// starting at base; positions stay document-relative so anchor and
// window lookups see the full record.
func findScoredIn(d *Document, text string, base int, pattern *regexp.Regexp, rules ContextRules) []Candidate {
	var out []Candidate
	for _, idx := range pattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := idx[0], idx[1]
		if len(idx) >= 4 && idx[2] >= 0 {
			start, end = idx[2], idx[3]
		}
		pos := base + idx[0]
		out = append(out, Candidate{
			Raw:   text[start:end],
			Pos:   pos,
			Score: rules.scoreAt(d, pos),
		})
	}
	return rank(out)
}

// rank orders candidates by score descending; ties break on encounter
// order, earliest position first.
func rank(cands []Candidate) []Candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].Pos < cands[j].Pos
	})
	return cands
}

// ambiguous reports whether the ranking is too close to call: at least
// two candidates with a top-two score gap under the threshold.
func ambiguous(cands []Candidate, threshold int) bool {
	if threshold <= 0 || len(cands) < 2 {
		return false
	}
	return cands[0].Score-cands[1].Score < threshold
}
