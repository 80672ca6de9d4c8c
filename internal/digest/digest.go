// Package digest builds the size-bounded record excerpt handed to the
// external oracle. A full record can run to hundreds of thousands of
// characters; the digest keeps the passages that can actually answer a
// field question: the patient header, the narrative around the index
// surgery, pathology reports, and stay summaries.
package digest

import (
	"regexp"
	"strings"
)

// Config bounds the digest. The per-section caps are sized so that the
// worst-case sum of all critical sections stays under Budget; normal
// sections only ever compete for the remainder.
type Config struct {
	Budget int // total character budget, hard limit

	Head int // record head, patient identification
	Tail int // record tail, closing summaries

	AnchorBefore, AnchorAfter int // window around each anchor-date occurrence
	AnchorMax                 int // occurrences kept critical; the rest demote to normal

	PathologyBefore, PathologyAfter int
	PathologyMax                    int

	StayBefore, StayAfter int
	StayMax               int

	FingerprintLen int // opening-chars fingerprint used to dedup normal sections
}

func DefaultConfig() Config {
	return Config{
		Budget:          8000,
		Head:            800,
		Tail:            800,
		AnchorBefore:    200,
		AnchorAfter:     600,
		AnchorMax:       3,
		PathologyBefore: 200,
		PathologyAfter:  800,
		PathologyMax:    2,
		StayBefore:      150,
		StayAfter:       350,
		StayMax:         2,
		FingerprintLen:  32,
	}
}

// Section is one digest passage. Critical sections survive budget
// trimming whole; normal sections fill whatever room is left.
type Section struct {
	Text     string
	Critical bool
}

var (
	surgeryKeywords = []string{"cirurgia", "operacao", "procedimento", "anestesia", "exentera", "ressecao"}

	pathologyMarkerRE = regexp.MustCompile(`produto\s+de\s+exentera|anatomia\s+patologica|laudo\s+anatomopatologico`)
	stayMarkerRE      = regexp.MustCompile(`dias\s+de\s+internac|dias\s+uti|permanencia|internacao`)
)

// Sections builds the digest passages from normalized record text.
// anchor is the index-surgery date (dd/mm/yyyy) or empty; without it the
// anchor and stay passages are skipped and the head/tail still stand.
func Sections(norm, anchor string, cfg Config) []Section {
	if len(norm) <= cfg.Head+cfg.Tail {
		return []Section{{Text: norm, Critical: true}}
	}

	var out []Section
	out = append(out, Section{Text: norm[:cfg.Head], Critical: true})

	if anchor != "" {
		kept := 0
		for _, variant := range anchorVariants(anchor) {
			for _, loc := range allOccurrences(norm, variant) {
				w := clip(norm, loc-cfg.AnchorBefore, loc+len(variant)+cfg.AnchorAfter)
				if !containsAny(w, surgeryKeywords) {
					continue
				}
				out = append(out, Section{Text: w, Critical: kept < cfg.AnchorMax})
				kept++
			}
		}
	}

	kept := 0
	for _, loc := range pathologyMarkerRE.FindAllStringIndex(norm, -1) {
		w := clip(norm, loc[0]-cfg.PathologyBefore, loc[1]+cfg.PathologyAfter)
		out = append(out, Section{Text: w, Critical: kept < cfg.PathologyMax})
		kept++
	}

	if anchor != "" && len(anchor) == 10 {
		monthYear := anchor[3:] // mm/yyyy
		year := anchor[6:]
		kept = 0
		for _, loc := range stayMarkerRE.FindAllStringIndex(norm, -1) {
			w := clip(norm, loc[0]-cfg.StayBefore, loc[1]+cfg.StayAfter)
			if !strings.Contains(w, monthYear) && !strings.Contains(w, year) {
				continue
			}
			out = append(out, Section{Text: w, Critical: kept < cfg.StayMax})
			kept++
		}
	}

	out = append(out, Section{Text: norm[len(norm)-cfg.Tail:], Critical: true})
	return out
}

// Build assembles the final digest: all critical sections in priority
// order, then deduplicated normal sections in encounter order until the
// budget runs out, the last one truncated to fit. The result never
// exceeds cfg.Budget.
func Build(norm, anchor string, cfg Config) string {
	sections := Sections(norm, anchor, cfg)

	const sep = "\n\n"
	var b strings.Builder
	write := func(text string) bool {
		need := len(text)
		if b.Len() > 0 {
			need += len(sep)
		}
		room := cfg.Budget - b.Len()
		if room <= 0 {
			return false
		}
		if b.Len() > 0 {
			if room < len(sep) {
				return false
			}
			b.WriteString(sep)
			room -= len(sep)
		}
		if len(text) > room {
			text = text[:room]
		}
		b.WriteString(text)
		return len(text) > 0
	}

	for _, s := range sections {
		if s.Critical {
			write(s.Text)
		}
	}

	seen := make(map[string]bool)
	for _, s := range sections {
		if s.Critical {
			continue
		}
		fp := s.Text
		if len(fp) > cfg.FingerprintLen {
			fp = fp[:cfg.FingerprintLen]
		}
		if seen[fp] {
			continue
		}
		seen[fp] = true
		if !write(s.Text) {
			break
		}
	}
	return b.String()
}

func anchorVariants(anchor string) []string {
	return []string{
		anchor,
		strings.ReplaceAll(anchor, "/", "-"),
		strings.ReplaceAll(anchor, "/", "."),
	}
}

func allOccurrences(s, sub string) []int {
	var out []int
	for from := 0; ; {
		idx := strings.Index(s[from:], sub)
		if idx < 0 {
			return out
		}
		out = append(out, from+idx)
		from += idx + len(sub)
	}
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

func clip(s string, lo, hi int) string {
	if lo < 0 {
		lo = 0
	}
	if hi > len(s) {
		hi = len(s)
	}
	return s[lo:hi]
}
