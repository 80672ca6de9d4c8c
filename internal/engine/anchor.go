package engine

import "regexp"

// anchorPatterns are tried in order against normalized text; the order
// encodes a priority among label phrasings, not a quality ranking. The
// first match wins outright — no scoring.
var anchorPatterns = []*regexp.Regexp{
	regexp.MustCompile(`data\s+da\s+cirurgia\s*[:]?\s*(\d{2}[/-]\d{2}[/-]\d{4})`),
	regexp.MustCompile(`cirurgia\s+em\s+(\d{2}[/-]\d{2}[/-]\d{4})`),
	regexp.MustCompile(`dt\s*so\s*[:]?\s*(\d{2}[/-]\d{2}[/-]\d{4})`),
	regexp.MustCompile(`data\s+da\s+operacao\s*[:]?\s*(\d{2}[/-]\d{2}[/-]\d{4})`),
	regexp.MustCompile(`po\s*\((\d{2}/\d{2}/\d{4})\)`),
}

// ResolveAnchor finds the index-surgery date that anchors every other
// extraction. Input must already be normalized. Returns dd/mm/yyyy with
// dash separators unified to slashes, or false when no label matched.
// Absence is not an error: downstream extractors fall back to
// anchor-independent heuristics.
func ResolveAnchor(norm string) (string, bool) {
	for _, re := range anchorPatterns {
		if m := re.FindStringSubmatch(norm); m != nil {
			v := DateVal(m[1])
			return v.Text, true
		}
	}
	return "", false
}
