package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Chart-coded histology categories, tried in declaration order.
var histologyKinds = []struct {
	code  string
	terms []string
}{
	{"ADENOCA", []string{"adenocarcinoma", "adenoca"}},
	{"CARCINOIDE", []string{"carcinoide"}},
	{"GIST", []string{"gist"}},
	{"LINFOMA", []string{"linfoma"}},
}

func deriveHistologia(d *Document, _ Result) Value {
	for _, kind := range histologyKinds {
		for _, term := range kind.terms {
			if strings.Contains(d.Norm, term) {
				return TextVal(kind.code)
			}
		}
	}
	return Absent()
}

// TNM triplet patterns over normalized text. The prefixed form carries
// the pathological "p" marker through to the rendered value.
var apPatterns = []struct {
	re       *regexp.Regexp
	prefixed bool
}{
	{regexp.MustCompile(`p?t([0-4][a-cb]?)\s+p?n([0-3][a-cb]?)\s+p?m([0-1][a-cb]?)`), false},
	{regexp.MustCompile(`t([0-4][a-cb]?)\s+n([0-3][a-cb]?)\s+m([0-1][a-cb]?)`), false},
	{regexp.MustCompile(`ap[:\s]+.*?p?t([0-4][a-cb]?)\s+p?n([0-3][a-cb]?)\s+p?m([0-1][a-cb]?)`), true},
}

// generateAP finds the TNM staging triplet. The surface patterns are
// intrinsically noisy in OCR text, which is why the field merges
// oracle-first.
func generateAP(d *Document) []Candidate {
	for _, p := range apPatterns {
		m := p.re.FindStringSubmatchIndex(d.Norm)
		if m == nil {
			continue
		}
		tv := strings.ToUpper(d.Norm[m[2]:m[3]])
		nv := strings.ToUpper(d.Norm[m[4]:m[5]])
		mv := strings.ToUpper(d.Norm[m[6]:m[7]])
		var raw string
		if p.prefixed || strings.Contains(d.Norm[m[0]:m[1]], "p") {
			raw = fmt.Sprintf("pT%s pN%s pM%s", tv, nv, mv)
		} else {
			raw = fmt.Sprintf("T%s N%s M%s", tv, nv, mv)
		}
		return []Candidate{{Raw: raw, Pos: m[0], Score: 1}}
	}
	return nil
}

var (
	estadioRE = regexp.MustCompile(`estadio\s*[:]?\s*([0-4ivx]+)`)

	// Chart convention maps stage labels to zero-based codes.
	estadioCodes = map[string]int{
		"i": 0, "ii": 1, "iii": 2, "iv": 3,
		"0": 0, "1": 1, "2": 2, "3": 3, "4": 4,
	}
)

// deriveEstadiamento reads the stage directly when stated, otherwise
// approximates it from the resolved TNM.
func deriveEstadiamento(d *Document, r Result) Value {
	if m := estadioRE.FindStringSubmatch(d.Norm); m != nil {
		if code, ok := estadioCodes[m[1]]; ok {
			return IntVal(code)
		}
		if n, err := strconv.Atoi(m[1]); err == nil {
			return IntVal(n)
		}
	}
	if ap, ok := r["AP"]; ok && ap.Kind == KindText {
		low := strings.ToLower(ap.Text)
		if strings.Contains(low, "t4") && strings.Contains(low, "n1") {
			return IntVal(3)
		}
		if strings.Contains(low, "t3") && strings.Contains(low, "n0") {
			return IntVal(2)
		}
	}
	return Absent()
}

var tStageRE = regexp.MustCompile(`p?t([0-4][a-cb]?)`)

func deriveT(d *Document, _ Result) Value {
	if m := tStageRE.FindStringSubmatch(d.Norm); m != nil {
		return TextVal("T" + strings.ToUpper(m[1]))
	}
	return Absent()
}

// Lymph-node ratio patterns, most specific first; the bare x/y form is
// a last resort and still requires node context nearby.
var nRatioREs = []*regexp.Regexp{
	regexp.MustCompile(`neoplasia\s+em\s+(\d+)\s+de\s+(\d+)\s+linfonodos`),
	regexp.MustCompile(`(\d+)\s*/\s*(\d+)\s+linfonodos`),
	regexp.MustCompile(`linfonodos.*?(\d+)\s*/\s*(\d+)`),
	regexp.MustCompile(`n\s*[:]?\s*(\d+)\s*/\s*(\d+)`),
	regexp.MustCompile(`(\d+)\s*/\s*(\d+)(?:\s|$)`),
}

var nodeContextTerms = []string{"linfonodo", "neoplasia", "ap", "anatomia"}

func deriveN(d *Document, _ Result) Value {
	for _, re := range nRatioREs {
		for _, m := range re.FindAllStringSubmatchIndex(d.Norm, -1) {
			ctx := d.window(m[0], 50, m[1]-m[0]+50)
			inContext := false
			for _, term := range nodeContextTerms {
				if strings.Contains(ctx, term) {
					inContext = true
					break
				}
			}
			if !inContext {
				continue
			}
			num, err1 := strconv.Atoi(d.Norm[m[2]:m[3]])
			den, err2 := strconv.Atoi(d.Norm[m[4]:m[5]])
			if err1 != nil || err2 != nil {
				continue
			}
			if den >= 1 && den <= 100 && num >= 0 && num <= den {
				return TextVal(fmt.Sprintf("%d/%d", num, den))
			}
		}
	}
	return Absent()
}

// Positive-node count, split off the x/y ratio.
func deriveNA(d *Document, r Result) Value {
	v, ok := r["N"]
	if !ok || v.Kind != KindText {
		return Absent()
	}
	parts := strings.SplitN(v.Text, "/", 2)
	n, err := strconv.Atoi(parts[0])
	if err != nil {
		return Absent()
	}
	return IntVal(n)
}

var invasaoREs = []*regexp.Regexp{
	regexp.MustCompile(`extensao.*?neoplasia.*?(?:serosa|musculo|mucosa|submucosa|subserosa|transmural|ileo|bexiga|intestino)`),
	regexp.MustCompile(`invasao.*?(?:serosa|musculo|mucosa|submucosa|subserosa|transmural|ileo|bexiga|intestino)`),
	regexp.MustCompile(`alem.*?serosa.*?invasao.*?(?:ileo|bexiga|intestino|delgado)`),
}

const invasaoMaxLen = 300

// deriveInvasao captures a bounded free-text description of tumour
// invasion around the first matching pathology phrase.
func deriveInvasao(d *Document, _ Result) Value {
	for _, re := range invasaoREs {
		m := re.FindStringIndex(d.Norm)
		if m == nil {
			continue
		}
		desc := strings.TrimSpace(d.window(m[0], 50, m[1]-m[0]+200))
		if len(desc) > invasaoMaxLen {
			desc = desc[:invasaoMaxLen]
		}
		return TextVal(desc)
	}
	return Absent()
}

var (
	rMarginRE    = regexp.MustCompile(`\br([0-2])\b`)
	rMarginCtxRE = regexp.MustCompile(`(?:margem|margens).*?r([0-2])`)
)

func deriveR0R1R2(d *Document, _ Result) Value {
	t := d.Norm
	if strings.Contains(t, "margens") && strings.Contains(t, "livre") {
		return TextVal("R0")
	}
	if strings.Contains(t, "livre") && strings.Contains(t, "neoplasia") && strings.Contains(t, "margem") {
		return TextVal("R0")
	}
	if m := rMarginRE.FindStringSubmatch(t); m != nil {
		return TextVal("R" + m[1])
	}
	if m := rMarginCtxRE.FindStringSubmatch(t); m != nil {
		return TextVal("R" + m[1])
	}
	return Absent()
}

func deriveR0R1R2V2(d *Document, r Result) Value {
	v, ok := r["R0_R1_R2"]
	if !ok || v.Kind != KindText || len(v.Text) < 2 {
		return Absent()
	}
	n, err := strconv.Atoi(v.Text[1:])
	if err != nil {
		return Absent()
	}
	return IntVal(n)
}

func deriveQTAdjuvante(d *Document, _ Result) Value {
	t := d.Norm
	if !strings.Contains(t, "qt adjuvante") && !strings.Contains(t, "quimio adjuvante") &&
		!strings.Contains(t, "quimioterapia adjuvante") {
		return Absent()
	}
	// A negation right before the mention means it was considered but
	// not given.
	idx := strings.Index(t, "adjuvante")
	lead := d.Norm[max(0, idx-100):max(0, idx-50)]
	if strings.Contains(lead, "nao") {
		return IntVal(0)
	}
	return IntVal(1)
}

func deriveRecidiva(d *Document, _ Result) Value {
	t := d.Norm
	if !strings.Contains(t, "recidiva") {
		return IntVal(0)
	}
	if strings.Contains(t, "sem recidiva") || strings.Contains(t, "nao recidiva") {
		return IntVal(0)
	}
	return IntVal(1)
}

var recurrenceSites = []string{"pelve", "hepatica", "pulmonar", "peritoneal", "local"}

func deriveRecidivaLocal(d *Document, _ Result) Value {
	if !strings.Contains(d.Norm, "recidiva") {
		return Absent()
	}
	for _, site := range recurrenceSites {
		if strings.Contains(d.Norm, site) {
			return TextVal(strings.ToUpper(site))
		}
	}
	return Absent()
}

func deriveRecidivaLocalV2(d *Document, r Result) Value {
	if v, ok := r["recidiva_local"]; ok && !v.IsAbsent() {
		return IntVal(1)
	}
	return IntVal(0)
}

var dtRecidivaREs = []*regexp.Regexp{
	regexp.MustCompile(`data\s+recidiva\s*[:]?\s*(\d{2}[/-]\d{2}[/-]\d{4})`),
	regexp.MustCompile(`recidiva\s+em\s+(\d{2}/\d{2}/\d{4})`),
	regexp.MustCompile(`(\d{2}/\d{2}/\d{4}).*?recidiva`),
	regexp.MustCompile(`recidiva.*?(\d{2}/\d{2}/\d{4})`),
}

// deriveDtRecidiva finds a date adjacent to a recurrence mention.
func deriveDtRecidiva(d *Document, _ Result) Value {
	for _, re := range dtRecidivaREs {
		for _, m := range re.FindAllStringSubmatchIndex(d.Norm, -1) {
			ctx := d.window(m[0], 50, m[1]-m[0]+50)
			if strings.Contains(ctx, "recidiva") {
				return DateVal(d.Norm[m[2]:m[3]])
			}
		}
	}
	return Absent()
}

func deriveFisiatria(d *Document, _ Result) Value {
	idx := strings.Index(d.Norm, "fisiatria")
	if idx < 0 {
		return IntVal(0)
	}
	ctx := d.window(idx, 50, 50)
	for _, term := range []string{"avaliacao", "acompanhamento", "consulta", "avaliar"} {
		if strings.Contains(ctx, term) {
			return IntVal(1)
		}
	}
	return IntVal(0)
}

func derivePaliativoGrupoDor(d *Document, _ Result) Value {
	t := d.Norm
	if strings.Contains(t, "paliativo") && strings.Contains(t, "dor") {
		idx := strings.Index(t, "dor")
		if strings.Contains(d.window(idx, 100, 100), "grupo") {
			return IntVal(1)
		}
	}
	return IntVal(0)
}

func deriveGrupoDor(d *Document, _ Result) Value {
	t := d.Norm
	if strings.Contains(t, "grupo") && strings.Contains(t, "dor") {
		idx := strings.Index(t, "grupo")
		if strings.Contains(d.window(idx, 50, 100), "dor") {
			return IntVal(1)
		}
	}
	return IntVal(0)
}

var ultConsultaREs = []*regexp.Regexp{
	regexp.MustCompile(`ultima\s+consulta\s*[:]?\s*(\d{2}/\d{2}/\d{4})`),
	regexp.MustCompile(`ult\s+consulta\s*[:]?\s*(\d{2}/\d{2}/\d{4})`),
}

func deriveUltConsulta(d *Document, _ Result) Value {
	for _, re := range ultConsultaREs {
		if m := re.FindStringSubmatch(d.Norm); m != nil {
			return DateVal(m[1])
		}
	}
	return Absent()
}

func deriveObito(d *Document, _ Result) Value {
	if strings.Contains(d.Norm, "obito") || strings.Contains(d.Norm, "falecimento") {
		return IntVal(1)
	}
	return IntVal(0)
}

var dtObitoREs = []*regexp.Regexp{
	regexp.MustCompile(`data\s+obito\s*[:]?\s*(\d{2}[/-]\d{2}[/-]\d{4})`),
	regexp.MustCompile(`obito\s+em\s+(\d{2}/\d{2}/\d{4})`),
}

func deriveDtObito(d *Document, _ Result) Value {
	for _, re := range dtObitoREs {
		if m := re.FindStringSubmatch(d.Norm); m != nil {
			return DateVal(m[1])
		}
	}
	return Absent()
}

var deathReasons = []string{"doenca", "complicacao", "progressao", "recidiva"}

func deriveObitoMotivo(d *Document, _ Result) Value {
	if !strings.Contains(d.Norm, "obito") {
		return Absent()
	}
	for _, reason := range deathReasons {
		if strings.Contains(d.Norm, reason) {
			return TextVal(reason)
		}
	}
	return Absent()
}

// Fields the records cannot answer today; declared so the result map
// stays complete and the comparator can still score them.
func deriveAbsent(_ *Document, _ Result) Value {
	return Absent()
}
