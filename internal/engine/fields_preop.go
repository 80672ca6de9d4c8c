package engine

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var sexoRE = regexp.MustCompile(`sexo\s*[:\-]?\s*(feminino|masculino|fem\.?|masc\.?|f|m)\b`)

// 1 = feminino, 2 = masculino.
func deriveSexo(d *Document, _ Result) Value {
	if m := sexoRE.FindStringSubmatch(d.Norm); m != nil {
		if strings.HasPrefix(m[1], "fem") || m[1] == "f" {
			return IntVal(1)
		}
		return IntVal(2)
	}
	if strings.Contains(d.Norm, "sexo") {
		fem := strings.Contains(d.Norm, "feminino")
		masc := strings.Contains(d.Norm, "masculino")
		if fem && !masc {
			return IntVal(1)
		}
		if masc && !fem {
			return IntVal(2)
		}
	}
	return Absent()
}

func deriveAnchorDate(d *Document, _ Result) Value {
	if d.Anchor == "" {
		return Absent()
	}
	return DateVal(d.Anchor)
}

var (
	birthDateREs = []*regexp.Regexp{
		regexp.MustCompile(`data\s+nascto\s+(\d{2}/\d{2}/\d{4})`),
		regexp.MustCompile(`data\s+nascimento\s+(\d{2}/\d{2}/\d{4})`),
		regexp.MustCompile(`dta\.?\s+de\s+nascimento\s+(\d{2}/\d{2}/\d{4})`),
		regexp.MustCompile(`dia\.?\s+de\s+nascimento\s+(\d{2}/\d{2}/\d{4})`),
	}
	// "Data Nascto 01/02/1967 50 anos ... Dt Registro 24/02/2017" header blocks.
	nasctoBlockRE = regexp.MustCompile(`(?s)data\s+nascto\s+(\d{2}/\d{2}/\d{4})\s+(\d{1,3})\s+anos.*?dt\s*registro\s+(\d{2}/\d{2}/\d{4})`)
	anosRE        = regexp.MustCompile(`(\d{1,3})\s+anos`)
)

// Score offsets keep the age sources stratified: a birth-date computation
// beats any registration block, which beats any bare "N anos" mention.
const (
	ageBirthDateScore = 1000
	ageBlockBase      = 500
)

// generateIdade yields age candidates from three sources, strongest first:
// birth date against the anchor date, patient-header blocks scored by how
// close their registration date sits to the anchor, and bare "N anos"
// mentions scored by context. Only the last source is ever ambiguous.
func generateIdade(d *Document) []Candidate {
	var out []Candidate

	var birth time.Time
	var birthPos = -1
	for _, re := range birthDateREs {
		if m := re.FindStringSubmatchIndex(d.Norm); m != nil {
			if t, ok := parseRecordDate(d.Norm[m[2]:m[3]]); ok {
				birth = t
				birthPos = m[0]
				break
			}
		}
	}
	anchor, haveAnchor := parseRecordDate(d.Anchor)

	if birthPos >= 0 && haveAnchor {
		age := anchor.Year() - birth.Year()
		if anchor.Month() < birth.Month() || (anchor.Month() == birth.Month() && anchor.Day() < birth.Day()) {
			age--
		}
		if age > 0 && age < 100 {
			return []Candidate{{Raw: strconv.Itoa(age), Pos: birthPos, Score: ageBirthDateScore}}
		}
	}

	blocks := nasctoBlockRE.FindAllStringSubmatchIndex(d.Norm, -1)
	if len(blocks) > 0 && haveAnchor {
		for _, m := range blocks {
			age, err := strconv.Atoi(d.Norm[m[4]:m[5]])
			if err != nil || age <= 0 || age >= 100 {
				continue
			}
			score := ageBlockBase
			if reg, ok := parseRecordDate(d.Norm[m[6]:m[7]]); ok {
				diffDays := int(math.Abs(anchor.Sub(reg).Hours() / 24))
				if b := 365 - diffDays; b > 0 {
					score += b
				}
			}
			out = append(out, Candidate{Raw: strconv.Itoa(age), Pos: m[0], Score: score})
		}
		if len(out) > 0 {
			return rank(out)
		}
	}
	if len(blocks) > 0 {
		// No anchor to score against: prefer ages in the common 40-80
		// band, closest to its midpoint.
		for _, m := range blocks {
			age, err := strconv.Atoi(d.Norm[m[4]:m[5]])
			if err != nil || age <= 0 || age >= 100 {
				continue
			}
			score := ageBlockBase
			if age >= 40 && age <= 80 {
				score += 100 - int(math.Abs(float64(age-60)))
			}
			out = append(out, Candidate{Raw: strconv.Itoa(age), Pos: m[0], Score: score})
		}
		if len(out) > 0 {
			return rank(out)
		}
	}

	for _, m := range anosRE.FindAllStringSubmatchIndex(d.Norm, -1) {
		age, err := strconv.Atoi(d.Norm[m[2]:m[3]])
		if err != nil || age < 30 || age > 90 {
			continue
		}
		w := d.window(m[0], 200, 200)
		score := 0
		if strings.Contains(w, "paciente") {
			score += 2
		}
		if strings.Contains(w, "cirurgia") || strings.Contains(w, "operacao") || strings.Contains(w, "so") {
			score += 4
		}
		if strings.Contains(w, "pre") && strings.Contains(w, "op") {
			score += 5
		}
		if strings.Contains(w, "dt registro") || strings.Contains(w, "data registro") {
			score += 2
		}
		// Ages of relatives show up in family-history passages.
		for _, rel := range []string{"irmao", "filho", "pai", "mae"} {
			if strings.Contains(w, rel) {
				score -= 5
				break
			}
		}
		out = append(out, Candidate{Raw: strconv.Itoa(age), Pos: m[0], Score: score})
	}
	return rank(out)
}

var analVergeRE = regexp.MustCompile(`(\d{1,2}(?:[.,]\d+)?)\s*cm\s+da\s+borda\s+anal`)

// Site mentions are tried most-specific first; the anal-verge distance is
// the fallback mapping (<5cm baixo, ≤10cm medio, >10cm alto).
var tumorSites = []string{
	"transicao retossigmoideana",
	"canal anal",
	"reto baixo",
	"reto medio",
	"reto alto",
	"sigmoide",
}

func deriveLocalTumor(d *Document, _ Result) Value {
	for _, site := range tumorSites {
		if strings.Contains(d.Norm, site) {
			return TextVal(site)
		}
	}
	if m := analVergeRE.FindStringSubmatch(d.Norm); m != nil {
		if dist, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil {
			switch {
			case dist < 5:
				return TextVal("reto baixo")
			case dist <= 10:
				return TextVal("reto medio")
			default:
				return TextVal("reto alto")
			}
		}
	}
	return Absent()
}

var alturaTumorREs = []*regexp.Regexp{
	regexp.MustCompile(`altura\s+tumor\s*[:]?\s*(\d{1,3}(?:[.,]\d+)?)\s*cm`),
	regexp.MustCompile(`altura\s*[:]?\s*(\d{1,3}(?:[.,]\d+)?)\s*cm.*?tumor`),
	regexp.MustCompile(`distancia.*?borda\s+anal.*?(\d{1,2}(?:[.,]\d+)?)\s*cm`),
}

func deriveAlturaTumor(d *Document, _ Result) Value {
	for _, re := range alturaTumorREs {
		if m := re.FindStringSubmatch(d.Norm); m != nil {
			v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
			if err != nil {
				continue
			}
			if v == 99 { // chart code for "not applicable"
				return DecVal(99)
			}
			if v > 0 && v <= 50 {
				return DecVal(v)
			}
		}
	}
	return Absent()
}

var (
	// OCR renders "ASA" as "ASAS" often enough to fold into the pattern.
	asaRE        = regexp.MustCompile(`asas?\s*[:=]?\s*([1-4ivx]+)(?:\s|$|!|\.)`)
	preopBlockRE = regexp.MustCompile(`avaliacao\s+pre[-\s]?op[^\n]{0,500}`)
	asaStripRE   = regexp.MustCompile(`[^0-9ivx]`)

	asaRules = ContextRules{
		Keywords:  []string{"pre", "operat", "cirurgia", "avaliacao", "risco", "pre-op"},
		Preferred: []string{"cirurgia", "pre", "operat", "avaliacao", "pre-op"},
	}
)

// generateASA searches pre-operative assessment blocks first; only when
// none mention an ASA does it widen to the whole record.
func generateASA(d *Document) []Candidate {
	var out []Candidate
	for _, loc := range preopBlockRE.FindAllStringIndex(d.Norm, -1) {
		out = append(out, findScoredIn(d, d.Norm[loc[0]:loc[1]], loc[0], asaRE, asaRules)...)
	}
	if len(out) > 0 {
		return rank(out)
	}
	return findScored(d, asaRE, asaRules)
}

var romanASA = map[string]int{"i": 1, "ii": 2, "iii": 3, "iv": 4}

func parseASA(raw string) (Value, bool) {
	token := asaStripRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(raw)), "")
	if n, ok := romanASA[token]; ok {
		return IntVal(n), true
	}
	if n, err := strconv.Atoi(token); err == nil && n >= 1 && n <= 4 {
		return IntVal(n), true
	}
	return Absent(), false
}

var (
	// "ECOq O" and "ECOG O" are common OCR readings of "ECOG 0".
	ecogActiveRE   = regexp.MustCompile(`ecog\s*[:=]?\s*[0o]\s+completamente\s+ativo`)
	ecogRE         = regexp.MustCompile(`ecog\s*[:=]?\s*([0-4o])(?:\s|$|dl|completamente)`)
	ecogFallbackRE = regexp.MustCompile(`(?:ecog|performance\s+status.*?ecog)\s*[:=]?\s*([0-4o])(?:\s|$)`)

	ecogRules = ContextRules{
		Keywords:  []string{"pre", "operat", "cirurgia", "avaliacao", "performance", "pre-op"},
		Preferred: []string{"cirurgia", "pre", "operat", "performance", "avaliacao", "pre-op"},
	}
)

const ecogExplicitScore = 100

func generateECOG(d *Document) []Candidate {
	// "ECOG 0 Completamente ativo" is specific enough to settle the field.
	if loc := ecogActiveRE.FindStringIndex(d.Norm); loc != nil {
		return []Candidate{{Raw: "0", Pos: loc[0], Score: ecogExplicitScore}}
	}
	if out := findScored(d, ecogRE, ecogRules); len(out) > 0 {
		return out
	}
	return findScored(d, ecogFallbackRE, ecogRules)
}

func parseECOG(raw string) (Value, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "o" { // OCR letter O for digit zero
		return IntVal(0), true
	}
	if n, err := strconv.Atoi(raw); err == nil && n >= 0 && n <= 4 {
		return IntVal(n), true
	}
	return Absent(), false
}

var (
	// Loose stem: OCR produces "KP5", "KS", bare "K" before the number.
	kpsRE         = regexp.MustCompile(`kp?s?\s*[:=]?\s*(\d{2,3})(?:\s|$|kg|%|bpm|mmhg)`)
	kpsFallbackRE = regexp.MustCompile(`(?:kps|karnofsky)\s*[:=]?\s*(\d{2,3})(?:\s|$|%)`)

	kpsRules = ContextRules{
		Keywords:  []string{"pre", "operat", "cirurgia", "performance", "karnofsky"},
		Preferred: []string{"karnofsky", "performance", "pre", "operat"},
	}
)

func generateKPS(d *Document) []Candidate {
	if out := findScored(d, kpsRE, kpsRules); len(out) > 0 {
		return out
	}
	return findScored(d, kpsFallbackRE, kpsRules)
}

var (
	imcRE    = regexp.MustCompile(`imc\s*[:=]?\s*([0-9]{1,2}(?:[.,][0-9]{1,2})?)`)
	pesoRE   = regexp.MustCompile(`peso\)?\s*[:=]?\s*([0-9]{2,3}(?:[.,][0-9])?)`)
	alturaRE = regexp.MustCompile(`altura\)?\s*[:=]?\s*([0-9]{1,3}(?:[.,][0-9]{1,2})?)`)

	imcPreopKeywords = []string{"pre", "operat", "cirurgia", "avaliacao", "pre-op"}
)

// generateIMC scores direct IMC mentions by clinical plausibility and
// pre-operative context; with no direct mention it computes the index
// from the best-scored weight and height pair.
func generateIMC(d *Document) []Candidate {
	var out []Candidate
	for _, m := range imcRE.FindAllStringSubmatchIndex(d.Norm, -1) {
		raw := strings.ReplaceAll(d.Norm[m[2]:m[3]], ",", ".")
		imc, err := strconv.ParseFloat(raw, 64)
		if err != nil || imc < 10 || imc > 50 {
			continue
		}
		w := d.window(m[0], 500, 500)
		score := 0
		if imc >= 20 && imc <= 30 {
			score += 5
		}
		if imc >= 24 && imc <= 25 {
			score += 3
		}
		for _, kw := range imcPreopKeywords {
			if strings.Contains(w, kw) {
				score += 8
				break
			}
		}
		if strings.Contains(w, "peso") || strings.Contains(w, "altura") {
			score += 2
		}
		for _, variant := range d.anchorVariants() {
			if strings.Contains(w, variant) {
				score += 15
				break
			}
		}
		if strings.Contains(w, "consulta") && strings.Contains(w, "seguimento") {
			score -= 3
		}
		out = append(out, Candidate{Raw: formatIMC(imc), Pos: m[0], Score: score})
	}
	if len(out) > 0 {
		return rank(out)
	}
	if imc, pos, ok := imcFromWeightHeight(d); ok {
		return []Candidate{{Raw: formatIMC(imc), Pos: pos, Score: 1}}
	}
	return nil
}

func formatIMC(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}

func imcFromWeightHeight(d *Document) (float64, int, bool) {
	type scored struct {
		v     float64
		score int
		pos   int
	}
	contextScore := func(pos int) int {
		lo := pos - 100
		if lo < 0 {
			lo = 0
		}
		w := d.Norm[lo:pos]
		s := 0
		if strings.Contains(w, "pre") || strings.Contains(w, "operat") {
			s += 2
		}
		if strings.Contains(w, "cirurgia") {
			s++
		}
		return s
	}

	var pesos, alturas []scored
	for _, m := range pesoRE.FindAllStringSubmatchIndex(d.Norm, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(d.Norm[m[2]:m[3]], ",", "."), 64)
		if err != nil || v < 30 || v > 150 {
			continue
		}
		pesos = append(pesos, scored{v, contextScore(m[0]), m[0]})
	}
	for _, m := range alturaRE.FindAllStringSubmatchIndex(d.Norm, -1) {
		raw := strings.ReplaceAll(d.Norm[m[2]:m[3]], ",", ".")
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		switch {
		case strings.Contains(raw, ".") && v >= 1.0 && v <= 2.2:
			// meters
		case v >= 100 && v <= 220:
			v /= 100
		default:
			continue
		}
		alturas = append(alturas, scored{v, contextScore(m[0]), m[0]})
	}
	if len(pesos) == 0 || len(alturas) == 0 {
		return 0, 0, false
	}
	best := func(list []scored) scored {
		top := list[0]
		for _, s := range list[1:] {
			if s.score > top.score {
				top = s
			}
		}
		return top
	}
	p, h := best(pesos), best(alturas)
	imc := p.v / (h.v * h.v)
	if imc < 10 || imc > 50 {
		return 0, 0, false
	}
	return imc, p.pos, true
}

// Neoadjuvant radiotherapy: 0 = not performed, 1 = performed.
func deriveQRTNeo(d *Document, _ Result) Value {
	t := d.Norm
	if strings.Contains(t, "radioterapia neoadjuvante") || strings.Contains(t, "rt neoadjuvante") {
		if strings.Contains(t, "nao realizou radioterapia neoadjuvante") ||
			strings.Contains(t, "nao fez radioterapia neoadjuvante") {
			return IntVal(0)
		}
		return IntVal(1)
	}
	if strings.Contains(t, "neoadjuvante") && (strings.Contains(t, "radioterapia") || strings.Contains(t, "rt ")) {
		if strings.Contains(t, "nao") && strings.Contains(t, "radioterapia") {
			return IntVal(0)
		}
		return IntVal(1)
	}
	return IntVal(0)
}

// 0 = urgency/emergency, 1 = elective.
func deriveEletiva(d *Document, _ Result) Value {
	t := d.Norm
	if strings.Contains(t, "eletiva") {
		if strings.Contains(t, "nao eletiva") {
			return IntVal(0)
		}
		return IntVal(1)
	}
	if strings.Contains(t, "urgencia") || strings.Contains(t, "emergencia") {
		return IntVal(0)
	}
	return IntVal(1)
}

func derivePaliativa(d *Document, _ Result) Value {
	t := d.Norm
	if strings.Contains(t, "paliativa") || strings.Contains(t, "paliativo") {
		if strings.Contains(t, "nao") || strings.Contains(t, "sem") {
			return IntVal(0)
		}
		return IntVal(1)
	}
	return IntVal(0)
}
