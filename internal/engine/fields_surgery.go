package engine

import (
	"regexp"
	"strconv"
	"strings"
)

// deriveCirurgiaRecidiva distinguishes surgery performed because of a
// recurrence from surgery merely discussed near recurrence mentions.
// Absent means the chart code for "not applicable" may apply.
func deriveCirurgiaRecidiva(d *Document, _ Result) Value {
	t := d.Norm
	if strings.Contains(t, "exentera") && strings.Contains(t, "recidiva") {
		return IntVal(1)
	}
	if strings.Contains(t, "cirurgia") && strings.Contains(t, "recidiva") {
		idx := strings.Index(t, "recidiva")
		ctx := d.window(idx, 50, 50)
		if strings.Contains(ctx, "por") || strings.Contains(ctx, "para") {
			return IntVal(1)
		}
		if strings.Contains(ctx, "nao") || strings.Contains(ctx, "sem") {
			return IntVal(0)
		}
		return IntVal(1)
	}
	return Absent()
}

var organKeywords = map[string][]string{
	"utero":        {"utero", "uterino", "histerectomia"},
	"vagina":       {"vagina", "vaginal"},
	"ovario":       {"ovario", "ovarico", "anexo", "salpingooforectomia"},
	"bexiga":       {"bexiga", "vesical"},
	"ureter":       {"ureter", "ureteral", "ureterectomia"},
	"prostata":     {"prostata", "prostatico"},
	"vesicula_sem": {"vesicula", "biliar", "colecistectomia"},
	"sacro":        {"sacro", "sacral"},
}

var resectionEvidence = []string{
	"ressecao", "exentera", "histerectomia", "salpingo", "ureterectomia",
	"envolvido", "invasao", "infiltracao", "aderencia", "lesao", "extensao",
	"serosa",
}

// organInvolved decides whether one organ was resected or involved.
// Preservation mentions override everything; bare mentions without
// surgical evidence count as not involved. Posterior exenteration
// normally spares the bladder, so the bladder needs an exenteration
// context without a preservation note before it counts.
func organInvolved(d *Document, organ string) int {
	t := d.Norm
	for _, kw := range organKeywords[organ] {
		idx := strings.Index(t, kw)
		if idx < 0 {
			continue
		}
		before := d.Norm[max(0, idx-150):idx]
		ctx := d.window(idx, 150, len(kw)+150)

		if strings.Contains(ctx, "preservacao") || strings.Contains(ctx, "preservado") || strings.Contains(ctx, "preserva") {
			return 0
		}
		neg := before
		if len(neg) > 40 {
			neg = neg[len(neg)-40:]
		}
		if strings.Contains(neg, "nao") || strings.Contains(neg, "sem") {
			continue
		}

		switch organ {
		case "utero", "ovario", "vagina":
			if strings.Contains(ctx, "histerectomia") || strings.Contains(ctx, "salpingo") || strings.Contains(ctx, "exentera") {
				return 1
			}
		}

		evidence := false
		for _, ev := range resectionEvidence {
			if strings.Contains(ctx, ev) {
				evidence = true
				break
			}
		}
		if !evidence {
			continue
		}
		if organ == "bexiga" {
			if strings.Contains(ctx, "exentera") && strings.Contains(ctx, "posterior") {
				return 1
			}
			continue
		}
		return 1
	}
	return 0
}

func organDerive(organ string) func(*Document, Result) Value {
	return func(d *Document, _ Result) Value {
		return IntVal(organInvolved(d, organ))
	}
}

func deriveBexigaTudo(d *Document, _ Result) Value {
	t := d.Norm
	if strings.Contains(t, "preservacao") && strings.Contains(t, "bexiga") {
		return IntVal(0)
	}
	if strings.Contains(t, "bexiga") && (strings.Contains(t, "total") || strings.Contains(t, "tudo")) {
		return IntVal(1)
	}
	return IntVal(0)
}

func deriveBexigaParte(d *Document, _ Result) Value {
	t := d.Norm
	if strings.Contains(t, "preservacao") && strings.Contains(t, "bexiga") {
		return IntVal(0)
	}
	if strings.Contains(t, "bexiga") && (strings.Contains(t, "parcial") || strings.Contains(t, "parte")) {
		return IntVal(1)
	}
	return IntVal(0)
}

var otherOrgans = []string{"peritonio", "peritoneal", "intestino", "ileo", "colon", "figado", "pancreas"}

var involvementEvidence = []string{"envolvido", "invasao", "infiltracao", "aderencia", "serosa", "extensao"}

// detectOtherOrgan looks for involvement of organs outside the declared
// set; ileum and peritoneum dominate in practice.
func detectOtherOrgan(d *Document) (string, bool) {
	t := d.Norm
	if strings.Contains(t, "serosa") && strings.Contains(t, "ileo") {
		if strings.Contains(t, "peritonio") || strings.Contains(t, "peritoneal") {
			return "ileo e peritonio", true
		}
		return "ileo", true
	}
	var found []string
	for _, org := range otherOrgans {
		idx := strings.Index(t, org)
		if idx < 0 {
			continue
		}
		ctx := d.window(idx, 150, 150)
		for _, ev := range involvementEvidence {
			if strings.Contains(ctx, ev) {
				found = append(found, org)
				break
			}
		}
	}
	if len(found) == 0 {
		return "", false
	}
	return strings.Join(found, " e "), true
}

func deriveOutroOrgao(d *Document, _ Result) Value {
	if _, ok := detectOtherOrgan(d); ok {
		return IntVal(1)
	}
	return Absent()
}

func deriveOutroOrgaoQual(d *Document, _ Result) Value {
	if qual, ok := detectOtherOrgan(d); ok {
		return TextVal(qual)
	}
	return Absent()
}

// deriveNOrgaos counts involved organs across the declared set plus the
// open-ended "other organ" slot. Zero involvement stays absent rather
// than asserting a count.
func deriveNOrgaos(d *Document, r Result) Value {
	count := 0
	for organ := range organKeywords {
		if v, ok := r[organ]; ok && v.Kind == KindInt && v.Int == 1 {
			count++
		}
	}
	if v, ok := r["outro_orgao"]; ok && v.Kind == KindInt && v.Int == 1 {
		count++
	}
	if count == 0 {
		return Absent()
	}
	return IntVal(count)
}

func deriveAmputacao(d *Document, _ Result) Value {
	t := d.Norm
	if strings.Contains(t, "amputacao") {
		if strings.Contains(t, "nao") || strings.Contains(t, "sem") {
			return IntVal(0)
		}
		return IntVal(1)
	}
	return IntVal(0)
}

// Total sigmoid resection.
func deriveRTS(d *Document, _ Result) Value {
	t := d.Norm
	if strings.Contains(t, "ressecao") && strings.Contains(t, "sigmoide") {
		idx := strings.Index(t, "sigmoide")
		if strings.Contains(d.window(idx, 100, 100), "total") {
			return IntVal(1)
		}
		return IntVal(0)
	}
	if strings.Contains(t, "retossigmoidectomia") {
		return IntVal(1)
	}
	return Absent()
}

// deriveColeTotal only counts a total colectomy tied to the index
// surgery: the mention must sit near a post-op marker or the anchor
// date, not in past history.
func deriveColeTotal(d *Document, _ Result) Value {
	t := d.Norm
	if !strings.Contains(t, "colectomia") || !strings.Contains(t, "total") {
		return IntVal(0)
	}
	idx := strings.Index(t, "colectomia")
	ctx := d.window(idx, 200, 200)
	if strings.Contains(ctx, "po") || strings.Contains(ctx, "cirurgia") {
		return IntVal(1)
	}
	for _, variant := range d.anchorVariants() {
		if strings.Contains(ctx, variant) {
			return IntVal(1)
		}
	}
	return IntVal(0)
}

func derivePosterior(d *Document, _ Result) Value {
	t := d.Norm
	if strings.Contains(t, "exentera") && strings.Contains(t, "posterior") {
		return IntVal(1)
	}
	if strings.Contains(t, "ressecao") && strings.Contains(t, "posterior") {
		return IntVal(1)
	}
	return IntVal(0)
}

func deriveTotal(d *Document, _ Result) Value {
	if strings.Contains(d.Norm, "ressecao") && strings.Contains(d.Norm, "total") {
		return IntVal(1)
	}
	return IntVal(0)
}

// Hereditary syndrome (Lynch/HNPCC).
func deriveSLE(d *Document, _ Result) Value {
	for _, term := range []string{"lynch", "hereditario", "hereditaria", "hnpcc", "mmr"} {
		if strings.Contains(d.Norm, term) {
			return IntVal(1)
		}
	}
	return IntVal(0)
}

func deriveRECPlastica(d *Document, _ Result) Value {
	t := d.Norm
	if strings.Contains(t, "reconstrucao") && (strings.Contains(t, "plastica") || strings.Contains(t, "gregoir")) {
		return IntVal(1)
	}
	return IntVal(0)
}

// Urinary reconstruction type, chart-coded:
// 0 briker, 1 duplo barril, 2 duplo barril ileal, 3 nefrostomia.
func deriveTipoREC(d *Document, _ Result) Value {
	t := d.Norm
	switch {
	case strings.Contains(t, "nefrostomia"):
		return TextVal("3")
	case strings.Contains(t, "duplo barril ileal"):
		return TextVal("2")
	case strings.Contains(t, "duplo barril") || strings.Contains(t, "duplo j"):
		return TextVal("1")
	case strings.Contains(t, "briker") || strings.Contains(t, "bricker"):
		return TextVal("0")
	}
	return Absent()
}

func deriveCHIntraOP(d *Document, _ Result) Value {
	t := d.Norm
	if strings.Contains(t, "quimio") && strings.Contains(t, "intra") && strings.Contains(t, "operat") {
		idx := strings.Index(t, "intra")
		if !strings.Contains(d.window(idx, 50, 50), "nao") {
			return IntVal(1)
		}
	}
	return IntVal(0)
}

var chNumREs = []*regexp.Regexp{
	regexp.MustCompile(`(\d+)\s+ciclos.*?qt`),
	regexp.MustCompile(`qt.*?(\d+)\s+ciclos`),
	regexp.MustCompile(`(\d+)\s+ciclos`),
}

func deriveCHNum(d *Document, _ Result) Value {
	for _, re := range chNumREs {
		if m := re.FindStringSubmatch(d.Norm); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= 50 {
				return IntVal(n)
			}
		}
	}
	return Absent()
}
