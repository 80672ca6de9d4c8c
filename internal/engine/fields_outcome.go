package engine

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const maxStayDays = 365

var diasUTIREs = []*regexp.Regexp{
	regexp.MustCompile(`dias\s+uti\s*[:]?\s*(\d+)`),
	regexp.MustCompile(`uti\s*[:]?\s*(\d+)\s+dias`),
	regexp.MustCompile(`permanencia.*?uti.*?(\d+)\s+dias`),
}

func deriveDiasUTI(d *Document, _ Result) Value {
	for _, re := range diasUTIREs {
		if m := re.FindStringSubmatch(d.Norm); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n >= 0 && n <= maxStayDays {
				return IntVal(n)
			}
		}
	}
	return Absent()
}

var (
	entradaRE = regexp.MustCompile(`entrada[:\s]+(\d{2}/\d{2}/\d{4})`)
	altaRE    = regexp.MustCompile(`alta[:\s]+(\d{2}/\d{2}/\d{4})`)

	diasInternacaoREs = []*regexp.Regexp{
		regexp.MustCompile(`dias\s+internacao\s*[:]?\s*(\d+)`),
		regexp.MustCompile(`internacao\s*[:]?\s*(\d+)\s+dias`),
		regexp.MustCompile(`permanencia.*?(\d+)\s+dias`),
	}
)

// deriveDiasInternacao prefers the admission/discharge date difference
// over stated day counts.
func deriveDiasInternacao(d *Document, _ Result) Value {
	me := entradaRE.FindStringSubmatch(d.Norm)
	ma := altaRE.FindStringSubmatch(d.Norm)
	if me != nil && ma != nil {
		in, okIn := parseRecordDate(me[1])
		out, okOut := parseRecordDate(ma[1])
		if okIn && okOut {
			days := int(out.Sub(in).Hours() / 24)
			if days >= 0 && days <= maxStayDays {
				return IntVal(days)
			}
		}
	}
	for _, re := range diasInternacaoREs {
		if m := re.FindStringSubmatch(d.Norm); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n >= 0 && n <= maxStayDays {
				return IntVal(n)
			}
		}
	}
	return Absent()
}

var dtAltaREs = []*regexp.Regexp{
	regexp.MustCompile(`dt\s*alta\s*[:]?\s*(\d{2}[/-]\d{2}[/-]\d{4})`),
	regexp.MustCompile(`data\s+alta\s*[:]?\s*(\d{2}[/-]\d{2}[/-]\d{4})`),
	regexp.MustCompile(`alta\s+em\s+(\d{2}/\d{2}/\d{4})`),
}

func deriveDtAlta(d *Document, _ Result) Value {
	for _, re := range dtAltaREs {
		if m := re.FindStringSubmatch(d.Norm); m != nil {
			return DateVal(m[1])
		}
	}
	return Absent()
}

var complicationKinds = []string{"fistula", "deiscencia", "infeccao", "sangramento", "obstrucao"}

func deriveComplicacao(d *Document, _ Result) Value {
	t := d.Norm
	if strings.Contains(t, "sem complicacao") || strings.Contains(t, "nao complicacao") {
		return IntVal(0)
	}
	idx := strings.Index(t, "complicacao")
	if idx < 0 {
		return IntVal(0)
	}
	ctx := d.window(idx, 100, 100)
	for _, kind := range complicationKinds {
		if strings.Contains(ctx, kind) {
			return IntVal(1)
		}
	}
	if strings.Contains(d.window(idx, 50, 0), "sem") {
		return IntVal(0)
	}
	return IntVal(1)
}

func deriveComplicacaoQual(d *Document, _ Result) Value {
	for _, kind := range complicationKinds {
		if strings.Contains(d.Norm, kind) {
			return TextVal(kind)
		}
	}
	return Absent()
}

var clavienRE = regexp.MustCompile(`clavien\s*[:]?\s*([0-5])`)

func deriveClavien(d *Document, _ Result) Value {
	if m := clavienRE.FindStringSubmatch(d.Norm); m != nil {
		return TextVal(m[1])
	}
	return Absent()
}

func deriveClavienV2(d *Document, r Result) Value {
	v, ok := r["Clavien"]
	if !ok || v.Kind != KindText {
		return Absent()
	}
	n, err := strconv.Atoi(v.Text)
	if err != nil {
		return Absent()
	}
	return IntVal(n)
}

// Admission headers repeat per hospital stay; more than one block means
// the patient came back.
var admissionBlockRE = regexp.MustCompile(`(?s)n[o°]?\s*atendimento[:\s]+\d+.*?entrada[:\s]+\d{2}/\d{2}/\d{4}`)

func deriveReinternacao(d *Document, _ Result) Value {
	if len(admissionBlockRE.FindAllStringIndex(d.Norm, -1)) > 1 {
		return IntVal(1)
	}
	if strings.Contains(d.Norm, "reinternacao") {
		return IntVal(1)
	}
	return IntVal(0)
}

var dataReinternacaoREs = []*regexp.Regexp{
	regexp.MustCompile(`data\s+reinternacao\s*[:]?\s*(\d{2}[/-]\d{2}[/-]\d{4})`),
	regexp.MustCompile(`reinternacao\s+em\s+(\d{2}/\d{2}/\d{4})`),
}

func deriveDataReinternacao(d *Document, _ Result) Value {
	for _, re := range dataReinternacaoREs {
		if m := re.FindStringSubmatch(d.Norm); m != nil {
			return DateVal(m[1])
		}
	}
	return Absent()
}

var readmissionReasons = []string{"itu", "infeccao", "fistula", "obstrucao", "sangramento"}

func deriveMotivoReinternacao(d *Document, _ Result) Value {
	if !strings.Contains(d.Norm, "reinternacao") {
		return Absent()
	}
	for _, reason := range readmissionReasons {
		if strings.Contains(d.Norm, reason) {
			return TextVal(reason)
		}
	}
	return Absent()
}

var surgeryDateRE = regexp.MustCompile(`(?:po|cirurgia|operacao).*?(\d{2}/\d{2}/\d{4})`)

// deriveReOp90Dias flags a reoperation within 90 days: either two
// surgery-context dates at most 90 days apart, or an explicit mention.
func deriveReOp90Dias(d *Document, _ Result) Value {
	var dates []time.Time
	for _, m := range surgeryDateRE.FindAllStringSubmatch(d.Norm, -1) {
		if t, ok := parseRecordDate(m[1]); ok {
			dates = append(dates, t)
		}
	}
	if len(dates) > 1 {
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		for i := 0; i < len(dates)-1; i++ {
			diff := int(dates[i+1].Sub(dates[i]).Hours() / 24)
			if diff > 0 && diff <= 90 {
				return IntVal(1)
			}
		}
	}
	if strings.Contains(d.Norm, "reoperacao") || strings.Contains(d.Norm, "re-op") {
		return IntVal(1)
	}
	return IntVal(0)
}

func deriveObito90Dias(d *Document, _ Result) Value {
	if strings.Contains(d.Norm, "obito") {
		return IntVal(1)
	}
	return IntVal(0)
}
