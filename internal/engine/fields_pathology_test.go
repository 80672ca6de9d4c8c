package engine

import (
	"strings"
	"testing"
)

func TestDeriveHistologia(t *testing.T) {
	tests := []struct {
		text string
		want Value
	}{
		{"adenocarcinoma moderadamente diferenciado", TextVal("ADENOCA")},
		{"tumor carcinoide de reto", TextVal("CARCINOIDE")},
		{"compativel com gist", TextVal("GIST")},
		{"biopsia inconclusiva", Absent()},
	}
	for _, tt := range tests {
		d := NewDocument([]string{tt.text})
		if got := deriveHistologia(d, nil); got != tt.want {
			t.Errorf("deriveHistologia(%q) = %+v, want %+v", tt.text, got, tt.want)
		}
	}
}

func TestGenerateAP(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"prefixed triplet", "laudo ap: pt3 pn1 pm0", "pT3 pN1 pM0"},
		{"bare triplet", "estadiamento t3 n0 m0", "T3 N0 M0"},
		{"substage letters", "pt4a pn2b pm1", "pT4A pN2B pM1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDocument([]string{tt.text})
			cands := generateAP(d)
			if len(cands) != 1 {
				t.Fatalf("got %d candidates, want 1", len(cands))
			}
			if cands[0].Raw != tt.want {
				t.Errorf("AP = %q, want %q", cands[0].Raw, tt.want)
			}
		})
	}
	t.Run("no triplet", func(t *testing.T) {
		d := NewDocument([]string{"laudo sem estadiamento"})
		if cands := generateAP(d); len(cands) != 0 {
			t.Errorf("got %d candidates, want none", len(cands))
		}
	})
}

func TestDeriveEstadiamento(t *testing.T) {
	tests := []struct {
		name string
		text string
		r    Result
		want Value
	}{
		{"roman stage", "estadio iii da doenca", nil, IntVal(2)},
		{"roman iv", "estadio iv", nil, IntVal(3)},
		{"digit stage", "estadio 2", nil, IntVal(2)},
		{"fallback t4 n1", "laudo anatomopatologico", Result{"AP": TextVal("pT4 pN1 pM0")}, IntVal(3)},
		{"fallback t3 n0", "laudo anatomopatologico", Result{"AP": TextVal("T3 N0 M0")}, IntVal(2)},
		{"nothing", "laudo anatomopatologico", nil, Absent()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDocument([]string{tt.text})
			if got := deriveEstadiamento(d, tt.r); got != tt.want {
				t.Errorf("deriveEstadiamento = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDeriveN(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Value
	}{
		{"spelled ratio", "neoplasia em 2 de 15 linfonodos", TextVal("2/15")},
		{"slash before linfonodos", "metastase em 3/12 linfonodos dissecados", TextVal("3/12")},
		{"ratio after linfonodos", "linfonodos examinados: 0/18", TextVal("0/18")},
		{"bare ratio without node context", "tomar 1/2 comprimido ao dia", Absent()},
		{"numerator above denominator", "neoplasia em 20 de 15 linfonodos", Absent()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDocument([]string{tt.text})
			if got := deriveN(d, nil); got != tt.want {
				t.Errorf("deriveN = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDeriveNA(t *testing.T) {
	d := NewDocument([]string{"irrelevante"})
	if got := deriveNA(d, Result{"N": TextVal("2/15")}); got != IntVal(2) {
		t.Errorf("deriveNA = %+v, want 2", got)
	}
	if got := deriveNA(d, Result{}); got != Absent() {
		t.Errorf("deriveNA without ratio = %+v, want absent", got)
	}
}

func TestDeriveInvasao(t *testing.T) {
	d := NewDocument([]string{"peca cirurgica com invasao da serosa e do ileo adjacente"})
	got := deriveInvasao(d, nil)
	if got.Kind != KindText {
		t.Fatalf("deriveInvasao = %+v, want text", got)
	}
	if !strings.Contains(got.Text, "invasao") || !strings.Contains(got.Text, "serosa") {
		t.Errorf("description %q should cover the invasion phrase", got.Text)
	}

	d = NewDocument([]string{"peca sem alteracoes"})
	if got := deriveInvasao(d, nil); got != Absent() {
		t.Errorf("deriveInvasao without phrase = %+v, want absent", got)
	}
}

func TestDeriveR0R1R2(t *testing.T) {
	tests := []struct {
		text string
		want Value
	}{
		{"margens cirurgicas livres", TextVal("R0")},
		{"ressecao r1 por margem comprometida", TextVal("R1")},
		{"laudo sem margens descritas", Absent()},
	}
	for _, tt := range tests {
		d := NewDocument([]string{tt.text})
		if got := deriveR0R1R2(d, nil); got != tt.want {
			t.Errorf("deriveR0R1R2(%q) = %+v, want %+v", tt.text, got, tt.want)
		}
	}
}

func TestDeriveR0R1R2V2(t *testing.T) {
	d := NewDocument([]string{"irrelevante"})
	if got := deriveR0R1R2V2(d, Result{"R0_R1_R2": TextVal("R1")}); got != IntVal(1) {
		t.Errorf("deriveR0R1R2V2 = %+v, want 1", got)
	}
	if got := deriveR0R1R2V2(d, Result{}); got != Absent() {
		t.Errorf("deriveR0R1R2V2 without source = %+v, want absent", got)
	}
}

func TestDeriveQTAdjuvante(t *testing.T) {
	t.Run("given", func(t *testing.T) {
		d := NewDocument([]string{"iniciada qt adjuvante com capecitabina"})
		if got := deriveQTAdjuvante(d, nil); got != IntVal(1) {
			t.Errorf("deriveQTAdjuvante = %+v, want 1", got)
		}
	})
	t.Run("negated upstream", func(t *testing.T) {
		d := NewDocument([]string{"nao" + spaces(60) + "qt adjuvante"})
		if got := deriveQTAdjuvante(d, nil); got != IntVal(0) {
			t.Errorf("deriveQTAdjuvante = %+v, want 0", got)
		}
	})
	t.Run("not discussed", func(t *testing.T) {
		d := NewDocument([]string{"seguimento ambulatorial"})
		if got := deriveQTAdjuvante(d, nil); got != Absent() {
			t.Errorf("deriveQTAdjuvante = %+v, want absent", got)
		}
	})
}

func TestDeriveRecidivaChain(t *testing.T) {
	d := NewDocument([]string{"recidiva na pelve confirmada por imagem em 10/05/2018"})
	if got := deriveRecidiva(d, nil); got != IntVal(1) {
		t.Errorf("deriveRecidiva = %+v, want 1", got)
	}
	site := deriveRecidivaLocal(d, nil)
	if site != TextVal("PELVE") {
		t.Errorf("deriveRecidivaLocal = %+v, want PELVE", site)
	}
	if got := deriveRecidivaLocalV2(d, Result{"recidiva_local": site}); got != IntVal(1) {
		t.Errorf("deriveRecidivaLocalV2 = %+v, want 1", got)
	}
	if got := deriveDtRecidiva(d, nil); got != DateVal("10/05/2018") {
		t.Errorf("deriveDtRecidiva = %+v, want 10/05/2018", got)
	}

	clean := NewDocument([]string{"sem recidiva ate a ultima consulta"})
	if got := deriveRecidiva(clean, nil); got != IntVal(0) {
		t.Errorf("deriveRecidiva negated = %+v, want 0", got)
	}
	if got := deriveRecidivaLocalV2(clean, Result{"recidiva_local": Absent()}); got != IntVal(0) {
		t.Errorf("deriveRecidivaLocalV2 without site = %+v, want 0", got)
	}
}

func TestDeriveObitoChain(t *testing.T) {
	d := NewDocument([]string{"obito em 10/02/2019 por progressao de doenca"})
	if got := deriveObito(d, nil); got != IntVal(1) {
		t.Errorf("deriveObito = %+v, want 1", got)
	}
	if got := deriveDtObito(d, nil); got != DateVal("10/02/2019") {
		t.Errorf("deriveDtObito = %+v, want 10/02/2019", got)
	}
	if got := deriveObitoMotivo(d, nil); got != TextVal("doenca") {
		t.Errorf("deriveObitoMotivo = %+v, want doenca", got)
	}

	alive := NewDocument([]string{"segue em acompanhamento"})
	if got := deriveObito(alive, nil); got != IntVal(0) {
		t.Errorf("deriveObito alive = %+v, want 0", got)
	}
	if got := deriveObitoMotivo(alive, nil); got != Absent() {
		t.Errorf("deriveObitoMotivo alive = %+v, want absent", got)
	}
}

func TestDeriveUltConsulta(t *testing.T) {
	d := NewDocument([]string{"ultima consulta: 12/12/2019 sem queixas"})
	if got := deriveUltConsulta(d, nil); got != DateVal("12/12/2019") {
		t.Errorf("deriveUltConsulta = %+v, want 12/12/2019", got)
	}
}

func TestDeriveAbsent(t *testing.T) {
	if got := deriveAbsent(nil, nil); got != Absent() {
		t.Errorf("deriveAbsent = %+v, want absent", got)
	}
}
