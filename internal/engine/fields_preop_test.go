package engine

import (
	"testing"
)

func TestDeriveSexo(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Value
	}{
		{"labeled feminino", "Sexo: Feminino", IntVal(1)},
		{"labeled masculino", "sexo masculino", IntVal(2)},
		{"abbreviated", "Sexo: F", IntVal(1)},
		{"unlabeled fallback", "sexo do paciente nao consta. paciente feminino internada", IntVal(1)},
		{"no mention", "paciente internado ontem", Absent()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDocument([]string{tt.text})
			if got := deriveSexo(d, nil); got != tt.want {
				t.Errorf("deriveSexo = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGenerateIdadeFromBirthDate(t *testing.T) {
	d := NewDocument([]string{
		"Data Nascto 01/02/1967",
		"Data da cirurgia: 24/02/2017",
	})
	cands := generateIdade(d)
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
	if cands[0].Raw != "50" {
		t.Errorf("age = %q, want 50 (birthday already passed)", cands[0].Raw)
	}
	if cands[0].Score != ageBirthDateScore {
		t.Errorf("score = %d, want %d", cands[0].Score, ageBirthDateScore)
	}
}

func TestGenerateIdadeBirthdayNotYetReached(t *testing.T) {
	d := NewDocument([]string{
		"Data Nascto 01/06/1967",
		"Data da cirurgia: 24/02/2017",
	})
	cands := generateIdade(d)
	if len(cands) != 1 || cands[0].Raw != "49" {
		t.Fatalf("candidates = %+v, want single age 49", cands)
	}
}

func TestGenerateIdadeScoresBlocksByRegistroProximity(t *testing.T) {
	// The nascto date is an OCR misread of the registro date, so the
	// birth-date computation lands out of range and the header blocks
	// decide. The block whose registro date sits next to the surgery
	// must win over the stale one.
	d := NewDocument([]string{
		"Data da cirurgia: 24/02/2017",
		"Data Nascto 20/02/2017 50 anos Sexo F Dt Registro 20/02/2017",
		"Data Nascto 15/06/2010 43 anos Sexo F Dt Registro 15/06/2010",
	})
	cands := generateIdade(d)
	if len(cands) == 0 {
		t.Fatal("no candidates")
	}
	if cands[0].Raw != "50" {
		t.Errorf("top age = %q, want 50", cands[0].Raw)
	}
}

func TestGenerateIdadePenalizesRelatives(t *testing.T) {
	d := NewDocument([]string{
		"historia familiar: irmao falecido aos 70 anos",
		spaces(500),
		"paciente de 62 anos internado para cirurgia",
	})
	cands := generateIdade(d)
	if len(cands) < 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}
	if cands[0].Raw != "62" {
		t.Errorf("top age = %q, want 62", cands[0].Raw)
	}
	if cands[1].Score >= cands[0].Score {
		t.Errorf("relative mention score %d should trail %d", cands[1].Score, cands[0].Score)
	}
}

func TestDeriveLocalTumor(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Value
	}{
		{"direct site", "lesao em reto baixo", TextVal("reto baixo")},
		{"specific beats generic", "tumor de transicao retossigmoideana com extensao a sigmoide", TextVal("transicao retossigmoideana")},
		{"distance low", "tumor a 3 cm da borda anal", TextVal("reto baixo")},
		{"distance mid", "lesao a 8 cm da borda anal", TextVal("reto medio")},
		{"distance high", "neoplasia a 12 cm da borda anal", TextVal("reto alto")},
		{"nothing", "colonoscopia sem alteracoes", Absent()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDocument([]string{tt.text})
			if got := deriveLocalTumor(d, nil); got != tt.want {
				t.Errorf("deriveLocalTumor = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseASA(t *testing.T) {
	tests := []struct {
		raw  string
		want Value
		ok   bool
	}{
		{"2", IntVal(2), true},
		{"II", IntVal(2), true},
		{"iv", IntVal(4), true},
		{"5", Absent(), false},
		{"x", Absent(), false},
	}
	for _, tt := range tests {
		got, ok := parseASA(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseASA(%q) = %+v, %v; want %+v, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestGenerateASAPrefersPreopSection(t *testing.T) {
	d := NewDocument([]string{
		"avaliacao pre-operatoria: paciente higido ASAS 2 liberado para cirurgia",
		spaces(600),
		"plantao noturno ASA 3 sem relacao",
	})
	cands := generateASA(d)
	if len(cands) == 0 {
		t.Fatal("no candidates")
	}
	if v, ok := parseASA(cands[0].Raw); !ok || v != IntVal(2) {
		t.Errorf("top ASA = %q, want 2", cands[0].Raw)
	}
}

func TestGenerateECOG(t *testing.T) {
	t.Run("ocr letter o short circuit", func(t *testing.T) {
		d := NewDocument([]string{"ECOG O Completamente ativo"})
		cands := generateECOG(d)
		if len(cands) != 1 {
			t.Fatalf("got %d candidates, want 1", len(cands))
		}
		if v, ok := parseECOG(cands[0].Raw); !ok || v != IntVal(0) {
			t.Errorf("ECOG = %q, want 0", cands[0].Raw)
		}
	})
	t.Run("plain digit", func(t *testing.T) {
		d := NewDocument([]string{"performance status ecog 1 na avaliacao"})
		cands := generateECOG(d)
		if len(cands) == 0 {
			t.Fatal("no candidates")
		}
		if v, ok := parseECOG(cands[0].Raw); !ok || v != IntVal(1) {
			t.Errorf("ECOG = %q, want 1", cands[0].Raw)
		}
	})
}

func TestGenerateKPS(t *testing.T) {
	d := NewDocument([]string{"avaliacao karnofsky KPS 90 pre-operatoria"})
	cands := generateKPS(d)
	if len(cands) == 0 {
		t.Fatal("no candidates")
	}
	if cands[0].Raw != "90" {
		t.Errorf("KPS = %q, want 90", cands[0].Raw)
	}
}

func TestGenerateIMCDirect(t *testing.T) {
	d := NewDocument([]string{"avaliacao pre-anestesica. PO (20/01/2017). IMC: 24,4"})
	cands := generateIMC(d)
	if len(cands) == 0 {
		t.Fatal("no candidates")
	}
	if cands[0].Raw != "24.4" {
		t.Errorf("IMC = %q, want 24.4", cands[0].Raw)
	}
}

func TestGenerateIMCFallbackFromWeightHeight(t *testing.T) {
	d := NewDocument([]string{"exame fisico: peso 80 altura 1.79"})
	cands := generateIMC(d)
	if len(cands) != 1 {
		t.Fatalf("got %d candidates, want 1", len(cands))
	}
	if cands[0].Raw != "25" {
		t.Errorf("computed IMC = %q, want 25", cands[0].Raw)
	}
}

func TestGenerateIMCRejectsImplausible(t *testing.T) {
	d := NewDocument([]string{"IMC 77 anotado por engano"})
	if cands := generateIMC(d); len(cands) != 0 {
		t.Errorf("got %d candidates, want none", len(cands))
	}
}

func TestDeriveBinaryPreopFlags(t *testing.T) {
	tests := []struct {
		name   string
		derive func(*Document, Result) Value
		text   string
		want   Value
	}{
		{"qrt neo done", deriveQRTNeo, "realizou radioterapia neoadjuvante em 2016", IntVal(1)},
		{"qrt neo negated", deriveQRTNeo, "nao realizou radioterapia neoadjuvante", IntVal(0)},
		{"qrt neo unmentioned", deriveQRTNeo, "cirurgia eletiva", IntVal(0)},
		{"eletiva default", deriveEletiva, "cirurgia realizada conforme planejado", IntVal(1)},
		{"urgencia", deriveEletiva, "operado de urgencia por obstrucao", IntVal(0)},
		{"paliativa", derivePaliativa, "proposta paliativa discutida", IntVal(1)},
		{"nao paliativa", derivePaliativa, "cirurgia curativa realizada", IntVal(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDocument([]string{tt.text})
			if got := tt.derive(d, nil); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
