package textnorm

import "testing"

func TestNormalize_StripsAccentsAndCase(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"accents", "Avaliação Pré-Operatória", "avaliacao pre-operatoria"},
		{"cedilla", "Internação em CIRURGIA", "internacao em cirurgia"},
		{"crlf", "linha um\r\nlinha dois\rlinha tres", "linha um\nlinha dois\nlinha tres"},
		{"mixed", "Exenteração Pélvica POSTERIOR", "exenteracao pelvica posterior"},
		{"empty", "", ""},
		{"plain", "asa 2", "asa 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Data da Cirurgia: 20/01/2017",
		"Órgãos envolvidos: útero, bexiga",
		"ECOG 0 Completamente ativo\r\n",
		"ASAS 3!! KP5 90",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestNormalize_PreservesDigitsAndPunctuation(t *testing.T) {
	in := "PO (20/01/2017) IMC: 24,4"
	want := "po (20/01/2017) imc: 24,4"
	if got := Normalize(in); got != want {
		t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
	}
}
