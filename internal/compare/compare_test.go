package compare

import "testing"

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"  ", ""},
		{"nan", ""},
		{"NaN", ""},
		{"None", ""},
		{"24", "24"},
		{"24.0", "24"},
		{"24,4", "24.4"},
		{"24.4", "24.4"},
		{"20/01/2017", "20/01/2017"},
		{"2017-01-20", "20/01/2017"},
		{"20-01-2017", "20/01/2017"},
		{"2017-01-20 00:00:00", "20/01/2017"},
		{"ADENOCA", "adenoca"},
		{"  Reto Baixo  ", "reto baixo"},
	}
	for _, tt := range tests {
		if got := NormalizeValue(tt.raw); got != tt.want {
			t.Errorf("NormalizeValue(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		predicted, expected string
		want                bool
	}{
		{"24", "24.0", true},
		{"24.4", "24,4", true},
		{"20/01/2017", "2017-01-20", true},
		{"ADENOCA", "adenoca", true},
		{"24.4", "24", false},
		{"", "", true},
		{"1", "2", false},
	}
	for _, tt := range tests {
		if got := Match(tt.predicted, tt.expected); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.predicted, tt.expected, got, tt.want)
		}
	}
}

func TestCompareRowSkipsEmptyTruth(t *testing.T) {
	fields := []string{"idade", "ASA", "IMC", "dt_obito", "fora_da_planilha"}
	predicted := map[string]string{
		"idade":    "50",
		"ASA":      "2",
		"IMC":      "24.4",
		"dt_obito": "",
	}
	truthRow := map[string]string{
		"idade":    "50",
		"ASA":      "3",
		"IMC":      "24,4",
		"dt_obito": "nan",
	}
	truth := func(field string) (string, bool) {
		v, ok := truthRow[field]
		return v, ok
	}

	report := CompareRow(fields, predicted, truth)
	if report.Total != 3 {
		t.Fatalf("Total = %d, want 3 (empty truth and missing column excluded)", report.Total)
	}
	if report.Correct != 2 {
		t.Errorf("Correct = %d, want 2", report.Correct)
	}
	if got := report.Accuracy(); got < 0.66 || got > 0.67 {
		t.Errorf("Accuracy = %f, want 2/3", got)
	}

	for _, fr := range report.Fields {
		if fr.Field == "ASA" && fr.Match {
			t.Error("ASA 2 vs 3 reported as a match")
		}
		if fr.Field == "IMC" && !fr.Match {
			t.Error("IMC 24.4 vs 24,4 reported as a miss")
		}
	}
}

func TestCompareRowEmpty(t *testing.T) {
	report := CompareRow(nil, nil, func(string) (string, bool) { return "", false })
	if report.Total != 0 || report.Accuracy() != 0 {
		t.Errorf("empty report = %+v, want zero totals", report)
	}
}

func TestColumnReportRanksWorstFirst(t *testing.T) {
	r := NewColumnReport()
	for i := 0; i < 4; i++ {
		r.Add("p", "bom", "1", "1")
	}
	r.Add("p1", "ruim", "1", "2")
	r.Add("p2", "ruim", "1", "2")
	r.Add("p3", "ruim", "2", "2")
	r.Add("p", "vazio", "1", "nan") // ignored

	cols := r.Columns()
	if len(cols) != 2 {
		t.Fatalf("got %d columns, want 2", len(cols))
	}
	if cols[0].Field != "ruim" {
		t.Errorf("worst column = %q, want ruim", cols[0].Field)
	}
	if cols[0].Correct != 1 || cols[0].Total != 3 {
		t.Errorf("ruim stats = %d/%d, want 1/3", cols[0].Correct, cols[0].Total)
	}
	if len(cols[0].Samples) != 2 {
		t.Errorf("ruim samples = %d, want 2", len(cols[0].Samples))
	}
	if cols[1].Field != "bom" || cols[1].Accuracy() != 1 {
		t.Errorf("best column = %+v, want bom at 100%%", cols[1])
	}
}

func TestColumnReportCapsSamples(t *testing.T) {
	r := NewColumnReport()
	for i := 0; i < 10; i++ {
		r.Add("p", "campo", "x", "y")
	}
	cols := r.Columns()
	if len(cols[0].Samples) != maxErrorSamples {
		t.Errorf("samples = %d, want %d", len(cols[0].Samples), maxErrorSamples)
	}
}
