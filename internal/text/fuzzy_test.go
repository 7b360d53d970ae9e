package text

import "testing"

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"equal", "catalogo", "catalogo", 1},
		{"both empty", "", "", 1},
		{"completely different length 4", "abcd", "wxyz", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); got != tt.want {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}

	// One substitution in a 8-rune word: 1 - 1/8.
	if got := Similarity("catalogo", "catalogi"); got <= 0.8 {
		t.Errorf("near-identical words should clear 0.8, got %v", got)
	}
}

func TestClosestMatch(t *testing.T) {
	options := []string{
		"Catálogo de Productos 💊",
		"Ayuda Personalizada de Suplementos 💡",
		"Dudas sobre mis pedidos 📦",
	}

	got, ok := ClosestMatch("catalogo de productoss", options, 0.8)
	if !ok || got != options[0] {
		t.Fatalf("ClosestMatch = %q, %v; want %q, true", got, ok, options[0])
	}

	if _, ok := ClosestMatch("quiero dormir mejor", options, 0.8); ok {
		t.Error("unrelated input should not clear the cutoff")
	}

	if _, ok := ClosestMatch("catalogo", nil, 0.8); ok {
		t.Error("no candidates should report no match")
	}
}
