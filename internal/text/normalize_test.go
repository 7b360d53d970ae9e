package text

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "HOLA", "hola"},
		{"accents stripped", "Catálogo", "catalogo"},
		{"question marks dropped", "¿Catálogo de Productos?", "catalogo de productos"},
		{"emoji dropped", "Catálogo de Productos 💊", "catalogo de productos"},
		{"whitespace collapsed", "  energía   y  vitalidad  ", "energia y vitalidad"},
		{"enye folded like accents", "sueño", "sueno"},
		{"digits preserved", "pedido 12345", "pedido 12345"},
		{"empty", "", ""},
		{"only punctuation", "¡¿?!...", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestContainsWord(t *testing.T) {
	if !ContainsWord("Quiero ver el CATÁLOGO ahora", "catalogo") {
		t.Error("expected accent-insensitive substring match")
	}
	if ContainsWord("quiero un cupón", "catalogo") {
		t.Error("unexpected match")
	}
}
