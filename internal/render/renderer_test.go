package render

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Transistors bipolaires", "transistors_bipolaires"},
		{"Convertisseurs A/N", "convertisseurs_a_n"},
		{"  Théorème de Thévenin  ", "théorème_de_thévenin"},
		{"???", ""},
		{"", ""},
		{"Filtres --- actifs!!", "filtres_actifs"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSlugifyTruncates(t *testing.T) {
	long := "un sujet particulièrement long qui dépasse largement la limite de quarante caractères"
	slug := Slugify(long)
	if len([]rune(slug)) > maxSlugLen {
		t.Errorf("slug too long: %d runes", len([]rune(slug)))
	}
}

func TestPDFFileName(t *testing.T) {
	if got := PDFFileName("Diodes Zener"); got != "fiche_diodes_zener.pdf" {
		t.Errorf("PDFFileName = %q", got)
	}
	if got := PDFFileName("???"); got != "fiche.pdf" {
		t.Errorf("PDFFileName fallback = %q", got)
	}
}
