package domain

import (
	"testing"

	"golang.org/x/text/language"
)

func TestNegotiateLanguage(t *testing.T) {
	cases := []struct {
		accept, explicit string
		want             language.Tag
	}{
		{"", "", language.Spanish},
		{"en-US,en;q=0.9", "", language.English},
		{"es-MX,es;q=0.8,en;q=0.5", "", language.Spanish},
		{"fr-FR", "", language.Spanish},
		{"garbage;;;", "", language.Spanish},
		{"es", "en", language.English},
		{"en", "es-AR", language.Spanish},
		{"en", "not a tag", language.English},
	}
	for _, tc := range cases {
		if got := NegotiateLanguage(tc.accept, tc.explicit); got != tc.want {
			t.Fatalf("NegotiateLanguage(%q,%q)=%v; want %v", tc.accept, tc.explicit, got, tc.want)
		}
	}
}

func TestLoadCatalog(t *testing.T) {
	es := LoadCatalog(language.Spanish)
	if es.Language != "es" {
		t.Fatalf("language=%q", es.Language)
	}
	if len(es.Questions) != NumQuestions {
		t.Fatalf("got %d questions", len(es.Questions))
	}
	if es.Questions[0].Title != "Liderazgo y Dirección" || es.Questions[9].Title != "Satisfacción General" {
		t.Fatalf("unexpected titles %q / %q", es.Questions[0].Title, es.Questions[9].Title)
	}
	if es.Questions[4].Label != "P5" || es.Questions[4].Index != 4 {
		t.Fatalf("unexpected question 5 %#v", es.Questions[4])
	}
	if es.Scale.Min != 1 || es.Scale.Max != 10 || es.Scale.MinLabel != "Muy bajo" || es.Scale.MaxLabel != "Excelente" {
		t.Fatalf("unexpected scale %#v", es.Scale)
	}

	en := LoadCatalog(language.English)
	if en.Language != "en" || en.Questions[9].Title != "Overall Satisfaction" {
		t.Fatalf("unexpected english catalog %#v", en.Questions[9])
	}

	// Unsupported tags fall back to Spanish.
	if got := LoadCatalog(language.Japanese); got.Language != "es" {
		t.Fatalf("fallback language=%q", got.Language)
	}
}
