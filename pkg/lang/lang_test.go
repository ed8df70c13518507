package lang

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"en":    "en",
		" EN ":  "en",
		"pt_br": "pt-BR",
	}
	for input, want := range cases {
		got, err := Normalize(input)
		if err != nil {
			t.Fatalf("Normalize(%q) returned error: %v", input, err)
		}
		if got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", input, got, want)
		}
	}

	for _, input := range []string{"", "English", "12"} {
		if _, err := Normalize(input); err == nil {
			t.Fatalf("expected %q to be rejected", input)
		}
	}
}

func TestNormalizeList(t *testing.T) {
	got, err := NormalizeList([]string{"en", "", "EN", "de-de"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "en" || got[1] != "de-DE" {
		t.Fatalf("unexpected list %v", got)
	}
}

func TestName(t *testing.T) {
	if got := Name("de"); got != "German" {
		t.Fatalf("expected German, got %q", got)
	}
	if got := Name("??"); got != "??" {
		t.Fatalf("expected the code back, got %q", got)
	}
}
