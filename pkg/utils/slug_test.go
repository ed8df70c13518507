package utils

import "testing"

func TestGenerateSlug(t *testing.T) {
	cases := map[string]string{
		"Go for Beginners":        "go-for-beginners",
		"  Crème brûlée 101!  ":   "creme-brulee-101",
		"REST & gRPC -- in depth": "rest-grpc-in-depth",
		"---":                     "",
	}
	for input, want := range cases {
		if got := GenerateSlug(input); got != want {
			t.Fatalf("GenerateSlug(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestSuggestSlug(t *testing.T) {
	used := map[string]bool{"go-basics-2": true}
	got, err := SuggestSlug("Go Basics", func(s string) (bool, error) { return used[s], nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "go-basics-3" {
		t.Fatalf("expected go-basics-3, got %q", got)
	}
}
