package validator

import (
	"errors"
	"testing"

	playground "github.com/go-playground/validator/v10"
)

type basicInfoStub struct {
	Slug  string `json:"slug" validate:"required,slug"`
	Level string `json:"level" validate:"required,course_level"`
	Phone string `json:"phone" validate:"omitempty,phone"`
}

func TestValidateUsesJSONNames(t *testing.T) {
	err := Validate(basicInfoStub{Slug: "Go Basics", Level: "EXPERT"})
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var fieldErrs playground.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("expected validator errors, got %T", err)
	}
	fields := map[string]string{}
	for _, fe := range fieldErrs {
		fields[fe.Field()] = fe.Tag()
	}
	if fields["slug"] != "slug" || fields["level"] != "course_level" {
		t.Fatalf("unexpected field errors: %v", fields)
	}
}

func TestValidateAcceptsValidInput(t *testing.T) {
	if err := Validate(basicInfoStub{Slug: "go-basics-2", Level: "ALL_LEVELS", Phone: "+1 (555) 010-2000"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSanitizeHTMLStripsScripts(t *testing.T) {
	got := SanitizeHTML(`<p>Learn <b>Go</b></p><script>alert(1)</script>`)
	if got != "<p>Learn <b>Go</b></p>" {
		t.Fatalf("unexpected sanitized html %q", got)
	}
}

func TestValidateContentType(t *testing.T) {
	cases := []struct {
		contentType string
		allowed     []string
		want        bool
	}{
		{"image/png; charset=binary", ImageContentTypes, true},
		{"video/mp4", []string{"video/*"}, true},
		{"application/x-msdownload", DocumentContentTypes, false},
		{"", VideoContentTypes, false},
	}
	for _, tc := range cases {
		if got := ValidateContentType(tc.contentType, tc.allowed); got != tc.want {
			t.Fatalf("ValidateContentType(%q) = %v, want %v", tc.contentType, got, tc.want)
		}
	}
}

func TestValidateURL(t *testing.T) {
	if !ValidateURL("https://www.linkedin.com/in/someone") {
		t.Fatalf("expected https url to be valid")
	}
	if ValidateURL("javascript:alert(1)") || ValidateURL("linkedin.com/in/someone") {
		t.Fatalf("expected non-http urls to be rejected")
	}
}
