package certgen

import (
	"errors"
	"testing"
)

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		input any
		want  string
	}{
		{input: "A+1 ", want: "A1"},
		{input: "ID+001", want: "ID001"},
		{input: "  +X+ ", want: "X"},
		{input: 12.0, want: "12"},
		{input: 1.5, want: "1.5"},
		{input: true, want: "True"},
		{input: "a b", want: "a b"},
	}

	for _, tc := range tests {
		if got := SanitizeIdentifier(tc.input); got != tc.want {
			t.Fatalf("SanitizeIdentifier(%#v): expected %q, got %q", tc.input, tc.want, got)
		}
	}
}

func TestSanitizeIdentifier_Deterministic(t *testing.T) {
	if OutputFilename(SanitizeIdentifier("ID+001"), FormatPDF) != OutputFilename(SanitizeIdentifier("ID+001"), FormatPDF) {
		t.Fatalf("expected identical filenames for identical identifiers")
	}
	if got := OutputFilename("report.pdf", FormatPDF); got != "report.pdf.pdf" {
		t.Fatalf("expected extension to always be appended, got %q", got)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input any
		want  string
	}{
		{input: "jane doe", want: "Jane Doe"},
		{input: "JOHN SMITH", want: "John Smith"},
		{input: "  ada  ", want: "Ada"},
		{input: nil, want: " "},
		{input: "   ", want: " "},
		{input: 42.0, want: "42"},
		{input: "o'neil", want: "O'Neil"},
		{input: "d’arcy", want: "D’Arcy"},
		{input: "mary-jane", want: "Mary-Jane"},
		{input: "3rd place", want: "3Rd Place"},
		{input: "'ada'", want: "'Ada'"},
		{input: true, want: "True"},
	}

	for _, tc := range tests {
		if got := DisplayName(tc.input); got != tc.want {
			t.Fatalf("DisplayName(%#v): expected %q, got %q", tc.input, tc.want, got)
		}
	}
}

func TestIsBlank(t *testing.T) {
	tests := []struct {
		input any
		want  bool
	}{
		{input: nil, want: true},
		{input: "", want: true},
		{input: 0.0, want: true},
		{input: 0, want: true},
		{input: false, want: true},
		{input: " ", want: false},
		{input: "0", want: false},
		{input: 7.0, want: false},
		{input: true, want: false},
	}

	for _, tc := range tests {
		if got := IsBlank(tc.input); got != tc.want {
			t.Fatalf("IsBlank(%#v): expected %v, got %v", tc.input, tc.want, got)
		}
	}
}

func TestProgressMessages(t *testing.T) {
	if got := ProgressMessage(7.0, "jane doe"); got != "Processing: 7 -> jane doe" {
		t.Fatalf("unexpected progress line %q", got)
	}
	if got := ProgressMessage("A1", nil); got != "Processing: A1 -> " {
		t.Fatalf("unexpected progress line %q", got)
	}
	if got := CompletedMessage(3); got != "Completed. Generated 3 certificates." {
		t.Fatalf("unexpected completion line %q", got)
	}
	if got := ErrorMessage(errors.New("boom")); got != "Error: boom" {
		t.Fatalf("unexpected error line %q", got)
	}
}
