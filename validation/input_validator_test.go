package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateInput_Valid(t *testing.T) {
	validator := NewInputValidator(20, 1024)

	validInputs := []string{
		"Amoxicillin",
		"amoxicillin 500mg",
		"Co-amoxiclav",
		"Paracetamol+Caffeine",
		"Doliprane 1000 mg",
		"Ibuprofène",
		"L'Oréal",
		"Hydrocortisone 1%",
		"Vitamin B12",
		"Salbutamol 100mcg/dose",
		"acide acétylsalicylique",
	}

	for _, input := range validInputs {
		t.Run(input, func(t *testing.T) {
			if err := validator.ValidateInput(input); err != nil {
				t.Errorf("Expected %q to be valid, got: %v", input, err)
			}
		})
	}
}

func TestValidateInput_Invalid(t *testing.T) {
	validator := NewInputValidator(20, 1024)

	testCases := []struct {
		name     string
		input    string
		contains string
	}{
		{"empty", "", "cannot be empty"},
		{"whitespace only", "   ", "cannot be empty"},
		{"too short", "a", "too short"},
		{"too long", strings.Repeat("ab", 51), "too long"},
		{"too many words", "one two three four five six seven eight nine", "too complex"},
		{"script tag", "<script>alert(1)</script>", "dangerous"},
		{"sql injection", "aspirin' or 1=1", "dangerous"},
		{"union select", "x union select password", "dangerous"},
		{"path traversal", "../etc/passwd", "dangerous"},
		{"command substitution", "$(rm -rf)", "dangerous"},
		{"null byte", "aspirin\x00", "invalid characters"},
		{"special chars only", "!@#$", "invalid characters"},
		{"cyrillic", "аспирин", "invalid characters"},
		{"repetition", "aaaaaaaaaaaa", "repetition"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.ValidateInput(tc.input)
			if err == nil {
				t.Fatalf("Expected error for %q", tc.input)
			}
			if !strings.Contains(err.Error(), tc.contains) {
				t.Errorf("Expected error containing %q, got %q", tc.contains, err.Error())
			}
		})
	}
}

func TestValidateNames(t *testing.T) {
	validator := NewInputValidator(3, 1024)

	names, err := validator.ValidateNames([]string{" Amoxicillin ", "", "  ", "Omeprazole"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(names) != 2 || names[0] != "Amoxicillin" || names[1] != "Omeprazole" {
		t.Errorf("Expected trimmed names without blanks, got %q", names)
	}

	names, err = validator.ValidateNames(nil)
	if err != nil {
		t.Errorf("Empty list should not be an error, got: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("Expected no names, got %q", names)
	}

	if _, err := validator.ValidateNames([]string{"a1", "b2", "c3", "d4"}); err == nil || !strings.Contains(err.Error(), "too many") {
		t.Errorf("Expected too many names error, got: %v", err)
	}

	_, err = validator.ValidateNames([]string{"Amoxicillin", "<script>"})
	if err == nil || !strings.Contains(err.Error(), `"<script>"`) {
		t.Errorf("Expected error naming the invalid entry, got: %v", err)
	}
}

func TestValidateUpload(t *testing.T) {
	validator := NewInputValidator(20, 1000)

	testCases := []struct {
		name     string
		filename string
		mimeType string
		size     int64
		wantErr  bool
	}{
		{"pdf", "rx.pdf", "application/pdf", 500, false},
		{"jpeg", "scan.jpg", "image/jpeg", 1000, false},
		{"text with charset", "rx.txt", "text/plain; charset=utf-8", 10, false},
		{"upper case type", "scan.PNG", "IMAGE/PNG", 10, false},
		{"no filename", "", "text/plain", 10, false},
		{"empty file", "rx.pdf", "application/pdf", 0, true},
		{"too large", "rx.pdf", "application/pdf", 1001, true},
		{"unsupported type", "rx.exe", "application/octet-stream", 10, true},
		{"html", "rx.html", "text/html", 10, true},
		{"path in name", "../../rx.pdf", "application/pdf", 10, true},
		{"long name", strings.Repeat("a", 256) + ".pdf", "application/pdf", 10, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validator.ValidateUpload(tc.filename, tc.mimeType, tc.size)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateUpload(%q, %q, %d) error = %v, wantErr %v", tc.filename, tc.mimeType, tc.size, err, tc.wantErr)
			}
		})
	}

	err := validator.ValidateUpload("rx.pdf", "application/pdf", 5000)
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("Expected ErrFileTooLarge, got: %v", err)
	}
}

func TestHasExcessiveRepetition(t *testing.T) {
	if hasExcessiveRepetition("aaaaaaaaaa") {
		t.Error("10 repeated characters should be allowed")
	}
	if !hasExcessiveRepetition("xaaaaaaaaaaa") {
		t.Error("11 repeated characters should be rejected")
	}
}
