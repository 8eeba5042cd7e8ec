// Package extraction finds medicine-like names in plain text.
//
// The matcher is deliberately over-inclusive: every capitalized word is a
// candidate, and the pharmacological suffix list is only a hint. Words that a
// prescription always contains (Patient, Doctor, Take, ...) are dropped by a
// configurable stop-word set. False positives are left for the knowledge
// source to ignore.
package extraction

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Suffixes are the pharmacological name stems recognized by the matcher.
var Suffixes = []string{
	// antibiotics
	"cillin", "mycin", "cycline", "floxacin",
	// ACE inhibitors
	"pril",
	// proton-pump inhibitors
	"prazole",
	// calcium-channel blockers
	"dipine",
	// beta-blockers
	"olol",
	// local anesthetics
	"caine",
	// angiotensin-receptor blockers
	"sartan",
	// monoclonal antibodies
	"mab",
	// kinase inhibitors
	"nib",
}

// DefaultStopWords are capitalized words that show up in almost every
// prescription header or sentence and never name a medicine.
var DefaultStopWords = []string{
	"Patient", "Doctor", "Dr", "Name", "Age", "Sex", "Date", "Address",
	"Take", "Tablet", "Tablets", "Tab", "Capsule", "Capsules", "Cap",
	"Syrup", "Injection", "Daily", "Once", "Twice", "Morning", "Night",
	"Evening", "After", "Before", "Meals", "Food", "Days", "Weeks",
	"Rx", "Sig", "Diagnosis", "Signature", "Hospital", "Clinic",
	"The", "And", "With", "For", "Should", "Please",
}

// RE2 has no Unicode \b, so token boundaries are checked by isBoundary.
var candidatePattern = regexp.MustCompile(`\p{Lu}[\p{Ll}\p{Mn}]+(?:` + strings.Join(Suffixes, "|") + `)?`)

// Extractor scans text for candidate names. The zero value has no stop words.
type Extractor struct {
	stopWords map[string]struct{}
}

// NewExtractor builds an extractor ignoring the given words (case-sensitive).
func NewExtractor(stopWords []string) *Extractor {
	sw := make(map[string]struct{}, len(stopWords))
	for _, w := range stopWords {
		sw[w] = struct{}{}
	}
	return &Extractor{stopWords: sw}
}

var defaultExtractor = NewExtractor(DefaultStopWords)

// ExtractCandidates runs the default extractor on text.
func ExtractCandidates(text string) []string {
	return defaultExtractor.Extract(text)
}

// Extract returns the candidates of text in order of first appearance,
// without exact repeats. An empty slice is a valid result.
func (e *Extractor) Extract(text string) []string {
	matches := candidatePattern.FindAllStringIndex(text, -1)

	candidates := make([]string, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, loc := range matches {
		if !isBoundary(text, loc[0], loc[1]) {
			continue
		}
		m := text[loc[0]:loc[1]]
		if _, skip := e.stopWords[m]; skip {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		candidates = append(candidates, m)
	}
	return candidates
}

// isBoundary reports whether text[start:end] is a whole word, i.e. no word
// rune touches it on either side.
func isBoundary(text string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// Suffixed reports whether name ends with one of the known stems.
func Suffixed(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range Suffixes {
		if len(lower) > len(s) && strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}
