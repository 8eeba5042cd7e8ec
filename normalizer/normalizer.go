// Package normalizer turns the free-text completion of the knowledge source
// into medicine records.
//
// The completion is requested as a JSON array but nothing guarantees it. Parsing
// happens in two stages: a syntax parse, whose failure is a ParseError, then a
// shape reconciliation where anything that is not a list of records simply
// yields zero records.
package normalizer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/giygas/prescription-api/entities"
)

// Reasons carried by ParseError.
const (
	ReasonEmpty      = "empty"
	ReasonUnparsable = "unparsable"
)

// MaxRawSample bounds the part of a bad completion kept for diagnosis.
const MaxRawSample = 512

// WrapperKeys are object fields under which the model sometimes nests the
// record array instead of returning it at the top level.
var WrapperKeys = []string{"prescribedMedicines", "prescribed_medicines", "medicines"}

// ParseError means the model answered but the answer is not JSON.
type ParseError struct {
	Reason    string
	RawSample string
	Err       error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model response %s: %v", e.Reason, e.Err)
	}
	return "model response " + e.Reason
}

func (e *ParseError) Unwrap() error { return e.Err }

var (
	leadingFence  = regexp.MustCompile("^```[ \t]*[A-Za-z0-9_+-]*")
	trailingFence = regexp.MustCompile("```$")
)

// StripCodeFences removes a markdown code fence (with or without a language
// tag) around s, and the surrounding whitespace.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = leadingFence.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = trailingFence.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// Normalize parses raw into records. It fails only when raw is not JSON at
// all; a valid JSON answer with no usable list gives an empty, non-nil slice.
func Normalize(raw string) ([]entities.MedicineRecord, error) {
	body := StripCodeFences(raw)
	if body == "" {
		return nil, &ParseError{Reason: ReasonEmpty, RawSample: sample(raw)}
	}

	var parsed any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil, &ParseError{Reason: ReasonUnparsable, RawSample: sample(raw), Err: err}
	}

	items := recordList(parsed)

	records := make([]entities.MedicineRecord, 0, len(items))
	for _, item := range items {
		if rec, ok := toRecord(item); ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// recordList reconciles the parsed value to the list of raw records.
func recordList(v any) []any {
	switch val := v.(type) {
	case []any:
		return val
	case map[string]any:
		for _, key := range WrapperKeys {
			if list, ok := val[key].([]any); ok {
				return list
			}
		}
	}
	return nil
}

func toRecord(item any) (entities.MedicineRecord, bool) {
	obj, ok := item.(map[string]any)
	if !ok {
		return entities.MedicineRecord{}, false
	}

	name, ok := obj["medicine"].(string)
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return entities.MedicineRecord{}, false
	}

	return entities.MedicineRecord{
		Medicine:    name,
		Description: text(obj["description"]),
		Dosage:      text(obj["dosage"]),
		SideEffects: list(obj["sideEffects"], entities.DefaultSideEffect),
		Precautions: list(obj["precautions"], entities.DefaultPrecaution),
	}, true
}

// text reads a scalar field as a string; anything else reads as "".
func text(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "true"
		}
		return "false"
	}
	return ""
}

// list reads a list field. An absent or null field gives the placeholder; a
// lone string counts as a one-element list.
func list(v any, placeholder string) []string {
	switch val := v.(type) {
	case nil:
		return []string{placeholder}
	case []any:
		out := make([]string, 0, len(val))
		for _, el := range val {
			if s := text(el); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
		return []string{}
	}
	return []string{placeholder}
}

// sample cuts raw to at most MaxRawSample bytes without splitting a rune.
func sample(raw string) string {
	if len(raw) <= MaxRawSample {
		return raw
	}
	cut := MaxRawSample
	for cut > 0 && !utf8.RuneStart(raw[cut]) {
		cut--
	}
	return raw[:cut]
}
