// Package validation checks caller input at the HTTP boundary of the
// prescription API: uploaded documents and medicine names of direct queries.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/giygas/prescription-api/interfaces"
)

// Compile-time check to ensure InputValidatorImpl implements InputValidator
var _ interfaces.InputValidator = (*InputValidatorImpl)(nil)

// ErrFileTooLarge is wrapped by ValidateUpload when the document exceeds the limit.
var ErrFileTooLarge = errors.New("file too large")

// Limits for one medicine name.
const (
	MinNameLength = 2
	MaxNameLength = 100
	MaxNameWords  = 8
)

// AllowedUploadTypes are the document types the readers can turn into text.
var AllowedUploadTypes = []string{
	"text/plain",
	"text/csv",
	"application/pdf",
	"image/png",
	"image/jpeg",
	"image/webp",
	"image/heic",
	"image/heif",
}

var (
	// Latin letters with accents, digits and the punctuation of drug names
	// ("co-amoxiclav", "paracetamol+caffeine", "5%", "1/2")
	nameRegex = regexp.MustCompile(`^[\p{Latin}\p{Mn}0-9\s\-\.\+'/%]+$`)

	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"eval(", "expression(", "url(", "@import",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"--", "/*", "*/", "xp_", "exec(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection patterns
		"{$ne:", "{$gt:", "{$where:", "{$regex:",
	}
)

// InputValidatorImpl implements the interfaces.InputValidator interface
type InputValidatorImpl struct {
	maxNames       int
	maxUploadBytes int64
}

// NewInputValidator creates a validator accepting at most maxNames names per
// query and uploads of at most maxUploadBytes.
func NewInputValidator(maxNames int, maxUploadBytes int64) *InputValidatorImpl {
	return &InputValidatorImpl{
		maxNames:       maxNames,
		maxUploadBytes: maxUploadBytes,
	}
}

// ValidateUpload checks the metadata of an uploaded document.
func (v *InputValidatorImpl) ValidateUpload(filename, mimeType string, size int64) error {
	if size <= 0 {
		return fmt.Errorf("file is empty")
	}
	if v.maxUploadBytes > 0 && size > v.maxUploadBytes {
		return fmt.Errorf("%w: %d bytes, maximum is %d", ErrFileTooLarge, size, v.maxUploadBytes)
	}

	if len(filename) > 255 {
		return fmt.Errorf("file name too long: maximum 255 characters")
	}
	if strings.ContainsRune(filename, 0) || filename != filepath.Base(filename) && filename != "" {
		return fmt.Errorf("file name must not contain a path")
	}

	if !IsAllowedType(mimeType) {
		return fmt.Errorf("unsupported file type %q: allowed types are %s", mimeType, strings.Join(AllowedUploadTypes, ", "))
	}
	return nil
}

// IsAllowedType reports whether mimeType (parameters ignored) may be uploaded.
func IsAllowedType(mimeType string) bool {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	for _, allowed := range AllowedUploadTypes {
		if mimeType == allowed {
			return true
		}
	}
	return false
}

// ValidateNames trims every name and drops blank ones, then checks the list.
// An empty result is not an error; the pipeline reports it as no medicines.
func (v *InputValidatorImpl) ValidateNames(names []string) ([]string, error) {
	cleaned := make([]string, 0, len(names))
	for _, name := range names {
		if name = strings.TrimSpace(name); name != "" {
			cleaned = append(cleaned, name)
		}
	}

	if v.maxNames > 0 && len(cleaned) > v.maxNames {
		return nil, fmt.Errorf("too many medicine names: maximum %d allowed, got %d", v.maxNames, len(cleaned))
	}

	for _, name := range cleaned {
		if err := v.ValidateInput(name); err != nil {
			return nil, fmt.Errorf("invalid medicine name %q: %w", name, err)
		}
	}
	return cleaned, nil
}

// ValidateInput validates one medicine name.
func (v *InputValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	length := len([]rune(input))
	if length < MinNameLength {
		return fmt.Errorf("input too short: minimum %d characters", MinNameLength)
	}
	if length > MaxNameLength {
		return fmt.Errorf("input too long: maximum %d characters", MaxNameLength)
	}

	if len(strings.Fields(input)) > MaxNameWords {
		return fmt.Errorf("name too complex: maximum %d words allowed", MaxNameWords)
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !nameRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces, hyphens, apostrophes, periods, slashes, percent and plus signs are allowed")
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// hasExcessiveRepetition reports a character repeated more than 10 times in a row.
func hasExcessiveRepetition(input string) bool {
	run := 1
	for i := 1; i < len(input); i++ {
		if input[i] == input[i-1] {
			run++
			if run > 10 {
				return true
			}
			continue
		}
		run = 1
	}
	return false
}
