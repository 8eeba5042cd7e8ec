// Package prompt builds the request sent to the knowledge source.
package prompt

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
)

// Template holds the fixed parts of the prompt. It is configuration, passed
// to NewBuilder; nothing here reads process-wide state.
type Template struct {
	Role        string `yaml:"role"`
	Example     string `yaml:"example"`
	Instruction string `yaml:"instruction"`
	NamesLabel  string `yaml:"names_label"`
}

// KnowledgeRequest is one immutable request for the knowledge source.
type KnowledgeRequest struct {
	Names  []string
	Prompt string
}

// DefaultTemplate returns the built-in prompt template.
func DefaultTemplate() Template {
	return Template{
		Role: "You are a clinical pharmacology assistant. For every medicine name listed below, " +
			"give a short description, the usual adult dosage, common side effects and key precautions.",
		Example: `{"medicine": "Paracetamol", "description": "Analgesic and antipyretic used for mild to moderate pain and fever.", ` +
			`"dosage": "500-1000 mg every 4-6 hours, at most 4 g per day", ` +
			`"sideEffects": ["Nausea", "Skin rash"], ` +
			`"precautions": ["Avoid alcohol", "Do not exceed the maximum daily dose"]}`,
		Instruction: "Respond with ONLY a JSON array of objects with exactly the shape of the example, " +
			"one object per medicine, in the order given. Leave out names that are not medicines. " +
			"Do not add markdown, code fences or any text outside the JSON array.",
		NamesLabel: "Medicines",
	}
}

// LoadTemplate reads a YAML template file. Fields left empty in the file keep
// their default value.
func LoadTemplate(path string) (Template, error) {
	tpl := DefaultTemplate()

	data, err := os.ReadFile(path)
	if err != nil {
		return tpl, fmt.Errorf("failed to read prompt template %s: %w", path, err)
	}

	var fromFile Template
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return tpl, fmt.Errorf("bad prompt template %s: %w", path, err)
	}

	if s := strings.TrimSpace(fromFile.Role); s != "" {
		tpl.Role = s
	}
	if s := strings.TrimSpace(fromFile.Example); s != "" {
		tpl.Example = s
	}
	if s := strings.TrimSpace(fromFile.Instruction); s != "" {
		tpl.Instruction = s
	}
	if s := strings.TrimSpace(fromFile.NamesLabel); s != "" {
		tpl.NamesLabel = s
	}
	return tpl, nil
}

// Builder turns candidate names into a KnowledgeRequest.
type Builder struct {
	tpl Template
}

// NewBuilder creates a builder for the given template.
func NewBuilder(tpl Template) *Builder {
	return &Builder{tpl: tpl}
}

// Template returns the template the builder was created with.
func (b *Builder) Template() Template {
	return b.tpl
}

// Build renders the prompt for names. Callers make sure names is not empty;
// the names themselves are passed through untouched.
func (b *Builder) Build(names []string) KnowledgeRequest {
	var sb strings.Builder
	sb.WriteString(b.tpl.Role)
	sb.WriteString("\n\nExample of one record:\n")
	sb.WriteString(b.tpl.Example)
	sb.WriteString("\n\n")
	sb.WriteString(b.tpl.Instruction)
	sb.WriteString("\n\n")
	sb.WriteString(b.tpl.NamesLabel)
	sb.WriteString(": ")
	sb.WriteString(strings.Join(names, ", "))

	return KnowledgeRequest{
		Names:  append([]string(nil), names...),
		Prompt: sb.String(),
	}
}
