package prompt

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	b := NewBuilder(DefaultTemplate())

	req := b.Build([]string{"Amoxicillin", "Omeprazole"})

	assert.Equal(t, []string{"Amoxicillin", "Omeprazole"}, req.Names)
	assert.True(t, strings.HasSuffix(req.Prompt, "Medicines: Amoxicillin, Omeprazole"))
	assert.Contains(t, req.Prompt, "ONLY a JSON array")
	assert.Equal(t, 1, strings.Count(req.Prompt, `"medicine":`), "exactly one worked example")

	// role, then example, then instruction, then names
	role := strings.Index(req.Prompt, "clinical pharmacology assistant")
	example := strings.Index(req.Prompt, `"medicine": "Paracetamol"`)
	instruction := strings.Index(req.Prompt, "Respond with ONLY")
	names := strings.Index(req.Prompt, "Medicines: ")
	assert.True(t, role < example && example < instruction && instruction < names)
}

func TestDefaultExampleIsValidRecord(t *testing.T) {
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(DefaultTemplate().Example), &rec))
	for _, field := range []string{"medicine", "description", "dosage", "sideEffects", "precautions"} {
		assert.Contains(t, rec, field)
	}
}

func TestBuildDoesNotAliasInput(t *testing.T) {
	names := []string{"Ibuprofen"}
	req := NewBuilder(DefaultTemplate()).Build(names)
	names[0] = "changed"
	assert.Equal(t, []string{"Ibuprofen"}, req.Names)
}

func TestBuildPassesArbitraryNames(t *testing.T) {
	req := NewBuilder(DefaultTemplate()).Build([]string{"not a drug", "Xyz 42"})
	assert.True(t, strings.HasSuffix(req.Prompt, "Medicines: not a drug, Xyz 42"))
}

func TestLoadTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prompt.yaml")
	content := "role: You are a pharmacist.\nnames_label: Drugs\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	tpl, err := LoadTemplate(path)
	require.NoError(t, err)

	assert.Equal(t, "You are a pharmacist.", tpl.Role)
	assert.Equal(t, "Drugs", tpl.NamesLabel)
	assert.Equal(t, DefaultTemplate().Example, tpl.Example)
	assert.Equal(t, DefaultTemplate().Instruction, tpl.Instruction)

	req := NewBuilder(tpl).Build([]string{"Aspirin"})
	assert.True(t, strings.HasPrefix(req.Prompt, "You are a pharmacist."))
	assert.True(t, strings.HasSuffix(req.Prompt, "Drugs: Aspirin"))
}

func TestLoadTemplateErrors(t *testing.T) {
	_, err := LoadTemplate(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt template")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("role: [unclosed"), 0o600))
	_, err = LoadTemplate(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad prompt template")
}
