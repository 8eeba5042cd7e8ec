// Package app assembles the prescription pipeline from configuration. The
// HTTP server and the rxscan CLI share it.
package app

import (
	"fmt"

	"github.com/giygas/prescription-api/analyzer"
	"github.com/giygas/prescription-api/config"
	"github.com/giygas/prescription-api/doctext"
	"github.com/giygas/prescription-api/knowledge"
	"github.com/giygas/prescription-api/logging"
	"github.com/giygas/prescription-api/prompt"
)

// Components are the pieces built from one configuration.
type Components struct {
	Pipeline  *analyzer.Pipeline
	Completer *knowledge.GeminiCompleter
	Builder   *prompt.Builder
}

// Build wires the knowledge source, the document readers and the prompt
// template into a pipeline. Extra options are applied last.
func Build(cfg *config.Config, opts ...analyzer.Option) (*Components, error) {
	tpl := prompt.DefaultTemplate()
	if cfg.PromptTemplateFile != "" {
		loaded, err := prompt.LoadTemplate(cfg.PromptTemplateFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load prompt template: %w", err)
		}
		tpl = loaded
		logging.Info("Loaded prompt template", "path", cfg.PromptTemplateFile)
	}
	builder := prompt.NewBuilder(tpl)

	completer := knowledge.NewGeminiCompleter(cfg.GeminiAPIKey, cfg.GeminiModel)
	reader := doctext.MultiReader{
		Text:   doctext.PlainTextReader{},
		Binary: doctext.NewGeminiReader(cfg.GeminiAPIKey, cfg.GeminiModel),
	}

	options := append([]analyzer.Option{analyzer.WithReader(reader)}, opts...)

	return &Components{
		Pipeline:  analyzer.New(completer, builder, options...),
		Completer: completer,
		Builder:   builder,
	}, nil
}
