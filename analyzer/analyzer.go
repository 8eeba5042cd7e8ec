// Package analyzer runs the prescription pipeline: candidate extraction,
// prompt construction, one knowledge request and response normalization.
//
// A Pipeline holds only configuration and is safe for concurrent use.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/giygas/prescription-api/doctext"
	"github.com/giygas/prescription-api/entities"
	"github.com/giygas/prescription-api/extraction"
	"github.com/giygas/prescription-api/knowledge"
	"github.com/giygas/prescription-api/logging"
	"github.com/giygas/prescription-api/normalizer"
	"github.com/giygas/prescription-api/prompt"
)

// ErrNoCandidates is returned when there is nothing to ask the knowledge
// source about. It is a normal outcome, not a system failure.
var ErrNoCandidates = errors.New("no medicines found")

// Sources of a run.
const (
	SourceDocument = "document"
	SourceText     = "text"
	SourceQuery    = "query"
)

// DocumentError means the uploaded document could not be turned into text.
type DocumentError struct {
	Filename string
	Err      error
}

func (e *DocumentError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("cannot process document: %v", e.Err)
	}
	return fmt.Sprintf("cannot process document %q: %v", e.Filename, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// Outcome describes one finished run. It is handed to the Observer.
type Outcome struct {
	Source     string
	Candidates int
	Suffixed   int
	Records    int
	Duration   time.Duration
	Err        error
}

// Observer receives the outcome of every run.
type Observer func(Outcome)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithExtractor replaces the default candidate extractor.
func WithExtractor(e *extraction.Extractor) Option {
	return func(p *Pipeline) {
		if e != nil {
			p.extractor = e
		}
	}
}

// WithReader sets the document-text collaborator used by RunFromDocument.
func WithReader(r doctext.Reader) Option {
	return func(p *Pipeline) { p.reader = r }
}

// WithObserver registers a hook called after every run.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) { p.observer = o }
}

// Pipeline wires the four stages together.
type Pipeline struct {
	completer knowledge.Completer
	builder   *prompt.Builder
	extractor *extraction.Extractor
	reader    doctext.Reader
	observer  Observer
}

// New creates a pipeline. A nil builder uses the default prompt template.
func New(completer knowledge.Completer, builder *prompt.Builder, opts ...Option) *Pipeline {
	if builder == nil {
		builder = prompt.NewBuilder(prompt.DefaultTemplate())
	}
	p := &Pipeline{
		completer: completer,
		builder:   builder,
		extractor: extraction.NewExtractor(extraction.DefaultStopWords),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RunFromText extracts candidates from text and resolves them. When no
// candidate is found the completer is never called.
func (p *Pipeline) RunFromText(ctx context.Context, text string) ([]entities.MedicineRecord, error) {
	_, records, err := p.fromText(ctx, SourceText, text)
	return records, err
}

// RunFromNames resolves the given names as-is, without extraction.
func (p *Pipeline) RunFromNames(ctx context.Context, names []string) ([]entities.MedicineRecord, error) {
	return p.resolve(ctx, SourceQuery, names)
}

// RunFromDocument reads the document text and continues as RunFromText.
func (p *Pipeline) RunFromDocument(ctx context.Context, doc doctext.Document) ([]entities.MedicineRecord, error) {
	_, records, err := p.fromDocument(ctx, doc)
	return records, err
}

// AnalyzeDocument is RunFromDocument returning the full analysis, with the
// candidates that were looked up and a fresh analysis ID.
func (p *Pipeline) AnalyzeDocument(ctx context.Context, doc doctext.Document) (*entities.Analysis, error) {
	names, records, err := p.fromDocument(ctx, doc)
	if err != nil {
		return nil, err
	}
	return newAnalysis(SourceDocument, names, records), nil
}

// AnalyzeNames is RunFromNames returning the full analysis.
func (p *Pipeline) AnalyzeNames(ctx context.Context, names []string) (*entities.Analysis, error) {
	records, err := p.RunFromNames(ctx, names)
	if err != nil {
		return nil, err
	}
	return newAnalysis(SourceQuery, names, records), nil
}

func newAnalysis(source string, names []string, records []entities.MedicineRecord) *entities.Analysis {
	candidates := make([]string, len(names))
	copy(candidates, names)
	return &entities.Analysis{
		AnalysisID: uuid.NewString(),
		Source:     source,
		Candidates: candidates,
		Medicines:  records,
	}
}

func (p *Pipeline) fromDocument(ctx context.Context, doc doctext.Document) ([]string, []entities.MedicineRecord, error) {
	if p.reader == nil {
		err := &DocumentError{Filename: doc.Filename, Err: errors.New("no document reader configured")}
		p.observe(Outcome{Source: SourceDocument, Err: err})
		return nil, nil, err
	}

	start := time.Now()
	text, err := p.reader.ReadText(ctx, doc)
	if err != nil {
		docErr := &DocumentError{Filename: doc.Filename, Err: err}
		p.observe(Outcome{Source: SourceDocument, Duration: time.Since(start), Err: docErr})
		return nil, nil, docErr
	}

	return p.fromText(ctx, SourceDocument, text)
}

func (p *Pipeline) fromText(ctx context.Context, source, text string) ([]string, []entities.MedicineRecord, error) {
	names := p.extractor.Extract(text)
	records, err := p.resolve(ctx, source, names)
	return names, records, err
}

// resolve builds the prompt, makes the single knowledge request and
// normalizes the answer.
func (p *Pipeline) resolve(ctx context.Context, source string, names []string) (records []entities.MedicineRecord, err error) {
	start := time.Now()
	defer func() {
		p.observe(Outcome{
			Source:     source,
			Candidates: len(names),
			Suffixed:   countSuffixed(names),
			Records:    len(records),
			Duration:   time.Since(start),
			Err:        err,
		})
	}()

	if len(names) == 0 {
		return nil, ErrNoCandidates
	}

	req := p.builder.Build(names)

	raw, err := knowledge.Request(ctx, p.completer, req)
	if err != nil {
		return nil, err
	}

	records, err = normalizer.Normalize(raw)
	if err != nil {
		var parseErr *normalizer.ParseError
		if errors.As(err, &parseErr) {
			logging.Warn("Knowledge source answer could not be parsed",
				"source", source,
				"reason", parseErr.Reason,
				"raw_sample", parseErr.RawSample,
			)
		}
		return nil, err
	}

	if dropped := len(names) - len(records); dropped > 0 {
		logging.Debug("Fewer records than candidates", "candidates", len(names), "records", len(records))
	}

	return records, nil
}

func (p *Pipeline) observe(o Outcome) {
	if p.observer != nil {
		p.observer(o)
	}
}

func countSuffixed(names []string) int {
	n := 0
	for _, name := range names {
		if extraction.Suffixed(name) {
			n++
		}
	}
	return n
}

// Outcome labels returned by Classify.
const (
	OutcomeOK            = "ok"
	OutcomeNoCandidates  = "no_candidates"
	OutcomeRequestError  = "request_error"
	OutcomeParseError    = "parse_error"
	OutcomeDocumentError = "document_error"
	OutcomeError         = "error"
)

// Classify maps a pipeline error to a short, stable label.
func Classify(err error) string {
	var (
		reqErr   *knowledge.RequestError
		parseErr *normalizer.ParseError
		docErr   *DocumentError
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNoCandidates):
		return OutcomeNoCandidates
	case errors.As(err, &docErr):
		return OutcomeDocumentError
	case errors.As(err, &reqErr):
		return OutcomeRequestError
	case errors.As(err, &parseErr):
		return OutcomeParseError
	}
	return OutcomeError
}
