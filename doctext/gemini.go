package doctext

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/giygas/prescription-api/knowledge"
	"github.com/google/generative-ai-go/genai"
	"golang.org/x/text/unicode/norm"
	"google.golang.org/api/option"
)

const transcribeInstruction = "Transcribe all the text in this prescription document exactly as written, " +
	"line by line. Output plain text only, without commentary or formatting."

// GeminiReader transcribes images and PDFs with a multimodal Gemini model.
type GeminiReader struct {
	APIKey string
	Model  string
}

// NewGeminiReader creates a reader for the given key and model.
func NewGeminiReader(apiKey, model string) *GeminiReader {
	return &GeminiReader{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

// ReadText implements Reader.
func (g *GeminiReader) ReadText(ctx context.Context, doc Document) (string, error) {
	if g.APIKey == "" {
		return "", errors.New("GEMINI_API_KEY is empty")
	}
	if len(doc.Data) == 0 {
		return "", fmt.Errorf("empty document %q", doc.Filename)
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.APIKey))
	if err != nil {
		return "", fmt.Errorf("gemini transcribe: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(g.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: knowledge.Float32Ptr(0),
	}

	resp, err := m.GenerateContent(ctx,
		genai.Text(transcribeInstruction),
		genai.Blob{MIMEType: DetectMIME(doc), Data: doc.Data},
	)
	if err != nil {
		return "", fmt.Errorf("gemini transcribe: %w", err)
	}

	txt := knowledge.ResponseText(resp)
	if strings.TrimSpace(txt) == "" {
		return "", fmt.Errorf("gemini transcribe: empty response for %q", doc.Filename)
	}
	return norm.NFC.String(txt), nil
}
