package knowledge

import (
	"context"
	"errors"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiCompleter talks to Google's generative language API. A client is
// opened for every call and closed before returning.
type GeminiCompleter struct {
	APIKey string
	Model  string
}

// NewGeminiCompleter creates a completer for the given key and model.
func NewGeminiCompleter(apiKey, model string) *GeminiCompleter {
	return &GeminiCompleter{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

// Name implements Completer.
func (g *GeminiCompleter) Name() string { return "gemini" }

// Complete implements Completer.
func (g *GeminiCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if g.APIKey == "" {
		return "", &RequestError{Provider: g.Name(), Detail: "GEMINI_API_KEY is empty"}
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.APIKey))
	if err != nil {
		return "", g.wrap(err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(g.Model)
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: Float32Ptr(0),
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", g.wrap(err)
	}
	return ResponseText(resp), nil
}

// Ping checks that the model exists and the key is accepted, without
// generating anything.
func (g *GeminiCompleter) Ping(ctx context.Context) error {
	if g.APIKey == "" {
		return &RequestError{Provider: g.Name(), Detail: "GEMINI_API_KEY is empty"}
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(g.APIKey))
	if err != nil {
		return g.wrap(err)
	}
	defer cl.Close()

	if _, err := cl.GenerativeModel(g.Model).Info(ctx); err != nil {
		return g.wrap(err)
	}
	return nil
}

func (g *GeminiCompleter) wrap(err error) *RequestError {
	reqErr := &RequestError{Provider: g.Name(), Detail: err.Error(), Err: err}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		reqErr.Status = apiErr.Code
		if apiErr.Message != "" {
			reqErr.Detail = apiErr.Message
		}
	}
	return reqErr
}

// ResponseText joins the text parts of the first candidate that has content.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}

// Float32Ptr returns a pointer to v, for the optional generation settings.
func Float32Ptr(v float32) *float32 { return &v }
