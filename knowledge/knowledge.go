// Package knowledge sends prompts to the external generative model that
// describes medicines. The model is treated as an untrusted black box: this
// package only moves text and reports whether the call succeeded.
package knowledge

import (
	"context"
	"errors"
	"fmt"

	"github.com/giygas/prescription-api/prompt"
)

// Completer is a text-completion service. Each call to Complete makes exactly
// one outbound request.
type Completer interface {
	Name() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Name implements Completer.
func (f CompleterFunc) Name() string { return "func" }

// Complete implements Completer.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// RequestError is returned when the knowledge source could not be reached or
// refused the request. It is safe to retry.
type RequestError struct {
	Provider string
	Status   int // provider status code, 0 when unknown
	Detail   string
	Err      error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("knowledge request to %s failed (status %d): %s", e.Provider, e.Status, e.Detail)
	}
	return fmt.Sprintf("knowledge request to %s failed: %s", e.Provider, e.Detail)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Request sends req to c once and returns the raw completion. There is no
// retry here; callers wanting one wrap the Completer.
func Request(ctx context.Context, c Completer, req prompt.KnowledgeRequest) (string, error) {
	if c == nil {
		return "", &RequestError{Provider: "none", Detail: "no knowledge source configured"}
	}

	raw, err := c.Complete(ctx, req.Prompt)
	if err != nil {
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			return "", reqErr
		}
		return "", &RequestError{Provider: c.Name(), Detail: err.Error(), Err: err}
	}
	return raw, nil
}
