// Package doctext turns uploaded documents into plain text for the candidate
// extractor. Plain-text uploads are decoded locally; images and PDFs are
// transcribed by the generative model.
package doctext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"
)

// ErrUnsupportedType is returned when no reader handles the document's type.
var ErrUnsupportedType = errors.New("unsupported document type")

// Document is an uploaded file.
type Document struct {
	Filename string
	MIMEType string // may be empty; sniffed from Data when missing
	Data     []byte
}

// Reader extracts plain text from a document.
type Reader interface {
	ReadText(ctx context.Context, doc Document) (string, error)
}

// DetectMIME returns the explicit type when set, otherwise sniffs the content.
func DetectMIME(doc Document) string {
	if exp := strings.TrimSpace(doc.MIMEType); exp != "" && exp != "application/octet-stream" {
		if i := strings.IndexByte(exp, ';'); i >= 0 {
			exp = strings.TrimSpace(exp[:i])
		}
		return strings.ToLower(exp)
	}
	if len(doc.Data) == 0 {
		return "application/octet-stream"
	}
	sniffed := http.DetectContentType(doc.Data)
	if i := strings.IndexByte(sniffed, ';'); i >= 0 {
		sniffed = sniffed[:i]
	}
	return sniffed
}

// PlainTextReader decodes text uploads. Content that is not valid UTF-8 is
// read as ISO-8859-1, which is what scanners and older EHR exports produce.
type PlainTextReader struct{}

// ReadText implements Reader.
func (PlainTextReader) ReadText(_ context.Context, doc Document) (string, error) {
	if len(doc.Data) == 0 {
		return "", fmt.Errorf("empty document %q", doc.Filename)
	}

	var reader io.Reader
	if utf8.Valid(doc.Data) {
		reader = bytes.NewReader(doc.Data)
	} else {
		reader = charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(doc.Data))
	}

	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to decode %q: %w", doc.Filename, err)
	}

	return norm.NFC.String(strings.TrimPrefix(string(decoded), "\uFEFF")), nil
}

// MultiReader dispatches to a reader by MIME type prefix.
type MultiReader struct {
	Text   Reader // text/*
	Binary Reader // image/*, application/pdf
}

// ReadText implements Reader.
func (m MultiReader) ReadText(ctx context.Context, doc Document) (string, error) {
	mime := DetectMIME(doc)
	doc.MIMEType = mime

	switch {
	case strings.HasPrefix(mime, "text/"):
		if m.Text == nil {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mime)
		}
		return m.Text.ReadText(ctx, doc)
	case strings.HasPrefix(mime, "image/"), mime == "application/pdf":
		if m.Binary == nil {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mime)
		}
		return m.Binary.ReadText(ctx, doc)
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mime)
}
