package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode/utf8"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	// ErrExtractionFailure is returned when a document cannot be turned into text,
	// including when conversion runs past its deadline.
	ErrExtractionFailure = errors.New("document extraction failed")
	// ErrUnreadable marks input the converter does not understand.
	ErrUnreadable = errors.New("unreadable document")
)

// Converter turns an uploaded document into plain text.
type Converter interface {
	ToText(ctx context.Context, data []byte, contentType string) (string, error)
}

// PlainTextConverter accepts documents that already are UTF-8 text.
type PlainTextConverter struct{}

// ToText returns data as a string when it is valid UTF-8.
func (PlainTextConverter) ToText(ctx context.Context, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 || !utf8.Valid(data) {
		return "", ErrUnreadable
	}
	return string(data), nil
}

// HTTPConverter delegates conversion to an extraction service that accepts
// the raw document in a POST body and answers with its text.
type HTTPConverter struct {
	url     string
	client  *http.Client
	maxText int64
}

// NewHTTPConverter returns a converter posting to url. Requests are traced
// through an otelhttp transport.
func NewHTTPConverter(url string, maxText int64) *HTTPConverter {
	return &HTTPConverter{
		url:     url,
		client:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		maxText: maxText,
	}
}

// ToText posts data to the extraction service. Any non-2xx answer means the
// document was unreadable.
func (h *HTTPConverter) ToText(ctx context.Context, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build extraction request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/plain")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call extraction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: extraction service returned %d", ErrUnreadable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxText))
	if err != nil {
		return "", fmt.Errorf("read extraction response: %w", err)
	}
	return string(body), nil
}
