// Package redact strips PII/PHI from free text before classification or
// logging.
package redact

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

// Redactor removes personally identifying information from text.
type Redactor interface {
	Redact(ctx context.Context, text string) string
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s\-().]{7,}\d`)
	ssnPattern   = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)
)

// ScrubPII masks emails, phone numbers, and SSN-shaped sequences.
func ScrubPII(text string) string {
	out := emailPattern.ReplaceAllString(text, "[REDACTED]")
	out = ssnPattern.ReplaceAllString(out, "[REDACTED]")
	out = phonePattern.ReplaceAllString(out, "[REDACTED]")
	return out
}

// RegexRedactor applies the local pattern scrub only.
type RegexRedactor struct{}

func (RegexRedactor) Redact(_ context.Context, text string) string {
	return ScrubPII(text)
}

// HTTPRedactor sends text to an external redaction service. On any failure
// it falls back to the local regex scrub rather than blocking the reply
// pipeline.
type HTTPRedactor struct {
	url    string
	apiKey string
	client *http.Client
	logger *logging.Logger
}

// NewHTTPRedactor creates a redactor backed by an external service. Returns
// a RegexRedactor-equivalent when no URL is configured.
func NewHTTPRedactor(url, apiKey string, logger *logging.Logger) *HTTPRedactor {
	if logger == nil {
		logger = logging.Default()
	}
	return &HTTPRedactor{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

type redactRequest struct {
	Text string `json:"text"`
}

type redactResponse struct {
	RedactedText string `json:"redacted_text"`
}

// Redact returns the service's redacted text, or the locally scrubbed text
// when the service is unconfigured or unavailable.
func (r *HTTPRedactor) Redact(ctx context.Context, text string) string {
	if r.url == "" || r.apiKey == "" {
		return ScrubPII(text)
	}

	body, err := json.Marshal(redactRequest{Text: text})
	if err != nil {
		return ScrubPII(text)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return ScrubPII(text)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("redact: service unreachable, using local scrub", "error", err)
		return ScrubPII(text)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		r.logger.Warn("redact: service error, using local scrub", "status", resp.StatusCode)
		return ScrubPII(text)
	}

	var out redactResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.RedactedText == "" {
		return ScrubPII(text)
	}
	return out.RedactedText
}

var _ Redactor = (*HTTPRedactor)(nil)
var _ Redactor = RegexRedactor{}
