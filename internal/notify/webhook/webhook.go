// Package webhook delivers signed event payloads to customer webhook
// endpoints via HTTP POST and reports the per-attempt outcome.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes caps how much of a response body is kept for the audit row.
const maxBodyBytes = 1000

// SignatureHeader carries the hex HMAC-SHA256 of the request body.
const SignatureHeader = "X-Webhook-Signature"

// Result describes one delivery attempt. Delivered means a 2xx response;
// anything else (network error or non-2xx) is failed.
type Result struct {
	Delivered      bool
	ResponseStatus *int
	ResponseBody   *string
	ErrorMessage   *string
}

// Sender performs webhook HTTP deliveries. The HTTP client is injected so
// the hosting process controls the outbound timeout.
type Sender struct {
	httpClient *http.Client
}

// NewSender creates a webhook sender using the given HTTP client.
func NewSender(client *http.Client) *Sender {
	return &Sender{httpClient: client}
}

// Sign computes the hex HMAC-SHA256 of payload under secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// isValidURL checks if a string is a valid HTTP/HTTPS URL.
func isValidURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Deliver POSTs the serialized payload to url, attaching the signature
// header iff a secret is configured. It never returns an error: every
// outcome is captured in the Result so the caller can audit it.
func (s *Sender) Deliver(ctx context.Context, url, secret string, body []byte) Result {
	if !isValidURL(url) {
		return failure(fmt.Sprintf("invalid webhook URL: %q", url))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return failure("failed to create HTTP request: " + err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(body, secret))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return failure(err.Error())
	}
	defer resp.Body.Close()

	respBody := readTruncated(resp.Body)
	status := resp.StatusCode
	result := Result{
		ResponseStatus: &status,
		ResponseBody:   &respBody,
	}
	if status < 200 || status >= 300 {
		msg := fmt.Sprintf("webhook returned status %d", status)
		result.ErrorMessage = &msg
		return result
	}
	result.Delivered = true
	return result
}

func failure(msg string) Result {
	return Result{ErrorMessage: &msg}
}

func readTruncated(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return ""
	}
	return string(b)
}
