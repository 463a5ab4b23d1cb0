package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dormbot/internal/models"
)

const (
	defaultTimeout   = 5 * time.Second
	maxResponseBytes = 1 << 20
	maxErrorBody     = 256
)

// HTTPExtractor calls POST <endpoint> with {"text": ...}.
type HTTPExtractor struct {
	endpoint   string
	timeout    time.Duration
	httpClient *http.Client
}

// NewHTTPExtractor builds a client for the NLU service. A nil client gets one
// with the given timeout.
func NewHTTPExtractor(endpoint string, timeout time.Duration, client *http.Client) *HTTPExtractor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPExtractor{endpoint: endpoint, timeout: timeout, httpClient: client}
}

func (e *HTTPExtractor) Extract(ctx context.Context, text string) ([]models.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	payload, err := json.Marshal(extractRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("encode nlu request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build nlu request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call nlu: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read nlu response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{Code: resp.StatusCode, Body: snippet}
	}
	return decodeEntities(body)
}
