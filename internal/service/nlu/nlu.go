// Package nlu extracts typed entities (names, room numbers, dates, ...) from
// free text. The default implementation calls an external NLU service; a chat
// model can stand in for it.
package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"dormbot/internal/config"
	"dormbot/internal/metrics"
	"dormbot/internal/models"
)

// ErrMalformedResponse is returned when the NLU answer cannot be decoded.
var ErrMalformedResponse = errors.New("malformed nlu response")

// Extractor turns a message into entities. An empty result is not an error.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]models.Entity, error)
}

// StatusError reports a non-2xx answer from the NLU service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("nlu service returned status %d", e.Code)
	}
	return fmt.Sprintf("nlu service returned status %d: %s", e.Code, e.Body)
}

type extractRequest struct {
	Text string `json:"text"`
}

type extractResponse struct {
	Entities *[]models.Entity `json:"entities"`
}

// decodeEntities parses {"entities":[...]}. A body without the entities key
// is malformed; an empty array is a valid "nothing found".
func decodeEntities(data []byte) ([]models.Entity, error) {
	var resp extractResponse
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if resp.Entities == nil {
		return nil, fmt.Errorf("%w: missing entities", ErrMalformedResponse)
	}
	out := make([]models.Entity, 0, len(*resp.Entities))
	for _, e := range *resp.Entities {
		e.Value = strings.TrimSpace(e.Value)
		if e.Type == "" || e.Value == "" {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// NewExtractor builds the extractor selected by cfg.Provider.
func NewExtractor(ctx context.Context, cfg config.NLUConfig) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "http":
		if cfg.Endpoint == "" {
			return nil, errors.New("nlu.endpoint must be configured for the http provider")
		}
		return NewHTTPExtractor(cfg.Endpoint, cfg.Timeout, nil), nil
	case "openai", "claude", "gemini":
		chatModel, err := NewChatModel(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return NewModelExtractor(chatModel, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown nlu provider: %s", cfg.Provider)
	}
}

type observed struct {
	next    Extractor
	metrics *metrics.Metrics
}

// Observe records the outcome and latency of every call made through next.
func Observe(next Extractor, m *metrics.Metrics) Extractor {
	if m == nil {
		return next
	}
	return &observed{next: next, metrics: m}
}

func (o *observed) Extract(ctx context.Context, text string) ([]models.Entity, error) {
	start := time.Now()
	entities, err := o.next.Extract(ctx, text)
	o.metrics.ObserveNLU(Result(entities, err), time.Since(start))
	return entities, err
}

// Result classifies an extraction outcome for logs and metrics.
func Result(entities []models.Entity, err error) string {
	var statusErr *StatusError
	switch {
	case err == nil && len(entities) == 0:
		return "empty"
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &statusErr):
		return "status"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	default:
		return "error"
	}
}
