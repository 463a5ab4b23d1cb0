package nlu

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"dormbot/internal/config"
	"dormbot/internal/models"
)

// Generator is the part of an eino chat model the extractor needs.
type Generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

const extractionPrompt = "You extract entities from messages sent to a dormitory administration assistant. " +
	"Recognised entity types are firstName, lastName, identifier (a resident id), roomNumber, " +
	"startDate, endDate (contract dates, formatted YYYY-MM-DD) and status (a payment status such as paid or unpaid). " +
	"Answer with JSON only, in the form {\"entities\":[{\"entity\":\"<type>\",\"value\":\"<text>\"}]}. " +
	"Use an empty array when nothing applies. Do not add any other text."

// ModelExtractor asks a chat model for the same JSON body the NLU service returns.
type ModelExtractor struct {
	chatModel Generator
	timeout   time.Duration
}

func NewModelExtractor(chatModel Generator, timeout time.Duration) *ModelExtractor {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ModelExtractor{chatModel: chatModel, timeout: timeout}
}

func (e *ModelExtractor) Extract(ctx context.Context, text string) ([]models.Entity, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.chatModel.Generate(ctx, []*schema.Message{
		{Role: schema.System, Content: extractionPrompt},
		{Role: schema.User, Content: text},
	})
	if err != nil {
		return nil, fmt.Errorf("generate entities: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty model answer", ErrMalformedResponse)
	}
	return decodeEntities([]byte(stripCodeFence(resp.Content)))
}

// stripCodeFence removes a ```json ... ``` wrapper some models add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// NewChatModel builds the eino chat model for cfg.Provider.
func NewChatModel(ctx context.Context, cfg config.NLUConfig) (model.ToolCallingChatModel, error) {
	if cfg.Model == "" {
		return nil, errors.New("nlu.model must be configured for model providers")
	}
	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey: cfg.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  cfg.Model,
		})
	case "claude":
		var baseURL *string
		if cfg.BaseURL != "" {
			baseURL = &cfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   baseURL,
			MaxTokens: 512,
		})
	default:
		return nil, fmt.Errorf("unknown model provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", cfg.Provider, err)
	}
	return chatModel, nil
}
