// Package generate turns meeting transcripts into summaries and follow-up
// email drafts via an external chat model.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"meetscribe/internal/config"
	"meetscribe/internal/models"
)

// ErrMissingCredential reports that no API key is configured for the
// selected provider. The stateless API surfaces this as a configuration
// error; the interactive UI degrades to the demo fallback instead.
var ErrMissingCredential = errors.New("generation credential not configured")

// DefaultGeminiModel is the fixed model identifier used when the provider
// config does not name one.
const DefaultGeminiModel = "gemini-flash-latest"

// chatModel is the slice of the eino model interface the client needs; tests
// substitute fakes through it.
type chatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Client performs one synchronous generation call per transcript. No retry,
// no streaming.
type Client struct {
	model  chatModel
	logger *slog.Logger
}

// NewClient builds the chat model for the configured provider. The provider
// switch mirrors the providers the config file knows about: gemini
// (default), openai, claude.
func NewClient(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	provider := cfg.BasicConfig.Provider
	provCfg := cfg.Providers[provider]
	if provCfg.APIKey == "" {
		return nil, ErrMissingCredential
	}

	var (
		cm  model.ToolCallingChatModel
		err error
	)
	switch provider {
	case "gemini":
		modelName := provCfg.Model
		if modelName == "" {
			modelName = DefaultGeminiModel
		}
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{APIKey: provCfg.APIKey})
		if err != nil {
			return nil, fmt.Errorf("new gemini client: %w", err)
		}
		cm, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  modelName,
		})
	case "openai":
		cm, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
	case "claude":
		var baseURLPtr *string
		if provCfg.BaseURL != "" {
			baseURLPtr = &provCfg.BaseURL
		}
		cm, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: 3000,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", provider, err)
	}
	return &Client{model: cm, logger: logger}, nil
}

// NewClientWithModel wires an already-built chat model; used by tests.
func NewClientWithModel(cm chatModel, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{model: cm, logger: logger}
}

// Generate produces a summary and three email drafts for the transcript.
// It always returns a well-formed result: any transport or parse failure is
// logged for operator diagnosis and replaced by the demo fallback.
func (c *Client) Generate(ctx context.Context, transcript string) *models.GenerationResult {
	prompt := buildPrompt(transcript)
	resp, err := c.model.Generate(ctx, []*schema.Message{
		{Role: schema.User, Content: prompt},
	})
	if err != nil {
		c.logger.Error("generation call failed, falling back to demo result",
			slog.String("error", err.Error()))
		return Fallback()
	}

	result, err := parseReply(resp.Content)
	if err != nil {
		c.logger.Error("generation reply unparseable, falling back to demo result",
			slog.String("error", err.Error()),
			slog.Int("reply_len", len(resp.Content)))
		return Fallback()
	}
	return result
}

// parseReply normalizes and decodes the model reply. Both keys must be
// present; their values are taken verbatim with no count or length checks.
func parseReply(raw string) (*models.GenerationResult, error) {
	cleaned := StripFence(raw)

	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &probe); err != nil {
		return nil, fmt.Errorf("decode reply json: %w", err)
	}
	summaryRaw, ok := probe["summary"]
	if !ok {
		return nil, errors.New("reply missing summary key")
	}
	emailsRaw, ok := probe["emails"]
	if !ok {
		return nil, errors.New("reply missing emails key")
	}

	var result models.GenerationResult
	if err := json.Unmarshal(summaryRaw, &result.Summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}
	if err := json.Unmarshal(emailsRaw, &result.Emails); err != nil {
		return nil, fmt.Errorf("decode emails: %w", err)
	}
	return &result, nil
}
