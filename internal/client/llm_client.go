package client

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"

	"github.com/netcopilot/api/internal/apperr"
	"github.com/netcopilot/api/internal/config"
)

// Image is an inline image attached to a prompt.
type Image struct {
	MIMEType string
	Data     []byte
}

// Prompt is a single system+user chat completion request.
type Prompt struct {
	// Model overrides the client default when set.
	Model       string
	System      string
	User        string
	Images      []Image
	JSON        bool
	Temperature float64
}

// LLMClient talks to an OpenAI-compatible chat completions endpoint.
type LLMClient struct {
	client openai.Client
	models config.LLMConfig
	logger *zap.Logger
}

// NewLLMClient returns a client for cfg. A missing API key is a
// configuration error.
func NewLLMClient(cfg *config.LLMConfig, logger *zap.Logger) (*LLMClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, apperr.Wrap(apperr.ErrConfig, "llm api key is not set")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}

	return &LLMClient{
		client: openai.NewClient(opts...),
		models: *cfg,
		logger: logger,
	}, nil
}

// Model returns the default text model.
func (c *LLMClient) Model() string { return c.models.Model }

// VisionModel returns the model used for image prompts.
func (c *LLMClient) VisionModel() string { return c.models.VisionModel }

// ChatModel returns the model used for conversational replies.
func (c *LLMClient) ChatModel() string { return c.models.ChatModel }

// Complete runs p and returns the trimmed content of the first choice.
func (c *LLMClient) Complete(ctx context.Context, p Prompt) (string, error) {
	model := p.Model
	if model == "" {
		model = c.models.Model
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if p.System != "" {
		messages = append(messages, openai.SystemMessage(p.System))
	}
	if len(p.Images) == 0 {
		messages = append(messages, openai.UserMessage(p.User))
	} else {
		parts := []openai.ChatCompletionContentPartUnionParam{openai.TextContentPart(p.User)}
		for _, img := range p.Images {
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
			}))
		}
		messages = append(messages, openai.UserMessage(parts))
	}

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(model),
		Messages:    messages,
		Temperature: openai.Float(p.Temperature),
	}
	if p.JSON {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		}
	}

	c.logger.Debug("llm request", zap.String("model", model), zap.Int("images", len(p.Images)), zap.Bool("json", p.JSON))

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", apperr.Wrap(apperr.ErrRemote, "llm call failed: %v", err)
	}
	if len(completion.Choices) == 0 {
		return "", apperr.Wrap(apperr.ErrRemote, "llm returned no choices")
	}

	c.logger.Debug("llm response", zap.String("model", model), zap.Int64("tokens", completion.Usage.TotalTokens))
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
