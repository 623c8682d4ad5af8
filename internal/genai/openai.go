package genai

import (
	"context"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/metcalfc/simplyread/internal/errors"
	"github.com/metcalfc/simplyread/internal/logger"
)

const (
	// DefaultOpenAIModel is used when OpenAIConfig.Model is empty.
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the public OpenAI endpoint. Any compatible
	// server can be substituted.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
)

// OpenAIConfig configures an OpenAI-compatible client.
type OpenAIConfig struct {
	Model   string
	BaseURL string
	Key     KeyFunc
	Options []option.RequestOption
	Logger  *zap.SugaredLogger
}

// OpenAI issues chat completions through openai-go.
type OpenAI struct {
	client openai.Client
	model  string
	key    KeyFunc
	logger *zap.SugaredLogger
}

// NewOpenAI returns a client with defaults filled in. The key is attached
// per request since it is not known until first use.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Named("openai")
	}
	opts := append([]option.RequestOption{
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/") + "/"),
		option.WithMaxRetries(0),
	}, cfg.Options...)

	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		key:    cfg.Key,
		logger: cfg.Logger,
	}
}

// Generate sends the instruction as one user message.
func (o *OpenAI) Generate(ctx context.Context, instruction string) (string, error) {
	if o.key == nil {
		return "", errors.New("openai: no key source configured")
	}
	key, err := o.key(ctx)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(instruction),
		},
	}, option.WithAPIKey(key))
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", errors.Mark(errors.Wrapf(err, "openai returned %d", apiErr.StatusCode), ErrStatus)
		}
		return "", errors.Wrap(err, "openai request")
	}

	o.logger.Debugw("openai response",
		logger.FieldModel, o.model,
		logger.FieldCount, len(resp.Choices),
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
