package claude

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"solarops/internal/config"
	"solarops/internal/domain"
	"solarops/internal/parser"
)

const providerName = "claude"

func init() {
	parser.RegisterProvider(providerName, func(cfg *config.ParserProviderConfig) (parser.Provider, error) {
		return NewParser(cfg), nil
	})
}

// Parser implements field extraction and completion using the Anthropic Messages API.
type Parser struct {
	client  sdk.Client
	model   string
	limiter *rate.Limiter
}

// NewParser creates a Claude-backed provider. cfg.BaseURL overrides the API host.
func NewParser(cfg *config.ParserProviderConfig) *Parser {
	model := cfg.DefaultModel
	if model == "" {
		model = "claude-sonnet-4-5"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(timeout),
		// Rate limits open the fallback circuit instead of retrying here.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Parser{
		client:  sdk.NewClient(opts...),
		model:   model,
		limiter: parser.NewLimiter(cfg.RequestsPerMinute),
	}
}

// ExtractFields asks the model for the FieldSet as a JSON object.
func (p *Parser) ExtractFields(ctx context.Context, text string) (*domain.FieldSet, error) {
	content, err := p.message(ctx, parser.ExtractionSystemPrompt, parser.BuildFieldPrompt(text))
	if err != nil {
		return nil, err
	}
	return parser.DecodeFields(providerName, content)
}

// Complete returns a plain-text completion.
func (p *Parser) Complete(ctx context.Context, system, prompt string) (string, error) {
	return p.message(ctx, system, prompt)
}

func (p *Parser) message(ctx context.Context, system, prompt string) (string, error) {
	if err := parser.Wait(ctx, providerName, p.limiter); err != nil {
		return "", err
	}

	msg, err := p.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(p.model),
		MaxTokens: 2048,
		System:    []sdk.TextBlockParam{{Text: system}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
		Temperature: sdk.Float(0),
	})
	if err != nil {
		var apiErr *sdk.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			retryAfter := 0
			if apiErr.Response != nil {
				retryAfter = parser.ParseRetryAfterHeader(apiErr.Response.Header.Get("Retry-After"))
			}
			return "", domain.NewExtractionError(providerName, "rate limited",
				parser.NewRateLimitError(providerName, err, retryAfter))
		}
		return "", domain.NewExtractionError(providerName, "calling API", err)
	}

	if msg.StopReason == sdk.StopReasonMaxTokens {
		return "", domain.NewExtractionError(providerName, "output truncated (stop_reason: max_tokens)", nil)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", domain.NewExtractionError(providerName, "empty response: no text content", nil)
	}
	return b.String(), nil
}
