package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"solarops/internal/config"
	"solarops/internal/domain"
	"solarops/internal/parser"
)

const (
	apiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/models"
	providerName = "gemini"
)

func init() {
	parser.RegisterProvider(providerName, func(cfg *config.ParserProviderConfig) (parser.Provider, error) {
		return newParser(cfg, cfg.BaseURL), nil
	})
}

// Parser implements field extraction and completion using Google's Gemini API.
type Parser struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewParser creates a Gemini-backed provider.
func NewParser(cfg *config.ParserProviderConfig) *Parser {
	return newParser(cfg, "")
}

// NewParserWithEndpoint creates a parser pointing at a custom API endpoint (for testing).
func NewParserWithEndpoint(cfg *config.ParserProviderConfig, endpoint string) *Parser {
	return newParser(cfg, endpoint)
}

func newParser(cfg *config.ParserProviderConfig, endpoint string) *Parser {
	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	return &Parser{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
		limiter:  parser.NewLimiter(cfg.RequestsPerMinute),
	}
}

// ExtractFields asks the model for the FieldSet as a JSON object.
func (p *Parser) ExtractFields(ctx context.Context, text string) (*domain.FieldSet, error) {
	content, err := p.generate(ctx, parser.ExtractionSystemPrompt, parser.BuildFieldPrompt(text), true)
	if err != nil {
		return nil, err
	}
	return parser.DecodeFields(providerName, content)
}

// Complete returns a plain-text completion.
func (p *Parser) Complete(ctx context.Context, system, prompt string) (string, error) {
	return p.generate(ctx, system, prompt, false)
}

func (p *Parser) generate(ctx context.Context, system, prompt string, jsonMode bool) (string, error) {
	if err := parser.Wait(ctx, providerName, p.limiter); err != nil {
		return "", err
	}

	genConfig := map[string]interface{}{
		"maxOutputTokens": 2048,
		"temperature":     0,
	}
	if jsonMode {
		genConfig["responseMimeType"] = "application/json"
	}
	reqBody := map[string]interface{}{
		"systemInstruction": map[string]interface{}{
			"parts": []map[string]interface{}{{"text": system}},
		},
		"contents": []map[string]interface{}{
			{
				"role":  "user",
				"parts": []map[string]interface{}{{"text": prompt}},
			},
		},
		"generationConfig": genConfig,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", domain.NewExtractionError(providerName, "marshaling request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", domain.NewExtractionError(providerName, "creating request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", domain.NewExtractionError(providerName, "calling API", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.NewExtractionError(providerName, "reading response", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 300))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := parser.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return "", domain.NewExtractionError(providerName, "rate limited",
				parser.NewRateLimitError(providerName, baseErr, retryAfter))
		}
		return "", domain.NewExtractionError(providerName, "API error", baseErr)
	}

	return parseResponse(respBody)
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func parseResponse(body []byte) (string, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", domain.NewExtractionError(providerName, "unmarshaling response", err)
	}
	if len(resp.Candidates) == 0 {
		return "", domain.NewExtractionError(providerName, "empty response: no candidates", nil)
	}
	c := resp.Candidates[0]
	if c.FinishReason == "MAX_TOKENS" {
		return "", domain.NewExtractionError(providerName, "output truncated (finishReason: MAX_TOKENS)", nil)
	}

	var b strings.Builder
	for _, part := range c.Content.Parts {
		b.WriteString(part.Text)
	}
	if b.Len() == 0 {
		return "", domain.NewExtractionError(providerName, "empty response: no parts", nil)
	}
	return b.String(), nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
