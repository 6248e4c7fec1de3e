package claude_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarops/internal/config"
	"solarops/internal/domain"
	"solarops/internal/parser"
	"solarops/internal/parser/claude"
)

func messageResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"id":            "msg_test",
		"type":          "message",
		"role":          "assistant",
		"model":         "claude-sonnet-4-5",
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"content": []map[string]interface{}{
			{"type": "text", "text": text},
		},
		"usage": map[string]interface{}{"input_tokens": 12, "output_tokens": 8},
	}
}

func newClaudeTestServer(t *testing.T, status int, body interface{}, headers map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"))
		assert.Equal(t, "test-claude-key", r.Header.Get("X-Api-Key"))
		for k, v := range headers {
			w.Header().Set(k, v)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func newClaudeTestParser(url string) *claude.Parser {
	return claude.NewParser(&config.ParserProviderConfig{
		Provider:     "claude",
		APIKey:       "test-claude-key",
		DefaultModel: "claude-sonnet-4-5",
		BaseURL:      url,
		TimeoutSecs:  5,
	})
}

func TestClaudeParser_ExtractFields_Success(t *testing.T) {
	server := newClaudeTestServer(t, http.StatusOK,
		messageResponse("```json\n{\"customer_name\":\"Arun Kumar\",\"install_date\":\"01/02/2024\",\"panel_serial_numbers\":\"PNL-9\"}\n```"), nil)
	defer server.Close()

	fs, err := newClaudeTestParser(server.URL).ExtractFields(context.Background(), "Install Date: 01/02/2024")

	require.NoError(t, err)
	assert.Equal(t, "Arun Kumar", fs.CustomerName)
	assert.Equal(t, "01/02/2024", fs.InstallDate)
	assert.Equal(t, []string{"PNL-9"}, fs.PanelSerialNumbers)
	assert.False(t, fs.SignatureFound)
}

func TestClaudeParser_ExtractFields_SchemaViolation(t *testing.T) {
	server := newClaudeTestServer(t, http.StatusOK,
		messageResponse(`{"signature_found":"maybe"}`), nil)
	defer server.Close()

	_, err := newClaudeTestParser(server.URL).ExtractFields(context.Background(), "text")

	var exErr *domain.ExtractionError
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, "claude", exErr.Provider)
}

func TestClaudeParser_RateLimited(t *testing.T) {
	server := newClaudeTestServer(t, http.StatusTooManyRequests,
		map[string]interface{}{"type": "error", "error": map[string]string{"type": "rate_limit_error", "message": "slow down"}},
		map[string]string{"Retry-After": "12"})
	defer server.Close()

	_, err := newClaudeTestParser(server.URL).ExtractFields(context.Background(), "text")

	rl, ok := parser.AsRateLimit(err)
	require.True(t, ok)
	assert.Equal(t, 12*time.Second, rl.RetryAfter)
}

func TestClaudeParser_Complete(t *testing.T) {
	server := newClaudeTestServer(t, http.StatusOK, messageResponse("Collect the signed form."), nil)
	defer server.Close()

	out, err := newClaudeTestParser(server.URL).Complete(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Collect the signed form.", out)
}

func TestClaudeParser_ServerError(t *testing.T) {
	server := newClaudeTestServer(t, http.StatusBadRequest,
		map[string]interface{}{"type": "error", "error": map[string]string{"type": "invalid_request_error", "message": "bad"}}, nil)
	defer server.Close()

	_, err := newClaudeTestParser(server.URL).ExtractFields(context.Background(), "text")

	require.Error(t, err)
	_, ok := parser.AsRateLimit(err)
	assert.False(t, ok)
}
