package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarops/internal/config"
	"solarops/internal/domain"
	"solarops/internal/parser"
	openai "solarops/internal/parser/openai"
)

func newOpenAITestParser(serverURL string) *openai.Parser {
	cfg := &config.ParserProviderConfig{
		Provider:     "openai",
		APIKey:       "test-openai-key",
		DefaultModel: "gpt-4o-mini",
		TimeoutSecs:  5,
	}
	return openai.NewParserWithEndpoint(cfg, serverURL)
}

func openaiSuccessResponse(content string) map[string]interface{} {
	return map[string]interface{}{
		"choices": []map[string]interface{}{
			{
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
	}
}

func TestOpenAIParser_ExtractFields_Success(t *testing.T) {
	llmJSON := `{"customer_name":"Priya Raman","system_capacity_kw":5.5,"panel_serial_numbers":["PNL-1","PNL-2"],"signature_found":true,"rebate_amount":null}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-openai-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "gpt-4o-mini", reqBody["model"])
		assert.NotNil(t, reqBody["response_format"])

		messages := reqBody["messages"].([]interface{})
		assert.Len(t, messages, 2)
		user := messages[1].(map[string]interface{})
		assert.Equal(t, "user", user["role"])
		assert.Contains(t, user["content"], "Panel SN: PNL-1")

		_ = json.NewEncoder(w).Encode(openaiSuccessResponse(llmJSON))
	}))
	defer server.Close()

	p := newOpenAITestParser(server.URL)
	fs, err := p.ExtractFields(context.Background(), "Panel SN: PNL-1")

	require.NoError(t, err)
	assert.Equal(t, "Priya Raman", fs.CustomerName)
	assert.Equal(t, "5.5", fs.SystemCapacityKW)
	assert.Equal(t, []string{"PNL-1", "PNL-2"}, fs.PanelSerialNumbers)
	assert.True(t, fs.SignatureFound)
	assert.Empty(t, fs.RebateAmount)
}

func TestOpenAIParser_ExtractFields_UnknownKeyRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openaiSuccessResponse(`{"customer_name":"A","permit_number":"X"}`))
	}))
	defer server.Close()

	_, err := newOpenAITestParser(server.URL).ExtractFields(context.Background(), "text")

	var exErr *domain.ExtractionError
	require.True(t, errors.As(err, &exErr))
	assert.Equal(t, "openai", exErr.Provider)
}

func TestOpenAIParser_ExtractFields_NonJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openaiSuccessResponse("Sorry, I cannot read this document."))
	}))
	defer server.Close()

	_, err := newOpenAITestParser(server.URL).ExtractFields(context.Background(), "text")

	var exErr *domain.ExtractionError
	assert.True(t, errors.As(err, &exErr))
}

func TestOpenAIParser_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limit"}}`))
	}))
	defer server.Close()

	_, err := newOpenAITestParser(server.URL).ExtractFields(context.Background(), "text")

	require.Error(t, err)
	rl, ok := parser.AsRateLimit(err)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, rl.RetryAfter)
	var exErr *domain.ExtractionError
	assert.True(t, errors.As(err, &exErr))
}

func TestOpenAIParser_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newOpenAITestParser(server.URL).ExtractFields(context.Background(), "text")

	require.Error(t, err)
	_, ok := parser.AsRateLimit(err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "status 500")
}

func TestOpenAIParser_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := newOpenAITestParser(server.URL).ExtractFields(context.Background(), "text")
	assert.Error(t, err)
}

func TestOpenAIParser_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		_, hasFormat := reqBody["response_format"]
		assert.False(t, hasFormat)
		_ = json.NewEncoder(w).Encode(openaiSuccessResponse("Re-scan page 2."))
	}))
	defer server.Close()

	out, err := newOpenAITestParser(server.URL).Complete(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Re-scan page 2.", out)
}

func TestOpenAIParser_RegisteredInFactory(t *testing.T) {
	p, err := parser.NewProvider(&config.ParserProviderConfig{Provider: "openai", BaseURL: "http://127.0.0.1:0"})
	require.NoError(t, err)
	assert.NotNil(t, p)
}
