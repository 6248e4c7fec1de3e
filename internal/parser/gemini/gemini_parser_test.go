package gemini_test

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
	"solarops/internal/parser/gemini"
)

func geminiResponse(text, finish string) map[string]interface{} {
	return map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"role":  "model",
					"parts": []map[string]interface{}{{"text": text}},
				},
				"finishReason": finish,
			},
		},
	}
}

func newGeminiTestParser(url string) *gemini.Parser {
	return gemini.NewParserWithEndpoint(&config.ParserProviderConfig{
		Provider:    "gemini",
		APIKey:      "test-gemini-key",
		TimeoutSecs: 5,
	}, url)
}

func TestGeminiParser_ExtractFields_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-gemini-key", r.Header.Get("x-goog-api-key"))

		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		genConfig := reqBody["generationConfig"].(map[string]interface{})
		assert.Equal(t, "application/json", genConfig["responseMimeType"])
		assert.NotNil(t, reqBody["systemInstruction"])

		_ = json.NewEncoder(w).Encode(geminiResponse(
			`{"customer_name":"Meera Iyer","system_capacity_kw":"3.2","panel_serial_numbers":["SN-1"]}`, "STOP"))
	}))
	defer server.Close()

	fs, err := newGeminiTestParser(server.URL).ExtractFields(context.Background(), "Customer Name: Meera Iyer")

	require.NoError(t, err)
	assert.Equal(t, "Meera Iyer", fs.CustomerName)
	assert.Equal(t, "3.2", fs.SystemCapacityKW)
	assert.Equal(t, []string{"SN-1"}, fs.PanelSerialNumbers)
}

func TestGeminiParser_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		genConfig := reqBody["generationConfig"].(map[string]interface{})
		_, hasMime := genConfig["responseMimeType"]
		assert.False(t, hasMime)
		_ = json.NewEncoder(w).Encode(geminiResponse("Request the signed page.", "STOP"))
	}))
	defer server.Close()

	out, err := newGeminiTestParser(server.URL).Complete(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Request the signed page.", out)
}

func TestGeminiParser_Truncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiResponse(`{"customer_name":"Me`, "MAX_TOKENS"))
	}))
	defer server.Close()

	_, err := newGeminiTestParser(server.URL).ExtractFields(context.Background(), "text")
	var exErr *domain.ExtractionError
	require.True(t, errors.As(err, &exErr))
	assert.Contains(t, exErr.Reason, "truncated")
}

func TestGeminiParser_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "5")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer server.Close()

	_, err := newGeminiTestParser(server.URL).ExtractFields(context.Background(), "text")
	rl, ok := parser.AsRateLimit(err)
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, rl.RetryAfter)
}

func TestGeminiParser_EmptyCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	_, err := newGeminiTestParser(server.URL).Complete(context.Background(), "s", "p")
	assert.Error(t, err)
}
