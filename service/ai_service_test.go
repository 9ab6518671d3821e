package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital_insight_go/config"
)

const testAPIKey = "sk-test-0123456789abcdefghij"

func newTestAiService(retries uint64) *AiService {
	s := NewAiService(config.AIConfig{Timeout: 5 * time.Second, MaxRetries: retries, Temperature: 0.7})
	s.backoff = time.Millisecond
	return s
}

func chatReply(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-1",
		"model":   "gpt-3.5-turbo",
		"created": 1700000000,
		"choices": []map[string]interface{}{{"message": map[string]string{"role": "assistant", "content": content}}},
	}
}

func TestSendRequestChatCompletions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer "+testAPIKey, r.Header.Get("Authorization"))

		var req aiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo", req.Model)
		assert.Equal(t, 800, req.MaxTokens)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		_ = json.NewEncoder(w).Encode(chatReply("你好"))
	}))
	defer srv.Close()

	out, err := newTestAiService(0).SendRequest(context.Background(),
		&AiConfigs{BaseURL: srv.URL, APIKey: testAPIKey, Model: "gpt-3.5-turbo"},
		ChatRequest{System: "sys", Content: "hi", MaxTokens: 800})
	require.NoError(t, err)
	assert.Equal(t, "你好", out)
}

func TestSendRequestFallsBackToResponses(t *testing.T) {
	var chatCalls, responseCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/chat/completions":
			atomic.AddInt32(&chatCalls, 1)
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"Unsupported parameter: reasoning.summary"}}`))
		case "/v1/responses":
			atomic.AddInt32(&responseCalls, 1)
			var req aiRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "hi", req.Input)
			assert.Equal(t, "sys", req.Instructions)
			assert.Empty(t, req.Messages)
			_, _ = w.Write([]byte(`{"id":"resp-1","output_text":"from responses"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	out, err := newTestAiService(0).SendRequest(context.Background(),
		&AiConfigs{BaseURL: srv.URL + "/v1/", APIKey: testAPIKey, Model: "gpt-3.5-turbo"},
		ChatRequest{System: "sys", Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "from responses", out)
	assert.EqualValues(t, 1, atomic.LoadInt32(&chatCalls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&responseCalls))
}

func TestSendRequestRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("boom"))
			return
		}
		_ = json.NewEncoder(w).Encode(chatReply("ok"))
	}))
	defer srv.Close()

	out, err := newTestAiService(2).SendRequest(context.Background(),
		&AiConfigs{BaseURL: srv.URL, APIKey: testAPIKey, Model: "gpt-3.5-turbo"},
		ChatRequest{Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestSendRequestDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid key"}`))
	}))
	defer srv.Close()

	_, err := newTestAiService(3).SendRequest(context.Background(),
		&AiConfigs{BaseURL: srv.URL, APIKey: testAPIKey, Model: "gpt-3.5-turbo"},
		ChatRequest{Content: "hi"})
	require.Error(t, err)
	var statusErr *aiStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestSendRequestIncompleteConfig(t *testing.T) {
	_, err := newTestAiService(0).SendRequest(context.Background(), &AiConfigs{BaseURL: "http://x"}, ChatRequest{})
	assert.Error(t, err)
	_, err = newTestAiService(0).SendRequest(context.Background(), nil, ChatRequest{})
	assert.Error(t, err)
}

func TestBuildEndpoint(t *testing.T) {
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", buildEndpoint("https://api.openai.com/v1", "gpt-3.5-turbo"))
	assert.Equal(t, "http://host/v1/chat/completions", buildEndpoint("http://host/", "gpt-4"))
	assert.Equal(t, "http://host/v1/responses", buildEndpoint("http://host", "o1-mini"))
	assert.Equal(t, "https://api.openai.com/v1/responses", buildEndpoint("https://api.openai.com/v1", "gpt-4.1"))
	assert.False(t, isResponsesModel(""))
	assert.True(t, containsReasoningParamError(`{"param":"reasoning","code":"unsupported_value"}`))
	assert.False(t, containsReasoningParamError(`{"code":"invalid_api_key"}`))
}

func TestAPIKeyHelpers(t *testing.T) {
	assert.True(t, IsValidAPIKey(testAPIKey))
	assert.False(t, IsValidAPIKey("sk-short"))
	assert.False(t, IsValidAPIKey("pk-0123456789abcdefghijklmn"))

	assert.Equal(t, "sk-test********defghij", MaskAPIKey("sk-test01234567defghij"))
	assert.Equal(t, "****", MaskAPIKey("abcd"))
}
