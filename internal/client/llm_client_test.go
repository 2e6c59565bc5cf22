package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netcopilot/api/internal/apperr"
	"github.com/netcopilot/api/internal/config"
)

func completionBody(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": 3, "completion_tokens": 4, "total_tokens": 7},
	}
}

func TestNewLLMClient_RequiresKey(t *testing.T) {
	_, err := NewLLMClient(&config.LLMConfig{}, nil)
	assert.ErrorIs(t, err, apperr.ErrConfig)
}

func TestComplete_JSONWithImage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completionBody("  {\"ok\":true}\n"))
	}))
	defer srv.Close()

	c, err := NewLLMClient(&config.LLMConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-4o-mini"}, nil)
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), Prompt{
		Model:  "vision-model",
		System: "be terse",
		User:   "describe",
		Images: []Image{{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}},
		JSON:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)

	assert.Equal(t, "vision-model", got["model"])
	assert.Equal(t, "json_object", got["response_format"].(map[string]any)["type"])
	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	parts := messages[1].(map[string]any)["content"].([]any)
	require.Len(t, parts, 2)
	imageURL := parts[1].(map[string]any)["image_url"].(map[string]any)["url"].(string)
	assert.Contains(t, imageURL, "data:image/png;base64,")
}

func TestComplete_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	c, err := NewLLMClient(&config.LLMConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "nope"}, nil)
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Prompt{User: "hi"})
	assert.ErrorIs(t, err, apperr.ErrRemote)
}
