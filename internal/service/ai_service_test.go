package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"pulse_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatStreamDeltas(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"one \"}}]}\n\n")
		fmt.Fprint(w, ": keep-alive comment\n\n")
		fmt.Fprint(w, "data: not-json, skipped\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"two\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	svc := NewAIService(config.AIConfig{BaseURL: srv.URL, APIKey: "test-key", Model: "m", TimeoutSeconds: 5})

	out, errChan := svc.ChatStream(context.Background(), "system prompt", []AIChatMessage{{Role: "user", Content: "hi"}})

	var got string
	for chunk := range out {
		got += chunk
	}
	require.NoError(t, <-errChan)
	// 不符合预期形状的数据块被跳过
	assert.Equal(t, "one two", got)

	assert.Equal(t, true, gotBody["stream"])
	messages := gotBody["messages"].([]interface{})
	require.Len(t, messages, 2)
	first := messages[0].(map[string]interface{})
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "system prompt", first["content"])
}

func TestChatStreamOmitsEmptySystem(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	svc := NewAIService(config.AIConfig{BaseURL: srv.URL, Model: "m", TimeoutSeconds: 5})
	out, errChan := svc.ChatStream(context.Background(), "", []AIChatMessage{{Role: "user", Content: "hi"}})
	for range out {
	}
	require.NoError(t, <-errChan)

	messages := gotBody["messages"].([]interface{})
	require.Len(t, messages, 1)
}

func TestChatStreamUpstreamStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	svc := NewAIService(config.AIConfig{BaseURL: srv.URL, Model: "m", TimeoutSeconds: 5})
	out, errChan := svc.ChatStream(context.Background(), "", []AIChatMessage{{Role: "user", Content: "hi"}})

	for range out {
	}
	err := <-errChan
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
