// Tests for chat session construction and wire-level message ordering.
package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestNewChatSessionUnknownProvider rejects unrecognized provider names.
func TestNewChatSessionUnknownProvider(t *testing.T) {
	config := &Config{Provider: "ferengi"}
	if _, err := NewChatSession(context.Background(), config, "prompt"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

// TestOpenAISessionSend drives the OpenAI-compatible session against a stub
// endpoint and checks the system-first, history-in-order message layout.
func TestOpenAISessionSend(t *testing.T) {
	type wireMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	var captured []wireMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req struct {
			Messages []wireMessage `json:"messages"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		captured = req.Messages

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","created":0,"model":"m",` +
			`"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Engage."}}]}`))
	}))
	defer srv.Close()

	session := newOpenAISession(&Config{
		Model:         "test-model",
		OpenAIAPIKey:  "test-key",
		OpenAIBaseURL: srv.URL,
	}, "system instruction")

	history := []Turn{
		{Role: RoleUser, Text: "status report"},
		{Role: RoleModel, Text: "all systems nominal"},
	}
	reply, err := session.Send(context.Background(), history, "set a course")
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if reply != "Engage." {
		t.Fatalf("reply = %q", reply)
	}

	want := []wireMessage{
		{Role: "system", Content: "system instruction"},
		{Role: "user", Content: "status report"},
		{Role: "assistant", Content: "all systems nominal"},
		{Role: "user", Content: "set a course"},
	}
	if len(captured) != len(want) {
		t.Fatalf("sent %d messages, want %d: %v", len(captured), len(want), captured)
	}
	for i := range want {
		if captured[i] != want[i] {
			t.Fatalf("message %d = %+v, want %+v", i, captured[i], want[i])
		}
	}
}

// TestOpenAISessionSendError surfaces endpoint failures to the caller.
func TestOpenAISessionSendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid request"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	session := newOpenAISession(&Config{
		Model:         "test-model",
		OpenAIAPIKey:  "test-key",
		OpenAIBaseURL: srv.URL,
	}, "system instruction")

	if _, err := session.Send(context.Background(), nil, "hello"); err == nil {
		t.Fatal("expected error from failing endpoint")
	}
}
