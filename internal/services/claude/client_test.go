package claude_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lisaguthrie/sipdashboard/internal/logging"
	"github.com/lisaguthrie/sipdashboard/internal/services/claude"
)

func messageReply(text string) map[string]any {
	return map[string]any{
		"id":            "msg_1",
		"type":          "message",
		"role":          "assistant",
		"model":         "claude-test",
		"stop_reason":   "stop_sequence",
		"stop_sequence": "```",
		"content":       []any{map[string]any{"type": "text", "text": text}},
		"usage": map[string]any{
			"input_tokens":            12,
			"output_tokens":           8,
			"cache_read_input_tokens": 400,
		},
	}
}

func newServer(t *testing.T, captured *map[string]any, reply map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/messages") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(reply)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClassifyUsesPrefillStopAndCache(t *testing.T) {
	var captured map[string]any
	server := newServer(t, &captured, messageReply("\n{\"focus_grades\":\"3-5\",\"focus_student_group\":\"ML\"}\n"))

	client, err := claude.New(claude.Config{
		APIKey:            "test-key",
		BaseURL:           server.URL,
		Model:             "claude-test",
		MaxTokens:         100,
		Prefill:           "```json",
		StopSequences:     []string{"```"},
		CacheInstructions: true,
		MaxRetries:        -1,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	reply, err := client.Classify(context.Background(), "normalize focus", `{"school_name":"Lincoln"}`)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if reply != `{"focus_grades":"3-5","focus_student_group":"ML"}` {
		t.Fatalf("unexpected reply %q", reply)
	}

	if captured["max_tokens"] != float64(100) {
		t.Fatalf("expected max_tokens 100, got %v", captured["max_tokens"])
	}
	stops, _ := captured["stop_sequences"].([]any)
	if len(stops) != 1 || stops[0] != "```" {
		t.Fatalf("unexpected stop sequences %v", captured["stop_sequences"])
	}
	system, _ := captured["system"].([]any)
	if len(system) != 1 {
		t.Fatalf("expected one system block, got %v", captured["system"])
	}
	block, _ := system[0].(map[string]any)
	control, _ := block["cache_control"].(map[string]any)
	if block["text"] != "normalize focus" || control["type"] != "ephemeral" {
		t.Fatalf("unexpected system block %v", block)
	}
	messages, _ := captured["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected user and assistant turns, got %d", len(messages))
	}
	last, _ := messages[1].(map[string]any)
	if last["role"] != "assistant" {
		t.Fatalf("expected assistant prefill, got %v", last["role"])
	}
}

func TestClassifyWithoutPrefill(t *testing.T) {
	var captured map[string]any
	server := newServer(t, &captured, messageReply("Teachers will co-plan weekly."))

	client, err := claude.New(claude.Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Model:      "claude-test",
		MaxRetries: -1,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	reply, err := client.Classify(context.Background(), "summarize", "strategies")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if reply != "Teachers will co-plan weekly." {
		t.Fatalf("unexpected reply %q", reply)
	}
	messages, _ := captured["messages"].([]any)
	if len(messages) != 1 {
		t.Fatalf("expected a single user turn, got %d", len(messages))
	}
	if _, present := captured["stop_sequences"]; present {
		t.Fatalf("did not expect stop sequences, got %v", captured["stop_sequences"])
	}
	system, _ := captured["system"].([]any)
	block, _ := system[0].(map[string]any)
	if _, present := block["cache_control"]; present {
		t.Fatalf("did not expect cache control, got %v", block)
	}
}

func TestClassifyReportsAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	client, err := claude.New(claude.Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Model:      "claude-test",
		MaxRetries: -1,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Classify(context.Background(), "system", "user"); err == nil {
		t.Fatal("expected error")
	}
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check error")
	}
}

func TestNewRequiresKeyAndModel(t *testing.T) {
	if _, err := claude.New(claude.Config{Model: "m"}, logging.NewNop()); err == nil {
		t.Fatal("expected missing key error")
	}
	if _, err := claude.New(claude.Config{APIKey: "k"}, logging.NewNop()); err == nil {
		t.Fatal("expected missing model error")
	}
}
