package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lisaguthrie/sipdashboard/internal/logging"
	"github.com/lisaguthrie/sipdashboard/internal/services/gemini"
)

func TestClassifySendsSystemInstruction(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": `{"focus_grades":"K-2","focus_student_group":"All Students"}`}},
				},
				"finishReason": "STOP",
			}},
		})
	}))
	defer server.Close()

	client, err := gemini.New(context.Background(), gemini.Config{
		APIKey:    "test-key",
		BaseURL:   server.URL,
		Model:     "gemini-test",
		MaxTokens: 100,
		JSONMode:  true,
	}, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	reply, err := client.Classify(context.Background(), "normalize focus", "goal")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if reply != `{"focus_grades":"K-2","focus_student_group":"All Students"}` {
		t.Fatalf("unexpected reply %q", reply)
	}
	if _, ok := captured["systemInstruction"]; !ok {
		t.Fatalf("expected systemInstruction in request, got keys %v", captured)
	}
	config, _ := captured["generationConfig"].(map[string]any)
	if config["responseMimeType"] != "application/json" {
		t.Fatalf("expected json response type, got %v", config)
	}
}

func TestNewRequiresKeyAndModel(t *testing.T) {
	if _, err := gemini.New(context.Background(), gemini.Config{Model: "m"}, logging.NewNop()); err == nil {
		t.Fatal("expected missing key error")
	}
	if _, err := gemini.New(context.Background(), gemini.Config{APIKey: "k"}, logging.NewNop()); err == nil {
		t.Fatal("expected missing model error")
	}
}
