package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var jsonObjectFormat = map[string]string{"type": "json_object"}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

// chatMessage content is a plain string or a list of content parts.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type         string        `json:"type"`
	Text         string        `json:"text"`
	CacheControl *cacheControl `json:"cache_control,omitempty"`
}

type cacheControl struct {
	Type string `json:"type"`
}

type chatChoice struct {
	Message replyMessage `json:"message"`
	// Some providers answer in the streaming schema even when stream=false.
	Delta        replyMessage `json:"delta"`
	Text         string       `json:"text"`
	FinishReason string       `json:"finish_reason"`
}

type replyMessage struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// reply returns the first non-empty choice text. When there is none it
// describes why in an *emptyReplyError.
func (r chatResponse) reply(op string, body []byte) (string, error) {
	empty := &emptyReplyError{op: op, snippet: snippet(string(body))}
	for _, ch := range r.Choices {
		if text := firstNonEmpty(ch.Message.Content, ch.Delta.Content, ch.Text); text != "" {
			return text, nil
		}
		if empty.finishReason == "" {
			empty.finishReason = strings.TrimSpace(ch.FinishReason)
		}
		if empty.refusal == "" {
			empty.refusal = firstNonEmpty(ch.Message.Refusal, ch.Delta.Refusal)
		}
	}
	return "", empty
}

type statusError struct {
	code       int
	body       string
	retryAfter time.Duration
}

func (e *statusError) Error() string {
	return fmt.Sprintf("llm request: http %d: %s", e.code, e.body)
}

type emptyReplyError struct {
	op           string
	finishReason string
	refusal      string
	snippet      string
}

func (e *emptyReplyError) Error() string {
	return fmt.Sprintf("%s: empty content (finish_reason=%q, refusal=%q, response_snippet=%s)",
		e.op, e.finishReason, e.refusal, e.snippet)
}

func (c *Client) send(ctx context.Context, op string, payload chatRequest) (string, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("llm request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("llm request: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
		req.Header.Set("Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request: http error (timeout=%s): %w", c.http.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("llm request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return "", &statusError{
			code:       resp.StatusCode,
			body:       strings.TrimSpace(string(body)),
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("llm request: decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("llm request: api error: %s", strings.TrimSpace(parsed.Error.Message))
	}
	return parsed.reply(op, body)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
