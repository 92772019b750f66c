// Package chat is a minimal client for OpenAI-compatible chat-completion
// endpoints. It sends one system message and one user message per request
// and returns the first choice's content, reassembling streamed deltas.
package chat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const (
	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"
	// DefaultTopP requests a focused, low-variance continuation.
	DefaultTopP = 0.5
	// DefaultTimeout bounds a single request including the streamed body.
	DefaultTimeout = 10 * time.Minute
)

// Config describes how to reach the backend.
type Config struct {
	// BaseURL is the API root, e.g. https://api.openai.com/v1.
	BaseURL string
	// APIKey is sent as a bearer token.
	APIKey string
	// Model is the model identifier.
	Model string
	// TopP is the nucleus sampling parameter. Zero means DefaultTopP.
	TopP float64
	// Stream requests server-sent events.
	Stream bool
	// Proxy is an optional HTTP/HTTPS proxy URL. Empty means the
	// HTTP_PROXY/HTTPS_PROXY environment.
	Proxy string
	// Timeout is the per-request timeout. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Client sends chat-completion requests.
type Client struct {
	cfg  Config
	http *http.Client
	log  logrus.FieldLogger
}

// New builds a Client. log may be nil.
func New(cfg Config, log logrus.FieldLogger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TopP == 0 {
		cfg.TopP = DefaultTopP
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		cfg:  cfg,
		http: makeHTTPClient(cfg.Proxy, cfg.Timeout),
		log:  log,
	}
}

// ---------------------------------------------------------------------------
// HTTP client with proxy support
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// Request
// ---------------------------------------------------------------------------

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	TopP     float64   `json:"top_p"`
	Stream   bool      `json:"stream"`
}

func buildRequest(model, systemPrompt, userText string, topP float64, stream bool) ([]byte, error) {
	return json.Marshal(request{
		Model: model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userText},
		},
		TopP:   topP,
		Stream: stream,
	})
}

// endpoint appends /chat/completions unless the base URL already ends with it.
func endpoint(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	if strings.HasSuffix(base, "/chat/completions") {
		return base
	}
	return base + "/chat/completions"
}

// Complete sends systemPrompt and userText and returns the model's answer.
// Any transport failure, non-2xx status or unparsable body is returned as
// an *APIError.
func (c *Client) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	body, err := buildRequest(c.cfg.Model, systemPrompt, userText, c.cfg.TopP, c.cfg.Stream)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	target := endpoint(c.cfg.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if c.cfg.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	c.log.WithFields(logrus.Fields{"url": target, "model": c.cfg.Model, "bytes": len(body)}).Debug("POST chat completion")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &APIError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return "", newStatusError(resp.StatusCode, raw)
	}

	if isEventStream(resp) {
		return readStream(resp.Body)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &APIError{StatusCode: resp.StatusCode, Message: "reading response", Err: err}
	}
	return extractContent(raw)
}

func isEventStream(resp *http.Response) bool {
	return strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream")
}

// ---------------------------------------------------------------------------
// Response parsing
// ---------------------------------------------------------------------------

// extractContent reads choices[0].message.content from a non-streamed body.
// A null or missing content field yields "".
func extractContent(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", &APIError{Message: "invalid JSON response", Body: truncate(string(body), 500)}
	}
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
		return "", &APIError{Message: msg.String(), Body: truncate(string(body), 500)}
	}
	choice := gjson.GetBytes(body, "choices.0")
	if !choice.Exists() {
		return "", &APIError{Message: "response has no choices", Body: truncate(string(body), 500)}
	}
	return choice.Get("message.content").String(), nil
}

// readStream concatenates choices[0].delta.content from every SSE data
// event until [DONE] or EOF.
func readStream(r io.Reader) (string, error) {
	var out strings.Builder

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), 4<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload == "[DONE]" {
			break
		}
		if !gjson.Valid(payload) {
			return "", &APIError{Message: "invalid stream event", Body: truncate(payload, 500)}
		}
		if msg := gjson.Get(payload, "error.message"); msg.Exists() {
			return "", &APIError{Message: msg.String(), Body: truncate(payload, 500)}
		}

		choice := gjson.Get(payload, "choices.0")
		if delta := choice.Get("delta.content"); delta.Exists() {
			out.WriteString(delta.String())
		} else if full := choice.Get("message.content"); full.Exists() {
			out.WriteString(full.String())
		}
	}
	if err := scanner.Err(); err != nil {
		return "", &APIError{Message: "reading stream", Err: err}
	}

	return out.String(), nil
}

// truncate shortens s to at most maxLen bytes without splitting a rune.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
