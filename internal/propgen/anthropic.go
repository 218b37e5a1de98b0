package propgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rig-animator/internal/logging"
)

const (
	anthropicAPIURL  = "https://api.anthropic.com/v1/messages"
	anthropicVersion = "2023-06-01"
	defaultModel     = "claude-sonnet-4-5"
	defaultRetries   = 3
	maxTokens        = 2048
)

const systemPrompt = `You draw simple props for a 2D stick-figure animation tool.
Reply with a single JSON object and nothing else:
{"name": "<short lowercase name>", "path": "<SVG path data>", "viewBox": [minX, minY, width, height]}
The outline must be centered on the origin of its viewBox so the prop's grip sits at (0, 0).
Use absolute commands only (M, L, H, V, C, Q, Z).`

// errRetryable marks failures worth another attempt.
var errRetryable = errors.New("retryable")

// AnthropicGenerator asks the Anthropic Messages API for an outline.
type AnthropicGenerator struct {
	APIKey     string
	Model      string
	URL        string
	MaxRetries int
	// Backoff returns the wait before retry attempt i (0-based).
	// Nil means 1s, 2s, 4s, ...
	Backoff    func(i int) time.Duration
	HTTPClient *http.Client
}

// NewAnthropicGenerator returns a generator with default endpoint, model and
// retry policy.
func NewAnthropicGenerator(apiKey, model string) *AnthropicGenerator {
	if model == "" {
		model = defaultModel
	}
	return &AnthropicGenerator{
		APIKey:     apiKey,
		Model:      model,
		URL:        anthropicAPIURL,
		MaxRetries: defaultRetries,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

type anthropicRequest struct {
	Model     string         `json:"model"`
	MaxTokens int            `json:"max_tokens"`
	System    string         `json:"system,omitempty"`
	Messages  []anthropicMsg `json:"messages"`
}

type anthropicMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate implements Generator, retrying transient failures with
// exponential backoff.
func (g *AnthropicGenerator) Generate(ctx context.Context, description string) (Result, error) {
	retries := g.MaxRetries
	if retries <= 0 {
		retries = 1
	}
	var lastErr error
	for i := 0; i < retries; i++ {
		res, err := g.generateOnce(ctx, description)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return Result{}, fmt.Errorf("propgen: generate %q: %w", description, ctx.Err())
		}
		if !errors.Is(err, errRetryable) || i == retries-1 {
			break
		}
		wait := g.backoff(i)
		logging.Logger().Debug("prop generation retry", "attempt", i+1, "wait", wait, "err", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return Result{}, fmt.Errorf("propgen: generate %q: %w", description, ctx.Err())
		}
	}
	return Result{}, fmt.Errorf("propgen: generate %q: %w", description, lastErr)
}

func (g *AnthropicGenerator) backoff(i int) time.Duration {
	if g.Backoff != nil {
		return g.Backoff(i)
	}
	return time.Duration(1<<uint(i)) * time.Second
}

func (g *AnthropicGenerator) generateOnce(ctx context.Context, description string) (Result, error) {
	model := g.Model
	if model == "" {
		model = defaultModel
	}
	body, err := json.Marshal(anthropicRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  []anthropicMsg{{Role: "user", Content: description}},
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	url := g.URL
	if url == "" {
		url = anthropicAPIURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", g.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	client := g.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("request failed: %w: %w", errRetryable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w: %w", errRetryable, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := string(raw)
		var apiErr anthropicError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Type + " - " + apiErr.Error.Message
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return Result{}, fmt.Errorf("API error (%d): %s: %w", resp.StatusCode, msg, errRetryable)
		}
		return Result{}, fmt.Errorf("API error (%d): %s", resp.StatusCode, msg)
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return Result{}, fmt.Errorf("parse response: %w", err)
	}
	var text strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return ParseResult(text.String())
}

// ParseResult extracts the JSON outline object from model text, tolerating
// surrounding prose or code fences.
func ParseResult(text string) (Result, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return Result{}, fmt.Errorf("no JSON object in reply: %w", ErrInvalidShape)
	}
	var res Result
	if err := json.Unmarshal([]byte(text[start:end+1]), &res); err != nil {
		return Result{}, fmt.Errorf("decode outline: %w", err)
	}
	res.Name = strings.TrimSpace(res.Name)
	if err := res.Validate(); err != nil {
		return Result{}, err
	}
	return res, nil
}
