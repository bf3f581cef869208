package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultMaxTokens   = 2048
	defaultTemperature = 0.3
	chatCompletionPath = "/v1/chat/completions"
	maxResponseBytes   = 4 << 20
)

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Requester sends one completion request per draft. Failed requests are not
// retried; the admin retries by hand.
type Requester struct {
	cfg        Config
	httpClient *http.Client
}

// NewRequester fills defaults for zero config values. A nil httpClient gets a
// client with dial and TLS timeouts; the overall deadline comes from the context.
func NewRequester(cfg Config, httpClient *http.Client) *Requester {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: 10 * time.Second,
			IdleConnTimeout:     90 * time.Second,
		}}
	}
	return &Requester{cfg: cfg, httpClient: httpClient}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// RequestDraft returns the raw completion text for a product. Both inputs are
// required; nothing is sent when either is blank.
func (r *Requester) RequestDraft(ctx context.Context, name, composition string) (string, error) {
	name = strings.TrimSpace(name)
	composition = strings.TrimSpace(composition)
	if name == "" || composition == "" {
		return "", &Error{Kind: KindValidation, Message: "product name and composition are required"}
	}
	if r.cfg.APIKey == "" {
		return "", &Error{Kind: KindUpstream, Message: "AI service is not configured"}
	}

	payload, err := json.Marshal(chatRequest{
		Model: r.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: BuildPrompt(name, composition)},
		},
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	})
	if err != nil {
		return "", &Error{Kind: KindUpstream, Message: "encode request", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+chatCompletionPath, bytes.NewReader(payload))
	if err != nil {
		return "", &Error{Kind: KindUpstream, Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", r.transportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", r.transportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{
			Kind:    KindUpstream,
			Message: fmt.Sprintf("AI service returned %s", http.StatusText(resp.StatusCode)),
			Status:  resp.StatusCode,
			Body:    truncate(string(body), maxBodyBytes),
		}
	}

	var decoded chatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", &Error{Kind: KindUpstream, Message: "unreadable response envelope", Err: err}
	}
	if len(decoded.Choices) == 0 {
		return "", &Error{Kind: KindUpstream, Message: "response contained no choices"}
	}
	return decoded.Choices[0].Message.Content, nil
}

func (r *Requester) transportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("AI service did not answer within %s", r.cfg.Timeout),
			Err:     err,
		}
	}
	return &Error{Kind: KindUpstream, Message: "request to AI service failed", Err: err}
}
