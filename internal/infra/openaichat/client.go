// Package openaichat resolves intents through an OpenAI-compatible
// chat completions endpoint (llama.cpp server, LM Studio, vLLM).
package openaichat

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

	"buddy/internal/domain"
	"buddy/internal/infra"
	"buddy/internal/infra/ollama"
)

type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client
	timeout    time.Duration
	retries    int
	backoff    time.Duration
}

func NewClient(endpoint, model string, timeout time.Duration, retries int, backoff time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		endpoint:   endpoint,
		model:      model,
		httpClient: &http.Client{},
		timeout:    timeout,
		retries:    retries,
		backoff:    backoff,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type request struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type response struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ResolveIntent mirrors the Ollama client's contract on the
// /v1/chat/completions wire shape.
func (c *Client) ResolveIntent(ctx context.Context, transcript string, table domain.CapabilityTable) (domain.RawIntent, error) {
	reqBody := request{
		Model: c.model,
		Messages: []message{
			{Role: "user", Content: ollama.BuildPrompt(transcript, table)},
		},
		Stream: false,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return domain.RawIntent{}, fmt.Errorf("marshaling chat request: %w", err)
	}

	var content string
	retryCfg := infra.RetryConfig{
		MaxAttempts:  1 + c.retries,
		InitialDelay: c.backoff,
		MaxDelay:     c.backoff,
		Multiplier:   1.0,
		Retryable:    isUpstreamUnavailable,
	}

	retryErr := infra.WithRetry(ctx, retryCfg, func() error {
		text, err := c.chatOnce(ctx, bodyBytes)
		if err != nil {
			return err
		}
		content = text
		return nil
	})
	if retryErr != nil {
		return domain.RawIntent{}, retryErr
	}

	return ollama.ParseRawIntent(content)
}

func (c *Client) chatOnce(ctx context.Context, body []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", domain.Rejectf(domain.RejectUpstreamUnavailable,
			"chat endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if ctx.Err() != nil {
			return "", classifyTransport(ctx.Err())
		}
		return "", domain.Rejectf(domain.RejectMalformedReply, "undecodable chat response: %v", err)
	}

	if len(result.Choices) == 0 {
		return "", domain.Rejectf(domain.RejectMalformedReply, "chat response has no choices")
	}
	return result.Choices[0].Message.Content, nil
}

func classifyTransport(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.Rejectf(domain.RejectTimeout, "chat call exceeded deadline: %v", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.Rejectf(domain.RejectTimeout, "chat call timed out: %v", err)
	}
	return domain.Rejectf(domain.RejectUpstreamUnavailable, "chat endpoint unreachable: %v", err)
}

func isUpstreamUnavailable(err error) bool {
	var rej *domain.Rejection
	return errors.As(err, &rej) && rej.Kind == domain.RejectUpstreamUnavailable
}
