package ollama

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
)

// Client resolves transcripts into raw intents through a local Ollama
// chat endpoint.
type Client struct {
	endpoint   string
	model      string
	httpClient *http.Client
	timeout    time.Duration
	retries    int
	backoff    time.Duration
}

func NewClient(endpoint, model string, timeout time.Duration, retries int, backoff time.Duration) *Client {
	if model == "" {
		model = "deepseek-r1:latest"
	}
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

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// ResolveIntent sends the rendered prompt and decodes the reply into a
// RawIntent. Failures surface as *domain.Rejection: Timeout when the
// per-call deadline expires, UpstreamUnavailable when the endpoint is
// unreachable (retried once after a short backoff, the runtime may be
// mid-startup), MalformedReply for anything undecodable.
func (c *Client) ResolveIntent(ctx context.Context, transcript string, table domain.CapabilityTable) (domain.RawIntent, error) {
	reqBody := NewChatRequest(c.model, transcript, table)

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

	return ParseRawIntent(content)
}

// chatOnce performs one attempt under its own deadline covering
// connection, request, and the full response body.
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

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if ctx.Err() != nil {
			return "", classifyTransport(ctx.Err())
		}
		return "", domain.Rejectf(domain.RejectMalformedReply, "undecodable chat response: %v", err)
	}

	return result.Message.Content, nil
}

// Ready probes the runtime's tags endpoint, derived from the chat
// endpoint the way the model listing sits next to /api/chat.
func (c *Client) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, TagsEndpoint(c.endpoint), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Rejectf(domain.RejectUpstreamUnavailable, "tags endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// TagsEndpoint maps a chat URL to its sibling model-listing URL.
func TagsEndpoint(chatEndpoint string) string {
	if strings.HasSuffix(chatEndpoint, "/api/chat") {
		return strings.TrimSuffix(chatEndpoint, "/api/chat") + "/api/tags"
	}
	return chatEndpoint
}

type wireIntent struct {
	Action     *string  `json:"action"`
	Target     *string  `json:"target"`
	Response   *string  `json:"response"`
	Confidence *float64 `json:"confidence"`
}

// ParseRawIntent extracts the single JSON object from possibly
// prose-wrapped content and decodes it strictly against the intent
// schema. Extra fields are ignored; missing required fields, wrong
// types, out-of-range confidence, or an action outside the enumerated
// five are all malformed replies.
func ParseRawIntent(content string) (domain.RawIntent, error) {
	objText, err := ExtractObject(content)
	if err != nil {
		return domain.RawIntent{}, domain.Rejectf(domain.RejectMalformedReply, "%v", err)
	}

	var wire wireIntent
	if err := json.Unmarshal([]byte(objText), &wire); err != nil {
		return domain.RawIntent{}, domain.Rejectf(domain.RejectMalformedReply, "intent fields have wrong types: %v", err)
	}

	if wire.Action == nil || wire.Confidence == nil {
		return domain.RawIntent{}, domain.Rejectf(domain.RejectMalformedReply, "intent missing action or confidence")
	}

	action, ok := domain.ParseAction(*wire.Action)
	if !ok {
		return domain.RawIntent{}, domain.Rejectf(domain.RejectMalformedReply, "unrecognized action %q", *wire.Action)
	}

	confidence := *wire.Confidence
	if confidence < 0 || confidence > 1 {
		return domain.RawIntent{}, domain.Rejectf(domain.RejectMalformedReply, "confidence %v outside [0,1]", confidence)
	}

	raw := domain.RawIntent{Action: action, Confidence: confidence}
	if wire.Target != nil {
		raw.Target = strings.TrimSpace(*wire.Target)
	}
	if wire.Response != nil {
		raw.Response = strings.TrimSpace(*wire.Response)
	}
	return raw, nil
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
