// Package provider is the gateway to the local Ollama-compatible inference
// endpoint. It owns retry and backoff for transient failures; fatal
// failures propagate to the caller untouched.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/erg0nix/synapse/internal/core"
)

type Config struct {
	Endpoint    string
	HTTPTimeout time.Duration
	MaxAttempts int
	Backoff     time.Duration
}

type Client struct {
	endpoint    string
	client      *http.Client
	maxAttempts int
	backoff     time.Duration
}

func New(cfg Config) *Client {
	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = 300 * time.Second
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	return &Client{
		endpoint:    strings.TrimSuffix(cfg.Endpoint, "/"),
		client:      &http.Client{Timeout: timeout},
		maxAttempts: maxAttempts,
		backoff:     backoff,
	}
}

// Request is one generation call: the composed prompt plus model name and
// sampling options.
type Request struct {
	Model    string
	System   string
	Prompt   string
	Sampling *core.SamplingConfig
}

// Generate sends the request, retrying transient failures with doubling
// backoff up to the configured attempt count. Cancelling ctx aborts the
// in-flight call and any remaining retries.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	requestID := core.NewRequestID()

	var lastErr error
	backoff := c.backoff

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		text, err := c.generateOnce(ctx, req)
		if err == nil {
			return text, nil
		}

		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		var transient *TransientError
		if !errors.As(err, &transient) {
			return "", err
		}

		lastErr = err
		slog.Warn("model call failed",
			"request_id", requestID, "attempt", attempt, "max_attempts", c.maxAttempts, "error", err)
	}

	return "", lastErr
}

func (c *Client) generateOnce(ctx context.Context, req Request) (string, error) {
	payload := map[string]any{
		"model":  req.Model,
		"prompt": req.Prompt,
		"stream": false,
	}
	if req.System != "" {
		payload["system"] = req.System
	}
	if options := samplingOptions(req.Sampling); len(options) > 0 {
		payload["options"] = options
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &FatalError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", &FatalError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &TransientError{Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return "", statusError(httpResp)
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&response); err != nil {
		return "", &FatalError{Err: fmt.Errorf("parse response: %w", err)}
	}

	return response.Response, nil
}

// ListModels returns the model names the endpoint advertises.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/tags", nil)
	if err != nil {
		return nil, &FatalError{Err: err}
	}

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &TransientError{Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, statusError(httpResp)
	}

	var payload struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&payload); err != nil {
		return nil, &FatalError{Err: fmt.Errorf("parse tags response: %w", err)}
	}

	names := make([]string, 0, len(payload.Models))
	for _, model := range payload.Models {
		names = append(names, model.Name)
	}
	return names, nil
}

// Healthy reports whether the endpoint answers at all.
func (c *Client) Healthy(ctx context.Context) bool {
	_, err := c.ListModels(ctx)
	return err == nil
}

func statusError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := strings.TrimSpace(string(bodyBytes))

	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(bodyBytes, &payload) == nil && payload.Error != "" {
		message = payload.Error
	}
	if message == "" {
		message = resp.Status
	}

	err := errors.New(message)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &TransientError{Status: resp.StatusCode, Err: err}
	}
	return &FatalError{Status: resp.StatusCode, Err: err}
}

func samplingOptions(sampling *core.SamplingConfig) map[string]any {
	if sampling == nil {
		return nil
	}

	options := map[string]any{}
	if sampling.Temperature != nil {
		options["temperature"] = *sampling.Temperature
	}
	if sampling.TopP != nil {
		options["top_p"] = *sampling.TopP
	}
	if sampling.TopK != nil {
		options["top_k"] = *sampling.TopK
	}
	if sampling.RepeatPenalty != nil {
		options["repeat_penalty"] = *sampling.RepeatPenalty
	}
	return options
}
