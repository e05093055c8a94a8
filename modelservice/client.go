// Package modelservice is the outbound HTTP client for the model service's
// chat and embedding endpoints, wrapped in a client-side circuit breaker
// around http.Client.Do.
package modelservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"mindmap3d/pipelineerrors"
)

const (
	chatTimeout      = 120 * time.Second
	embeddingTimeout = 30 * time.Second
)

// Client talks to the model service's chat completion and embedding
// endpoints. It is process-wide and safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// New creates a Client against baseURL (e.g. http://model-service:11434).
func New(baseURL string) *Client {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "model-service",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 3 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= 0.6
		},
	})

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		breaker:    breaker,
	}
}

type chatRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	NumCtx int    `json:"num_ctx"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// ChatOptions configures one chat completion call.
type ChatOptions struct {
	Model  string
	System string
	NumCtx int
}

// Complete issues one chat completion call and returns the generated text.
// LLM calls do not retry; a single failure surfaces immediately, as a
// *TransientError for a transport failure or 5xx status and as a
// ModelService error otherwise.
func (c *Client) Complete(ctx context.Context, prompt string, opts ChatOptions) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, chatTimeout)
	defer cancel()

	body := chatRequest{
		Model:  opts.Model,
		System: opts.System,
		Prompt: prompt,
		NumCtx: opts.NumCtx,
	}

	var out chatResponse
	if err := c.doJSON(ctx, "/api/chat", body, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Embed issues one embedding call and returns the resulting vector.
// Retries are the caller's responsibility (see the embedding package),
// since the retry budget is per logical request, not per transport call.
func (c *Client) Embed(ctx context.Context, model, text string) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, embeddingTimeout)
	defer cancel()

	body := embeddingRequest{Model: model, Prompt: text}

	var out embeddingResponse
	if err := c.doJSON(ctx, "/api/embeddings", body, &out); err != nil {
		return nil, err
	}
	return out.Embedding, nil
}

// TransientError marks an error as retryable by the embedding client's
// backoff loop (network failures and 5xx responses). 4xx responses are not
// wrapped and must not be retried.
type TransientError struct {
	Cause error
}

func (e *TransientError) Error() string { return e.Cause.Error() }
func (e *TransientError) Unwrap() error { return e.Cause }

func (c *Client) doJSON(ctx context.Context, path string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return pipelineerrors.ModelService("failed to encode request", err)
	}

	result, breakerErr := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &TransientError{Cause: err}
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &TransientError{Cause: err}
		}

		if resp.StatusCode >= 500 {
			return nil, &TransientError{Cause: fmt.Errorf("model service returned status %d", resp.StatusCode)}
		}
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("model service returned status %d: %s", resp.StatusCode, string(data))
		}

		return data, nil
	})
	if breakerErr != nil {
		if _, ok := breakerErr.(*TransientError); ok {
			return breakerErr
		}
		if breakerErr == gobreaker.ErrOpenState || breakerErr == gobreaker.ErrTooManyRequests {
			return &TransientError{Cause: breakerErr}
		}
		return pipelineerrors.ModelService("model service call failed", breakerErr)
	}

	data := result.([]byte)
	if err := json.Unmarshal(data, respBody); err != nil {
		return pipelineerrors.ModelService("failed to decode model service response", err)
	}
	return nil
}
