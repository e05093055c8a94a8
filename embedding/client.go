// Package embedding fans out concurrent embedding calls to the model
// service, bounding concurrency with golang.org/x/sync/errgroup and
// golang.org/x/sync/semaphore.
package embedding

import (
	"context"
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"mindmap3d/modelservice"
	"mindmap3d/pipelineerrors"
)

const (
	maxRetries  = 2
	backoffBase = 200 * time.Millisecond
	backoffFactor = 2.0
	jitterFraction = 0.25
)

// EmbedFn issues one embedding call. Satisfied by *modelservice.Client.Embed
// with the model name bound.
type EmbedFn func(ctx context.Context, text string) ([]float64, error)

// Client produces embedding vectors for a set of concept names, preserving
// input order and capping the number of in-flight model-service calls.
type Client struct {
	embed       EmbedFn
	concurrency int
}

// New creates a Client. concurrency bounds simultaneous model-service calls
// (spec default 16, configured via EMBEDDING_CONCURRENCY).
func New(embed EmbedFn, concurrency int) *Client {
	if concurrency <= 0 {
		concurrency = 16
	}
	return &Client{embed: embed, concurrency: concurrency}
}

// FromModelClient builds a Client backed by a model service chat/embedding
// client and a model name.
func FromModelClient(mc *modelservice.Client, model string, concurrency int) *Client {
	return New(func(ctx context.Context, text string) ([]float64, error) {
		return mc.Embed(ctx, model, text)
	}, concurrency)
}

// EmbedAll issues one concurrent request per input, in order. The returned
// slice has the same length and order as texts. Any request failing after
// its retry budget fails the whole call; dimension mismatch across results
// also fails the whole call.
func (c *Client) EmbedAll(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float64, len(texts))
	sem := semaphore.NewWeighted(int64(c.concurrency))
	group, groupCtx := errgroup.WithContext(ctx)

	for i, text := range texts {
		i, text := i, text
		group.Go(func() error {
			if err := sem.Acquire(groupCtx, 1); err != nil {
				return pipelineerrors.Cancelled(err.Error())
			}
			defer sem.Release(1)

			vec, err := c.embedWithRetry(groupCtx, text)
			if err != nil {
				return err
			}
			results[i] = vec
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, pipelineerrors.Cancelled(ctx.Err().Error())
		}
		return nil, err
	}

	dim := len(results[0])
	for _, vec := range results {
		if len(vec) != dim {
			return nil, pipelineerrors.EmbeddingDimensionMismatch("embedding vectors have differing dimensions")
		}
	}

	return results, nil
}

func (c *Client) embedWithRetry(ctx context.Context, text string) ([]float64, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, attempt); err != nil {
				return nil, pipelineerrors.Cancelled(err.Error())
			}
		}

		vec, err := c.embed(ctx, text)
		if err == nil {
			return vec, nil
		}
		lastErr = err

		if !isTransient(err) {
			return nil, pipelineerrors.ModelService("embedding request failed", err)
		}
	}
	return nil, pipelineerrors.ModelService("embedding request failed after retries", lastErr)
}

func isTransient(err error) bool {
	_, ok := err.(*modelservice.TransientError)
	return ok
}

func sleepBackoff(ctx context.Context, attempt int) error {
	delay := time.Duration(float64(backoffBase) * math.Pow(backoffFactor, float64(attempt-1)))
	jitter := 1 + (rand.Float64()*2-1)*jitterFraction
	delay = time.Duration(float64(delay) * jitter)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
