package embedding

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindmap3d/modelservice"
	"mindmap3d/pipelineerrors"
)

func TestEmbedAll_PreservesOrder(t *testing.T) {
	embed := func(ctx context.Context, text string) ([]float64, error) {
		switch text {
		case "a":
			return []float64{1, 0}, nil
		case "b":
			return []float64{0, 1}, nil
		case "c":
			return []float64{1, 1}, nil
		}
		return nil, errors.New("unexpected")
	}

	c := New(embed, 2)
	vecs, err := c.EmbedAll(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}, {1, 1}}, vecs)
}

func TestEmbedAll_RetriesTransientThenSucceeds(t *testing.T) {
	var calls int32
	embed := func(ctx context.Context, text string) ([]float64, error) {
		n := atomic.AddInt32(&calls, 1)
		if n < 2 {
			return nil, &modelservice.TransientError{Cause: errors.New("timeout")}
		}
		return []float64{0.5}, nil
	}

	c := New(embed, 4)
	vecs, err := c.EmbedAll(context.Background(), []string{"only"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0.5}}, vecs)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(2))
}

func TestEmbedAll_DoesNotRetryNonTransient(t *testing.T) {
	var calls int32
	embed := func(ctx context.Context, text string) ([]float64, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("bad request")
	}

	c := New(embed, 4)
	_, err := c.EmbedAll(context.Background(), []string{"x"})
	require.Error(t, err)
	assert.True(t, pipelineerrors.Is(err, pipelineerrors.KindModelService))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestEmbedAll_DimensionMismatchFails(t *testing.T) {
	embed := func(ctx context.Context, text string) ([]float64, error) {
		if text == "short" {
			return []float64{1}, nil
		}
		return []float64{1, 2, 3}, nil
	}

	c := New(embed, 4)
	_, err := c.EmbedAll(context.Background(), []string{"short", "long"})
	require.Error(t, err)
	assert.True(t, pipelineerrors.Is(err, pipelineerrors.KindEmbeddingDimensionMismatch))
}

func TestEmbedAll_EmptyInputReturnsEmpty(t *testing.T) {
	c := New(func(ctx context.Context, text string) ([]float64, error) {
		t.Fatal("should not be called")
		return nil, nil
	}, 4)
	vecs, err := c.EmbedAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedAll_PartialFailureFailsWholeCall(t *testing.T) {
	embed := func(ctx context.Context, text string) ([]float64, error) {
		if text == "bad" {
			return nil, errors.New("permanent failure")
		}
		return []float64{1, 2}, nil
	}

	c := New(embed, 4)
	_, err := c.EmbedAll(context.Background(), []string{"ok1", "bad", "ok2"})
	require.Error(t, err)
}
