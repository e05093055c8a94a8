package layout

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simIdentity(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

func TestLayout_ProducesFinite3DPositions(t *testing.T) {
	centroids := [][]float64{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{1, 1, 0, 0},
	}
	sim := [][]float64{
		{0, 0.1, 0.1, 0.8},
		{0.1, 0, 0.1, 0.8},
		{0.1, 0.1, 0, 0.1},
		{0.8, 0.8, 0.1, 0},
	}

	e := New()
	positions, err := e.Layout(centroids, sim)
	require.NoError(t, err)
	require.Len(t, positions, 4)
	for _, p := range positions {
		arr := p.Array()
		for _, c := range arr {
			assert.False(t, math.IsNaN(c))
			assert.False(t, math.IsInf(c, 0))
		}
	}
}

func TestLayout_RescalesToTargetMaxCoordinate(t *testing.T) {
	centroids := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	e := New()
	positions, err := e.Layout(centroids, simIdentity(3))
	require.NoError(t, err)

	maxAbs := 0.0
	for _, p := range positions {
		for _, c := range p.Array() {
			if math.Abs(c) > maxAbs {
				maxAbs = math.Abs(c)
			}
		}
	}
	assert.InDelta(t, targetMaxCoordinate, maxAbs, 1e-6)
}

func TestLayout_Deterministic(t *testing.T) {
	centroids := [][]float64{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0.5, 0.5, 0.5, 0},
	}
	sim := [][]float64{
		{0, 0.2, 0.6},
		{0.2, 0, 0.3},
		{0.6, 0.3, 0},
	}

	e := New()
	first, err := e.Layout(centroids, sim)
	require.NoError(t, err)
	second, err := e.Layout(centroids, sim)
	require.NoError(t, err)

	for i := range first {
		assert.Equal(t, first[i].Array(), second[i].Array())
	}
}

func TestLayout_EmptyInput(t *testing.T) {
	e := New()
	positions, err := e.Layout(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, positions)
}
