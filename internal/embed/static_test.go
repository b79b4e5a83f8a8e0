package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litmesh/litmesh/internal/errors"
)

func TestStaticEmbedder_Deterministic(t *testing.T) {
	e := NewStaticEmbedder()

	a, err := e.Embed(context.Background(), "federated learning privacy")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "federated learning privacy")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, StaticDimensions)
}

func TestStaticEmbedder_EmptyInputIsError(t *testing.T) {
	e := NewStaticEmbedder()

	_, err := e.Embed(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeEmptyEmbedInput, errors.GetCode(err))
	assert.True(t, errors.IsValidation(err))
}

func TestStaticEmbedder_SimilarTextsAreCloser(t *testing.T) {
	e := NewStaticEmbedder()
	ctx := context.Background()

	base, err := e.Embed(ctx, "federated learning privacy")
	require.NoError(t, err)
	near, err := e.Embed(ctx, "privacy in federated learning")
	require.NoError(t, err)
	far, err := e.Embed(ctx, "quantum chromodynamics lattice")
	require.NoError(t, err)

	assert.Greater(t, Cosine(base, near), Cosine(base, far))
}

func TestStaticEmbedder_VectorsAreNormalized(t *testing.T) {
	e := NewStaticEmbedder()

	vec, err := e.Embed(context.Background(), "hybrid search ranking")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, Cosine(vec, vec), 1e-6)
}

func TestCosine_EdgeCases(t *testing.T) {
	assert.Equal(t, 0.0, Cosine(nil, nil))
	assert.Equal(t, 0.0, Cosine([]float32{1, 0}, []float32{1}))
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 1}))
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
}
