package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors", func(t *testing.T) {
		v := []float32{0.5, 0.5, 0.2}
		assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-6)
	})

	t.Run("orthogonal vectors", func(t *testing.T) {
		a := []float32{1, 0, 0}
		b := []float32{0, 1, 0}
		assert.InDelta(t, 0.0, CosineSimilarity(a, b), 1e-6)
	})

	t.Run("opposite vectors", func(t *testing.T) {
		a := []float32{1, 2, 3}
		b := []float32{-1, -2, -3}
		assert.InDelta(t, -1.0, CosineSimilarity(a, b), 1e-6)
	})

	t.Run("zero vector", func(t *testing.T) {
		assert.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{1, 1}))
	})

	t.Run("scale invariant", func(t *testing.T) {
		a := []float32{1, 2, 3}
		b := []float32{2, 4, 6}
		assert.InDelta(t, 1.0, CosineSimilarity(a, b), 1e-6)
	})
}
