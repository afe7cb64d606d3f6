package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_SmallInput(t *testing.T) {
	t.Run("input under limit is one chunk", func(t *testing.T) {
		text := "First sentence here. Second sentence follows. A third one ends it."
		chunks := Split(text, 1000, 200)
		require.Len(t, chunks, 1)
		assert.Equal(t, text, chunks[0])
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Split("", 1000, 200))
	})

	t.Run("whitespace-only input", func(t *testing.T) {
		assert.Empty(t, Split("   \n\t  ", 1000, 200))
	})

	t.Run("no terminal punctuation", func(t *testing.T) {
		chunks := Split("a fragment without an ending", 1000, 200)
		require.Len(t, chunks, 1)
		assert.Equal(t, "a fragment without an ending", chunks[0])
	})
}

func TestSplit_Boundaries(t *testing.T) {
	t.Run("splits on sentence punctuation", func(t *testing.T) {
		text := "Alpha. Beta! Gamma? Delta."
		// Force every sentence into its own chunk with a tiny limit and no
		// meaningful overlap seed.
		chunks := Split(text, 8, 1)
		require.Len(t, chunks, 4)
		assert.Equal(t, "Alpha.", chunks[0])
	})

	t.Run("dotted identifiers are not boundaries", func(t *testing.T) {
		chunks := Split("Upgrade to v1.2.3 today. Then restart.", 1000, 200)
		require.Len(t, chunks, 1)
		assert.Contains(t, chunks[0], "v1.2.3 today.")
	})

	t.Run("single oversize sentence is emitted whole", func(t *testing.T) {
		long := strings.Repeat("word ", 300) + "end."
		chunks := Split(long, 100, 200)
		require.NotEmpty(t, chunks)
		assert.Greater(t, len(chunks[0]), 100)
	})
}

func TestSplit_Overlap(t *testing.T) {
	// A long text producing multiple chunks; each successive chunk must
	// start with the tail words of its predecessor.
	var b strings.Builder
	for i := 0; i < 100; i++ {
		b.WriteString("The quick brown fox jumps over the lazy dog near the riverbank today. ")
	}
	text := strings.TrimSpace(b.String())

	chunks := Split(text, 1000, 200)
	require.GreaterOrEqual(t, len(chunks), 5)

	overlapWords := 200 / 5
	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1])
		n := overlapWords
		if len(prevWords) < n {
			n = len(prevWords)
		}
		tail := strings.Join(prevWords[len(prevWords)-n:], " ")
		assert.True(t, strings.HasPrefix(chunks[i], tail),
			"chunk %d does not start with the tail of chunk %d", i, i-1)
	}
}

func TestSplit_Properties(t *testing.T) {
	text := strings.Repeat("Sentences accumulate until the limit is reached. ", 40)

	chunks := Split(text, 250, 50)
	require.NotEmpty(t, chunks)

	t.Run("no chunk is empty after trimming", func(t *testing.T) {
		for _, c := range chunks {
			assert.NotEmpty(t, strings.TrimSpace(c))
		}
	})

	t.Run("purity", func(t *testing.T) {
		again := Split(text, 250, 50)
		assert.Equal(t, chunks, again)
	})

	t.Run("every sentence appears in some chunk", func(t *testing.T) {
		joined := strings.Join(chunks, " ")
		assert.Contains(t, joined, "Sentences accumulate until the limit is reached.")
	})
}

func TestSplit_Defaults(t *testing.T) {
	text := "One sentence."
	assert.Equal(t, Split(text, 0, 0), Split(text, DefaultMaxSize, DefaultOverlap))
}
