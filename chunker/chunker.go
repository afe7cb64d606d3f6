// Package chunker splits extracted document text into overlapping passages.
//
// Splitting is greedy over sentence-like units: units accumulate into a
// buffer until the next one would push it past the size limit, at which
// point the buffer is emitted and the next buffer is seeded with the tail
// words of the emitted passage. The functions here are pure; all state is
// local to a single call.
package chunker

import (
	"strings"
	"unicode"
)

const (
	// DefaultMaxSize is the target upper bound for a chunk, in bytes.
	DefaultMaxSize = 1000

	// DefaultOverlap controls how much of a chunk's tail seeds the next
	// chunk. The seed is the last overlap/5 words, a word-count proxy
	// carried over from the original splitter for boundary compatibility.
	DefaultOverlap = 200
)

// Split produces an ordered list of passages covering all of text.
//
// A single sentence longer than maxSize is still emitted whole, so chunks
// may exceed maxSize. No returned chunk is empty after trimming. Passing
// values <= 0 selects the defaults.
func Split(text string, maxSize, overlap int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if overlap <= 0 {
		overlap = DefaultOverlap
	}

	units := splitUnits(text)
	if len(units) == 0 {
		return nil
	}

	var chunks []string
	buffer := ""
	for _, unit := range units {
		if buffer == "" {
			buffer = unit
			continue
		}
		if len(buffer)+1+len(unit) > maxSize {
			chunks = append(chunks, buffer)
			if tail := overlapTail(buffer, overlap/5); tail != "" {
				buffer = tail + " " + unit
			} else {
				buffer = unit
			}
			continue
		}
		buffer = buffer + " " + unit
	}

	if trimmed := strings.TrimSpace(buffer); trimmed != "" {
		chunks = append(chunks, trimmed)
	}

	return chunks
}

// splitUnits breaks text into sentence-like units at '.', '!' and '?'
// boundaries. Punctuation stays attached to its sentence. A boundary only
// counts when the punctuation is followed by whitespace or end of input, so
// "v1.2.3" stays in one unit.
func splitUnits(text string) []string {
	var units []string
	var b strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		b.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if unit := strings.TrimSpace(b.String()); unit != "" {
			units = append(units, unit)
		}
		b.Reset()
	}

	if unit := strings.TrimSpace(b.String()); unit != "" {
		units = append(units, unit)
	}

	return units
}

// overlapTail returns the last n words of chunk, joined by single spaces.
func overlapTail(chunk string, n int) string {
	if n <= 0 {
		return ""
	}
	words := strings.Fields(chunk)
	if len(words) > n {
		words = words[len(words)-n:]
	}
	return strings.Join(words, " ")
}
