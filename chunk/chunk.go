// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package chunk splits document text into overlapping, token-bounded
// segments for embedding.
//
// Splitting is word-boundary only: a word is never cut mid-token, and a
// single word larger than the whole budget still becomes its own oversized
// chunk. Consecutive chunks overlap by a fixed number of trailing words so
// that nearby embeddings preserve cross-chunk context.
package chunk

import "strings"

const (
	// DefaultMaxTokens is the per-chunk token budget.
	DefaultMaxTokens = 1000

	// overlapWords is the number of trailing words carried into the next
	// chunk. Fixed count, not a fraction of the chunk.
	overlapWords = 100
)

// Segment is one chunk plus its position in the source word sequence.
type Segment struct {
	// Text is the chunk content.
	Text string

	// Start is the word offset of the chunk's first non-overlap word within
	// the original text.
	Start int
}

// TokenEstimate approximates the token cost of a word as ceil(len/4).
// A cheap proxy; close enough for budgeting without a real tokenizer.
func TokenEstimate(word string) int {
	return (len(word) + 3) / 4
}

// Split chunks text into token-bounded pieces with a fixed trailing-word
// overlap. Pure and deterministic: identical input always yields identical
// output. Empty or whitespace-only input yields nil.
func Split(text string, maxTokens int) []string {
	segments := SplitSegments(text, maxTokens)
	if segments == nil {
		return nil
	}
	out := make([]string, len(segments))
	for i, s := range segments {
		out[i] = s.Text
	}
	return out
}

// SplitSegments is Split with word-offset bookkeeping, used by ingestion to
// attribute chunks to source pages.
func SplitSegments(text string, maxTokens int) []Segment {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	// For tiny budgets the fixed overlap could swallow the entire chunk;
	// clamp it to a quarter of the budget.
	overlap := overlapWords
	if limit := maxTokens / 4; limit < overlap {
		overlap = limit
	}

	var segments []Segment
	var current []string
	seedLen := 0 // words in current carried over from the previous chunk
	start := 0   // word offset of the first fresh word in current
	tokens := 0

	flush := func() {
		segments = append(segments, Segment{
			Text:  strings.Join(current, " "),
			Start: start,
		})
	}

	for i, word := range words {
		wt := TokenEstimate(word)

		// Close the chunk when the next word would overflow the budget,
		// but only if it holds at least one fresh word, otherwise a long
		// overlap tail could stall progress.
		if tokens+wt > maxTokens && len(current) > seedLen {
			flush()

			seed := current
			if len(seed) > overlap {
				seed = seed[len(seed)-overlap:]
			}
			current = append([]string(nil), seed...)
			seedLen = len(current)
			start = i
			tokens = 0
			for _, w := range current {
				tokens += TokenEstimate(w)
			}
		}

		current = append(current, word)
		tokens += wt
	}

	if len(current) > seedLen {
		flush()
	}

	return segments
}
