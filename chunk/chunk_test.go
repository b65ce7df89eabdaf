package chunk

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// genWords produces n distinct 3-char words, 1 estimated token each.
func genWords(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = strconv.FormatInt(int64(i+1296), 36)
	}
	return words
}

func TestSplitEmptyInput(t *testing.T) {
	assert.Nil(t, Split("", 1000))
	assert.Nil(t, Split("   \n\t  ", 1000))
}

func TestSplitSmallInputSingleChunk(t *testing.T) {
	chunks := Split("just a few words here", 1000)
	require.Len(t, chunks, 1)
	assert.Equal(t, "just a few words here", chunks[0])
}

func TestSplitCoverage(t *testing.T) {
	words := genWords(3500)
	text := strings.Join(words, " ")

	segments := SplitSegments(text, 1000)
	require.NotEmpty(t, segments)

	// Fresh word ranges, delimited by Start offsets, must reconstruct the
	// original word sequence exactly.
	var rebuilt []string
	for i, seg := range segments {
		end := len(words)
		if i+1 < len(segments) {
			end = segments[i+1].Start
		}
		rebuilt = append(rebuilt, words[seg.Start:end]...)

		// Each chunk's text ends with its fresh words.
		fresh := strings.Join(words[seg.Start:end], " ")
		assert.True(t, strings.HasSuffix(seg.Text, fresh))
	}
	assert.Equal(t, words, rebuilt)
}

func TestSplitBudget(t *testing.T) {
	text := strings.Join(genWords(3500), " ")
	chunks := Split(text, 1000)

	// 3500 one-token words with 100-word overlaps: ~1000 fresh words in the
	// first chunk, ~900 in each after, so 4-5 chunks.
	assert.GreaterOrEqual(t, len(chunks), 4)
	assert.LessOrEqual(t, len(chunks), 5)

	for i, c := range chunks {
		if i == len(chunks)-1 {
			continue // the final chunk may be short, never over budget anyway
		}
		total := 0
		for _, w := range strings.Fields(c) {
			total += TokenEstimate(w)
		}
		assert.LessOrEqual(t, total, 1000, "chunk %d exceeds budget", i)
	}
}

func TestSplitOverlapInvariant(t *testing.T) {
	words := genWords(2000)
	text := strings.Join(words, " ")

	chunks := Split(text, 1000)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		overlap := prev
		if len(overlap) > 100 {
			overlap = overlap[len(overlap)-100:]
		}
		prefix := strings.Join(overlap, " ")
		assert.True(t, strings.HasPrefix(chunks[i], prefix),
			"chunk %d does not begin with the last 100 words of chunk %d", i, i-1)
	}
}

func TestSplitOverlongSingleWord(t *testing.T) {
	long := strings.Repeat("x", 8000) // ~2000 estimated tokens
	chunks := Split("before "+long+" after", 1000)

	require.NotEmpty(t, chunks)
	found := false
	for _, c := range chunks {
		if strings.Contains(c, long) {
			found = true
			// the word is intact, never split
			assert.Contains(t, strings.Fields(c), long)
		}
	}
	assert.True(t, found, "overlong word must survive as a whole")
}

func TestSplitClampsOverlapForTinyBudgets(t *testing.T) {
	words := genWords(200)
	text := strings.Join(words, " ")

	// Budget of 40 tokens clamps overlap to 10 words. The split must
	// terminate and make forward progress.
	chunks := Split(text, 40)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prevWords := strings.Fields(chunks[i-1])
		curWords := strings.Fields(chunks[i])
		assert.LessOrEqual(t, countCommonPrefix(curWords, lastN(prevWords, 10)), 10)
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Join(genWords(1500), " ")
	a := Split(text, 1000)
	b := Split(text, 1000)
	assert.Equal(t, a, b)
}

func lastN(s []string, n int) []string {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

func countCommonPrefix(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
