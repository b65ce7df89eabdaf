package retrieval_test

import (
	"strings"
	"testing"

	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(docId core.ID, title, content string, page int, sim float32) retrieval.ScoredChunk {
	return retrieval.ScoredChunk{
		Chunk: &core.DocumentChunk{
			DocumentId: docId,
			Content:    content,
			PageNumber: page,
		},
		DocumentTitle: title,
		Similarity:    sim,
	}
}

func TestFormatEmpty(t *testing.T) {
	assert.Equal(t, "", retrieval.Format(nil))
	assert.Equal(t, "", retrieval.Format(&retrieval.Context{}))
}

func TestFormatDocumentSection(t *testing.T) {
	ctx := &retrieval.Context{
		Chunks: []retrieval.ScoredChunk{
			chunk(1, "Q3 Report", "revenue grew", 4, 0.92),
			chunk(1, "Q3 Report", "costs fell", 9, 0.81),
			chunk(2, "Notes on Go", "interfaces are satisfied implicitly", 0, 0.75),
		},
	}

	out := retrieval.Format(ctx)

	assert.True(t, strings.HasPrefix(out, "\n\n---\n# USER CONTEXT\n"))
	assert.True(t, strings.HasSuffix(out, "\n---\n\n"))
	assert.Contains(t, out, "Use the following information to personalize your response. This is the user's actual data.\n")
	assert.Contains(t, out, "When referencing documents, use the format: [Document: \"Title\" (Page X)]\n")

	assert.Contains(t, out, "## Relevant Documents\n")
	assert.Contains(t, out, "### Q3 Report\n")
	assert.Contains(t, out, "**Excerpt 1 (Page 4):**\nrevenue grew\n_Relevance: 92%_\n")
	assert.Contains(t, out, "**Excerpt 2 (Page 9):**\ncosts fell\n_Relevance: 81%_\n")

	// Unknown page omits the page annotation, and excerpt numbering restarts
	// per document.
	assert.Contains(t, out, "### Notes on Go\n**Excerpt 1:**\ninterfaces are satisfied implicitly\n_Relevance: 75%_\n")
}

func TestFormatGroupsChunksByDocument(t *testing.T) {
	// Interleaved retrieval order still yields one heading per document.
	ctx := &retrieval.Context{
		Chunks: []retrieval.ScoredChunk{
			chunk(1, "Alpha", "a1", 1, 0.9),
			chunk(2, "Beta", "b1", 1, 0.85),
			chunk(1, "Alpha", "a2", 2, 0.8),
		},
	}

	out := retrieval.Format(ctx)
	assert.Equal(t, 1, strings.Count(out, "### Alpha\n"))
	assert.Equal(t, 1, strings.Count(out, "### Beta\n"))
	assert.Less(t, strings.Index(out, "### Alpha"), strings.Index(out, "### Beta"))
}

func TestFormatNotesAndMessages(t *testing.T) {
	ctx := &retrieval.Context{
		Notes: []retrieval.ScoredNote{
			{Note: &core.Note{Title: "Allergies", Content: "allergic to peanuts"}, Similarity: 0.88},
		},
		Messages: []retrieval.ScoredMessage{
			{Message: &core.Message{Content: "I moved to Lisbon last year"}, Similarity: 0.71},
			{Message: &core.Message{Content: "my sister is visiting"}, Similarity: 0.65},
		},
	}

	out := retrieval.Format(ctx)

	assert.Contains(t, out, "## Relevant Notes from User\n### Allergies\nallergic to peanuts\n_Relevance: 88%_\n")
	assert.Contains(t, out, "## Relevant Past Conversations\n1. I moved to Lisbon last year\n   _Relevance: 71%_\n2. my sister is visiting\n   _Relevance: 65%_\n")
	assert.NotContains(t, out, "## Relevant Documents")
}

func TestFormatSectionOrder(t *testing.T) {
	ctx := &retrieval.Context{
		Chunks:   []retrieval.ScoredChunk{chunk(1, "Doc", "c", 0, 0.9)},
		Notes:    []retrieval.ScoredNote{{Note: &core.Note{Title: "N", Content: "n"}, Similarity: 0.8}},
		Messages: []retrieval.ScoredMessage{{Message: &core.Message{Content: "m"}, Similarity: 0.7}},
	}

	out := retrieval.Format(ctx)
	docs := strings.Index(out, "## Relevant Documents")
	notes := strings.Index(out, "## Relevant Notes from User")
	msgs := strings.Index(out, "## Relevant Past Conversations")
	require.True(t, docs >= 0 && notes >= 0 && msgs >= 0)
	assert.Less(t, docs, notes)
	assert.Less(t, notes, msgs)
}

func TestFormatRoundsRelevance(t *testing.T) {
	ctx := &retrieval.Context{
		Notes: []retrieval.ScoredNote{
			{Note: &core.Note{Title: "A", Content: "a"}, Similarity: 0.666},
			{Note: &core.Note{Title: "B", Content: "b"}, Similarity: 0.604},
		},
	}

	out := retrieval.Format(ctx)
	assert.Contains(t, out, "_Relevance: 67%_")
	assert.Contains(t, out, "_Relevance: 60%_")
}

func TestFormatIsPure(t *testing.T) {
	ctx := &retrieval.Context{
		Chunks: []retrieval.ScoredChunk{chunk(3, "Doc", "content", 2, 0.83)},
		Notes:  []retrieval.ScoredNote{{Note: &core.Note{Title: "N", Content: "n"}, Similarity: 0.7}},
	}

	first := retrieval.Format(ctx)
	second := retrieval.Format(ctx)
	assert.Equal(t, first, second)
}
