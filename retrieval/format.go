package retrieval

import (
	"fmt"
	"math"
	"strings"

	"github.com/poiesic/recall/core"
)

// Format renders a retrieved Context as a markdown block suitable for
// inclusion in an LLM system prompt. It is a pure function of its input:
// equal contexts always render to identical strings.
//
// An empty or nil Context renders to the empty string, so callers can
// append the result unconditionally.
func Format(ctx *Context) string {
	if ctx.Empty() {
		return ""
	}

	var parts []string
	if section := formatChunks(ctx.Chunks); section != "" {
		parts = append(parts, section)
	}
	if section := formatNotes(ctx.Notes); section != "" {
		parts = append(parts, section)
	}
	if section := formatMessages(ctx.Messages); section != "" {
		parts = append(parts, section)
	}

	var b strings.Builder
	b.WriteString("\n\n---\n")
	b.WriteString("# USER CONTEXT\n")
	b.WriteString("Use the following information to personalize your response. This is the user's actual data.\n")
	b.WriteString("When referencing documents, use the format: [Document: \"Title\" (Page X)]\n")
	b.WriteString(strings.Join(parts, "\n"))
	b.WriteString("\n---\n\n")
	return b.String()
}

// formatChunks groups chunks by document, preserving first-appearance order
// of documents and retrieval order of excerpts within each.
func formatChunks(chunks []ScoredChunk) string {
	if len(chunks) == 0 {
		return ""
	}

	var order []core.ID
	grouped := make(map[core.ID][]ScoredChunk)
	titles := make(map[core.ID]string)
	for _, chunk := range chunks {
		id := chunk.Chunk.DocumentId
		if _, ok := grouped[id]; !ok {
			order = append(order, id)
			titles[id] = chunk.DocumentTitle
		}
		grouped[id] = append(grouped[id], chunk)
	}

	var b strings.Builder
	b.WriteString("## Relevant Documents\n")
	for _, id := range order {
		fmt.Fprintf(&b, "### %s\n", titles[id])
		for i, chunk := range grouped[id] {
			if chunk.Chunk.PageNumber > 0 {
				fmt.Fprintf(&b, "**Excerpt %d (Page %d):**\n", i+1, chunk.Chunk.PageNumber)
			} else {
				fmt.Fprintf(&b, "**Excerpt %d:**\n", i+1)
			}
			b.WriteString(chunk.Chunk.Content)
			b.WriteString("\n")
			fmt.Fprintf(&b, "_Relevance: %s_\n", percent(chunk.Similarity))
		}
	}
	return b.String()
}

func formatNotes(notes []ScoredNote) string {
	if len(notes) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Relevant Notes from User\n")
	for _, note := range notes {
		fmt.Fprintf(&b, "### %s\n", note.Note.Title)
		b.WriteString(note.Note.Content)
		b.WriteString("\n")
		fmt.Fprintf(&b, "_Relevance: %s_\n", percent(note.Similarity))
	}
	return b.String()
}

func formatMessages(messages []ScoredMessage) string {
	if len(messages) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Relevant Past Conversations\n")
	for i, msg := range messages {
		fmt.Fprintf(&b, "%d. %s\n", i+1, msg.Message.Content)
		fmt.Fprintf(&b, "   _Relevance: %s_\n", percent(msg.Similarity))
	}
	return b.String()
}

// percent renders a similarity in [0,1] as a whole percentage.
func percent(similarity float32) string {
	return fmt.Sprintf("%d%%", int(math.Round(float64(similarity)*100)))
}
