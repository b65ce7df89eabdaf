package retrieval

import "github.com/poiesic/recall/core"

// ScoredNote is a note annotated with its query similarity.
type ScoredNote struct {
	Note       *core.Note
	Similarity float32
}

// ScoredMessage is a prior message annotated with its query similarity.
type ScoredMessage struct {
	Message    *core.Message
	Similarity float32
}

// ScoredChunk is a document chunk annotated with its parent document title
// and query similarity.
type ScoredChunk struct {
	Chunk         *core.DocumentChunk
	DocumentTitle string
	Similarity    float32
}

// Context holds the per-domain results of one retrieval. Domains are
// independent; an empty slice means the domain matched nothing or its search
// failed.
type Context struct {
	Chunks   []ScoredChunk
	Notes    []ScoredNote
	Messages []ScoredMessage
}

// Empty reports whether all domains came back empty.
func (c *Context) Empty() bool {
	return c == nil || (len(c.Chunks) == 0 && len(c.Notes) == 0 && len(c.Messages) == 0)
}

// SourceSelection narrows which notes, messages and documents are eligible
// for retrieval. The zero value enables notes and messages and no documents.
type SourceSelection struct {
	// DocumentIds explicitly selects documents for chunk search.
	DocumentIds []core.ID `json:"documentIds,omitempty"`

	// CollectionIds expand to their member documents, unioned with
	// DocumentIds.
	CollectionIds []core.ID `json:"collectionIds,omitempty"`

	// IncludeNotes disables the notes domain only when explicitly false.
	IncludeNotes *bool `json:"includeNotes,omitempty"`

	// IncludeMessages disables the messages domain only when explicitly
	// false.
	IncludeMessages *bool `json:"includeMessages,omitempty"`
}

// NotesEnabled reports whether the notes domain should be searched.
func (s *SourceSelection) NotesEnabled() bool {
	return s == nil || s.IncludeNotes == nil || *s.IncludeNotes
}

// MessagesEnabled reports whether the messages domain should be searched.
func (s *SourceSelection) MessagesEnabled() bool {
	return s == nil || s.IncludeMessages == nil || *s.IncludeMessages
}
