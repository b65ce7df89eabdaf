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

package retrieval

import (
	"context"
	"log/slog"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

const (
	// DefaultThreshold is the minimum cosine similarity for a result.
	DefaultThreshold = 0.6

	// DefaultLimit is the per-domain result cap for notes and messages.
	// Chunk search requests double this: chunks are smaller units, so more
	// candidates are fetched.
	DefaultLimit = 3
)

// Retriever embeds a query once and searches the notes, messages and
// document-chunk domains independently. A failure in one domain yields an
// empty result for that domain only; the other domains still return.
type Retriever struct {
	documents storage.DocumentRepository
	notes     storage.NoteRepository
	convs     storage.ConversationRepository
	embedder  ai.Embedder
	threshold float32
	limit     int
	logger    *slog.Logger
	sources   []similaritySource
}

// similaritySource is one searchable domain. All three domains share the
// embed-once query and the failure-isolation loop; only the backing search
// differs.
type similaritySource struct {
	name    string
	enabled func(sel *SourceSelection) bool
	search  func(ctx context.Context, q storage.VectorQuery, sel *SourceSelection, out *Context) error
}

// RetrieverOption configures a Retriever.
type RetrieverOption func(*Retriever) error

// WithThreshold sets the minimum similarity. Default is DefaultThreshold.
func WithThreshold(threshold float32) RetrieverOption {
	return func(r *Retriever) error {
		r.threshold = threshold
		return nil
	}
}

// WithLimit sets the per-domain result cap. Default is DefaultLimit.
func WithLimit(limit int) RetrieverOption {
	return func(r *Retriever) error {
		if limit > 0 {
			r.limit = limit
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) RetrieverOption {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRetriever creates a new context retriever.
func NewRetriever(
	documents storage.DocumentRepository,
	notes storage.NoteRepository,
	convs storage.ConversationRepository,
	embedder ai.Embedder,
	opts ...RetrieverOption,
) (*Retriever, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if notes == nil {
		return nil, ErrNoteRepositoryRequired
	}
	if convs == nil {
		return nil, ErrConversationRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		documents: documents,
		notes:     notes,
		convs:     convs,
		embedder:  embedder,
		threshold: DefaultThreshold,
		limit:     DefaultLimit,
		logger:    slog.Default().With("component", "retrieval"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	// Registry order is presentation order: chunks carry the strongest
	// provenance, messages the weakest.
	r.sources = []similaritySource{
		{name: "documents", enabled: func(*SourceSelection) bool { return true }, search: r.searchChunks},
		{name: "notes", enabled: (*SourceSelection).NotesEnabled, search: r.searchNotes},
		{name: "messages", enabled: (*SourceSelection).MessagesEnabled, search: r.searchMessages},
	}

	return r, nil
}

// Retrieve embeds the query once and searches all enabled domains.
// The returned Context may be partially or fully empty; only a failure to
// embed the query itself is an error.
func (r *Retriever) Retrieve(ctx context.Context, userId core.ID, query string, sel *SourceSelection) (*Context, error) {
	return r.RetrieveWithMonitor(ctx, userId, query, sel, nil)
}

// RetrieveWithMonitor is Retrieve with observation hooks.
func (r *Retriever) RetrieveWithMonitor(ctx context.Context, userId core.ID, query string, sel *SourceSelection, monitor Monitor) (*Context, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	monitor.Start(query)

	// One embedding call shared by every domain search.
	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Error("error embedding query", "err", err)
		return nil, err
	}
	monitor.AfterQueryEmbedding(len(vector))

	q := storage.VectorQuery{
		OwnerId:       userId,
		Vector:        vector,
		MinSimilarity: r.threshold,
		Limit:         r.limit,
	}

	result := &Context{}
	for _, source := range r.sources {
		if !source.enabled(sel) {
			continue
		}

		before := len(result.Chunks) + len(result.Notes) + len(result.Messages)
		if err := source.search(ctx, q, sel, result); err != nil {
			// Partial availability beats hard failure: log and move on.
			r.logger.Warn("context source search failed", "source", source.name, "err", err)
			monitor.SourceFailed(source.name, err)
			continue
		}
		after := len(result.Chunks) + len(result.Notes) + len(result.Messages)
		monitor.SourceSearched(source.name, after-before)
	}

	r.logger.Debug("context retrieved",
		"chunks", len(result.Chunks),
		"notes", len(result.Notes),
		"messages", len(result.Messages))
	monitor.Finish(result)
	return result, nil
}

// searchNotes fills the notes domain.
func (r *Retriever) searchNotes(ctx context.Context, q storage.VectorQuery, _ *SourceSelection, out *Context) error {
	notes, scores, err := r.notes.FindSimilarNotes(ctx, q)
	if err != nil {
		return err
	}
	for i, note := range notes {
		out.Notes = append(out.Notes, ScoredNote{Note: note, Similarity: scores[i]})
	}
	return nil
}

// searchMessages fills the messages domain.
func (r *Retriever) searchMessages(ctx context.Context, q storage.VectorQuery, _ *SourceSelection, out *Context) error {
	msgs, scores, err := r.convs.FindSimilarMessages(ctx, q)
	if err != nil {
		return err
	}
	for i, msg := range msgs {
		out.Messages = append(out.Messages, ScoredMessage{Message: msg, Similarity: scores[i]})
	}
	return nil
}

// searchChunks resolves the selected document set and fills the chunk
// domain. With no resolved documents the search is skipped entirely.
func (r *Retriever) searchChunks(ctx context.Context, q storage.VectorQuery, sel *SourceSelection, out *Context) error {
	docIds, err := r.resolveDocumentIds(ctx, q.OwnerId, sel)
	if err != nil {
		return err
	}
	if len(docIds) == 0 {
		return nil
	}

	q.DocumentIds = docIds
	q.Limit = r.limit * 2
	chunks, scores, err := r.documents.FindSimilarChunks(ctx, q)
	if err != nil {
		return err
	}

	titles := make(map[core.ID]string)
	for i, chunk := range chunks {
		title, ok := titles[chunk.DocumentId]
		if !ok {
			doc, err := r.documents.GetDocument(ctx, chunk.DocumentId)
			if err != nil {
				return err
			}
			title = doc.Title
			titles[chunk.DocumentId] = title
		}
		out.Chunks = append(out.Chunks, ScoredChunk{
			Chunk:         chunk,
			DocumentTitle: title,
			Similarity:    scores[i],
		})
	}
	return nil
}

// resolveDocumentIds unions explicitly selected documents with the members
// of selected collections, deduplicated.
func (r *Retriever) resolveDocumentIds(ctx context.Context, ownerId core.ID, sel *SourceSelection) ([]core.ID, error) {
	if sel == nil {
		return nil, nil
	}

	seen := make(map[core.ID]bool)
	var ids []core.ID
	add := func(id core.ID) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, collectionId := range sel.CollectionIds {
		members, err := r.documents.GetDocumentIdsByCollection(ctx, ownerId, collectionId)
		if err != nil {
			return nil, err
		}
		for _, id := range members {
			add(id)
		}
	}
	for _, id := range sel.DocumentIds {
		add(id)
	}

	return ids, nil
}
