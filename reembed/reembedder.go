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

package reembed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

const (
	// DefaultBatchSize is the number of texts embedded per API call.
	DefaultBatchSize = 100

	// DefaultMaxAttempts bounds retries per batch.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the initial retry backoff.
	DefaultBaseDelay = time.Second
)

// Result summarizes one re-embedding run.
type Result struct {
	Scanned    int // records considered
	Reembedded int // records whose vector was replaced
	Failed     int // records whose batch failed after all retries
}

// Reembedder regenerates stored embeddings, used after switching embedding
// models. Records are processed in batches; a batch that fails after all
// retries is counted and skipped, never aborting the run.
type Reembedder struct {
	documents   storage.DocumentRepository
	notes       storage.NoteRepository
	embedder    ai.Embedder
	batchSize   int
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

// ReembedderOption configures a Reembedder.
type ReembedderOption func(*Reembedder) error

// WithBatchSize sets how many texts are embedded per API call.
// Default is DefaultBatchSize.
func WithBatchSize(size int) ReembedderOption {
	return func(r *Reembedder) error {
		if size > 0 {
			r.batchSize = size
		}
		return nil
	}
}

// WithRetry sets the per-batch retry policy.
func WithRetry(maxAttempts int, baseDelay time.Duration) ReembedderOption {
	return func(r *Reembedder) error {
		if maxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		r.maxAttempts = maxAttempts
		r.baseDelay = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ReembedderOption {
	return func(r *Reembedder) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewReembedder creates a re-embedder over a user's notes and document
// chunks.
func NewReembedder(documents storage.DocumentRepository, notes storage.NoteRepository, embedder ai.Embedder, opts ...ReembedderOption) (*Reembedder, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if notes == nil {
		return nil, ErrNoteRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Reembedder{
		documents:   documents,
		notes:       notes,
		embedder:    embedder,
		batchSize:   DefaultBatchSize,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		logger:      slog.Default().With("component", "reembed"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ReembedAll re-embeds a user's notes and document chunks.
func (r *Reembedder) ReembedAll(ctx context.Context, ownerId core.ID) (*Result, error) {
	result := &Result{}

	notes, err := r.ReembedNotes(ctx, ownerId)
	if err != nil {
		return nil, err
	}
	result.add(notes)

	chunks, err := r.ReembedDocuments(ctx, ownerId)
	if err != nil {
		return nil, err
	}
	result.add(chunks)

	return result, nil
}

// ReembedNotes re-embeds all of a user's notes and refreshes their
// fingerprints.
func (r *Reembedder) ReembedNotes(ctx context.Context, ownerId core.ID) (*Result, error) {
	notes, err := r.notes.GetNotesByOwner(ctx, ownerId)
	if err != nil {
		return nil, err
	}

	result := &Result{Scanned: len(notes)}
	for start := 0; start < len(notes); start += r.batchSize {
		batch := notes[start:min(start+r.batchSize, len(notes))]

		texts := make([]string, len(batch))
		for i, note := range batch {
			texts[i] = note.EmbeddingText()
		}
		vectors, err := r.embedBatch(ctx, texts)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			r.logger.Warn("note batch failed, skipping",
				"offset", start, "size", len(batch), "err", err)
			result.Failed += len(batch)
			continue
		}

		for i, note := range batch {
			note.Vector = vectors[i]
			note.Fingerprint = core.IDFromContent(texts[i])
			if _, err := r.notes.UpdateNote(ctx, note); err != nil {
				r.logger.Warn("error updating note", "noteId", note.Id, "err", err)
				result.Failed++
				continue
			}
			result.Reembedded++
		}
	}

	r.logger.Info("notes re-embedded",
		"ownerId", ownerId,
		"scanned", result.Scanned,
		"reembedded", result.Reembedded,
		"failed", result.Failed)
	return result, nil
}

// ReembedDocuments re-embeds every chunk of every document the user owns.
func (r *Reembedder) ReembedDocuments(ctx context.Context, ownerId core.ID) (*Result, error) {
	docs, err := r.documents.GetDocumentsByOwner(ctx, ownerId)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, doc := range docs {
		chunks, err := r.documents.GetChunksByDocument(ctx, doc.Id)
		if err != nil {
			return nil, err
		}
		result.Scanned += len(chunks)

		for start := 0; start < len(chunks); start += r.batchSize {
			batch := chunks[start:min(start+r.batchSize, len(chunks))]

			texts := make([]string, len(batch))
			for i, chunk := range batch {
				texts[i] = chunk.Content
			}
			vectors, err := r.embedBatch(ctx, texts)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				r.logger.Warn("chunk batch failed, skipping",
					"documentId", doc.Id, "offset", start, "err", err)
				result.Failed += len(batch)
				continue
			}

			for i, chunk := range batch {
				chunk.Vector = vectors[i]
				if _, err := r.documents.UpdateChunk(ctx, chunk); err != nil {
					r.logger.Warn("error updating chunk",
						"chunkId", chunk.Id, "err", err)
					result.Failed++
					continue
				}
				result.Reembedded++
			}
		}
	}

	r.logger.Info("document chunks re-embedded",
		"ownerId", ownerId,
		"scanned", result.Scanned,
		"reembedded", result.Reembedded,
		"failed", result.Failed)
	return result, nil
}

// embedBatch embeds texts with retry and verifies the response shape.
func (r *Reembedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32
	err := RetryWithBackoff(ctx, func() error {
		var err error
		vectors, err = r.embedder.EmbedTexts(ctx, texts)
		return err
	}, r.maxAttempts, r.baseDelay)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(vectors))
	}
	return vectors, nil
}

func (result *Result) add(other *Result) {
	result.Scanned += other.Scanned
	result.Reembedded += other.Reembedded
	result.Failed += other.Failed
}
