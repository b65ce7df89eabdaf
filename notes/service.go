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

package notes

import (
	"context"
	"log/slog"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// Service manages user notes and keeps their embeddings in step with their
// content. A note's vector is derived from title+content+tags; whenever an
// edit changes that text the vector is regenerated, and the Fingerprint
// field records exactly which text the stored vector embeds.
type Service struct {
	notes    storage.NoteRepository
	embedder ai.Embedder
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates a note service.
func NewService(notes storage.NoteRepository, embedder ai.Embedder, opts ...ServiceOption) (*Service, error) {
	if notes == nil {
		return nil, ErrNoteRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Service{
		notes:    notes,
		embedder: embedder,
		logger:   slog.Default().With("component", "notes"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Create validates, embeds and persists a new note. An embedding failure
// does not block creation: the note is stored without a vector (invisible
// to similarity search) and a later re-embedding run picks it up.
func (s *Service) Create(ctx context.Context, ownerId core.ID, title, content string, tags []string) (*core.Note, error) {
	note := &core.Note{
		OwnerId: ownerId,
		Title:   title,
		Content: content,
		Tags:    tags,
	}
	if err := core.ValidateNote(note); err != nil {
		return nil, err
	}

	s.embed(ctx, note)
	return s.notes.AddNote(ctx, note)
}

// Update applies edits to an existing note and regenerates the embedding
// when the embedded text changed. Returns storage.ErrNotFound if the note
// doesn't exist.
func (s *Service) Update(ctx context.Context, id core.ID, title, content string, tags []string) (*core.Note, error) {
	note, err := s.notes.GetNote(ctx, id)
	if err != nil {
		return nil, err
	}

	note.Title = title
	note.Content = content
	note.Tags = tags
	if err := core.ValidateNote(note); err != nil {
		return nil, err
	}

	if core.IDFromContent(note.EmbeddingText()) != note.Fingerprint {
		s.embed(ctx, note)
	}
	return s.notes.UpdateNote(ctx, note)
}

// Get retrieves a note by id.
func (s *Service) Get(ctx context.Context, id core.ID) (*core.Note, error) {
	return s.notes.GetNote(ctx, id)
}

// List retrieves all of a user's notes.
func (s *Service) List(ctx context.Context, ownerId core.ID) ([]*core.Note, error) {
	return s.notes.GetNotesByOwner(ctx, ownerId)
}

// Delete removes a note by id.
func (s *Service) Delete(ctx context.Context, id core.ID) error {
	return s.notes.DeleteNote(ctx, id)
}

// embed sets the note's vector and fingerprint from its current text. On
// failure both are cleared rather than left stale: a missing vector is
// recoverable by re-embedding, a stale one silently serves wrong results.
func (s *Service) embed(ctx context.Context, note *core.Note) {
	text := note.EmbeddingText()
	vector, err := s.embedder.EmbedText(ctx, text)
	if err != nil {
		s.logger.Warn("error embedding note, storing without vector",
			"noteId", note.Id, "err", err)
		note.Vector = nil
		note.Fingerprint = 0
		return
	}
	note.Vector = vector
	note.Fingerprint = core.IDFromContent(text)
}
