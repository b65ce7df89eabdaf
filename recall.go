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

// Package recall is a personal context engine: it ingests a user's
// documents, notes and conversations into embedded, searchable records and
// injects the relevant ones into chat turns.
//
// Store is the assembled system. Open one over a database directory and an
// AI endpoint, then use its services:
//
//	store, err := recall.Open("/var/lib/recall/db")
//	if err != nil { ... }
//	defer store.Close()
//	reply, err := store.Chat.SendMessage(ctx, 0, userId, "hello", nil)
package recall

import (
	"log/slog"
	"time"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/ai/openai"
	"github.com/poiesic/recall/chat"
	"github.com/poiesic/recall/ingestion"
	"github.com/poiesic/recall/notes"
	"github.com/poiesic/recall/retrieval"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/storage/badger"
)

const (
	// embedCallsPerPause and embedPause throttle the embedding endpoint:
	// after every 50th call the client rests for two seconds.
	embedCallsPerPause = 50
	embedPause         = 2 * time.Second
)

// Store wires storage, AI and services into one system.
type Store struct {
	Documents     storage.DocumentRepository
	Notes         storage.NoteRepository
	Conversations storage.ConversationRepository
	Profiles      storage.ProfileRepository

	Pipeline  *ingestion.Pipeline
	Retriever *retrieval.Retriever
	NoteSvc   *notes.Service
	Chat      *chat.Orchestrator

	backend  *badger.Backend
	provider ai.Provider
	logger   *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	aiConfig  *ai.Config
	threshold float32
	limit     int
}

// WithAIConfig overrides the default AI endpoint configuration.
func WithAIConfig(config *ai.Config) StoreOption {
	return func(o *storeOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithRetrieval overrides the similarity threshold and per-domain result
// limit.
func WithRetrieval(threshold float32, limit int) StoreOption {
	return func(o *storeOptions) {
		o.threshold = threshold
		o.limit = limit
	}
}

// Open assembles a Store over the badger database at dbPath.
func Open(dbPath string, opts ...StoreOption) (*Store, error) {
	options := &storeOptions{
		aiConfig:  ai.DefaultConfig(),
		threshold: retrieval.DefaultThreshold,
		limit:     retrieval.DefaultLimit,
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(dbPath, false)
	if err != nil {
		return nil, err
	}

	s := &Store{
		backend: backend,
		logger:  slog.Default().With("component", "store"),
	}
	if err := s.assemble(backend, options); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) assemble(backend *badger.Backend, options *storeOptions) error {
	var err error
	if s.Documents, err = badger.NewDocumentRepository(backend); err != nil {
		return err
	}
	if s.Notes, err = badger.NewNoteRepository(backend); err != nil {
		return err
	}
	if s.Conversations, err = badger.NewConversationRepository(backend); err != nil {
		return err
	}
	s.Profiles = badger.NewProfileRepository(backend)

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		return err
	}
	s.provider = provider

	// One pacer shared by every embedding path keeps the endpoint cadence
	// global, not per-component.
	embedder := ai.NewPacedEmbedder(provider.Embedder(),
		ai.NewCountPacer(embedCallsPerPause, embedPause))

	if s.Pipeline, err = ingestion.NewPipeline(s.Documents, embedder); err != nil {
		return err
	}
	if s.Retriever, err = retrieval.NewRetriever(s.Documents, s.Notes, s.Conversations, embedder,
		retrieval.WithThreshold(options.threshold),
		retrieval.WithLimit(options.limit),
	); err != nil {
		return err
	}
	if s.NoteSvc, err = notes.NewService(s.Notes, embedder); err != nil {
		return err
	}
	if s.Chat, err = chat.NewOrchestrator(
		s.Conversations, s.Profiles, s.Retriever,
		provider.Responder(), embedder, provider.ProfileExtractor(),
	); err != nil {
		return err
	}
	return nil
}

// Close releases services, repositories and the backend in dependency
// order. Safe to call on a partially assembled Store.
func (s *Store) Close() error {
	if s.Chat != nil {
		s.Chat.Release()
	}
	if s.Pipeline != nil {
		s.Pipeline.Release()
	}
	if s.provider != nil {
		if err := s.provider.Close(); err != nil {
			s.logger.Warn("error closing ai provider", "err", err)
		}
	}

	var firstErr error
	for _, repo := range []storage.Repository{s.Conversations, s.Notes, s.Documents} {
		if repo == nil {
			continue
		}
		if err := repo.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.backend != nil {
		if err := s.backend.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
