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


// Package ai provides abstractions for the AI services used by Recall.
//
// This package defines interfaces for text embedding, chat completion and
// profile extraction. Business logic depends on these abstractions rather
// than concrete implementations.
//
// # Interfaces
//
//   - Embedder: generates vector embeddings from text
//   - Responder: generates assistant replies from conversation history
//   - ProfileExtractor: derives durable user traits from conversation
//   - Provider: aggregates the services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Public constructors in ai/openai return interface types to enforce
// abstraction; mock constructors return concrete types so tests can inject
// behavior and assert call counts.
//
// # Pacing
//
// Embedding providers rate-limit aggressively during bulk ingestion. Wrap any
// Embedder in a PacedEmbedder to throttle calls:
//
//	embedder := ai.NewPacedEmbedder(provider.Embedder(), ai.NewCountPacer(50, 2*time.Second))
//
// CountPacer sleeps on every nth call; RatePacer enforces a steady
// requests-per-second quota.
package ai
