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


// Package storage defines the repository interfaces for documents, chunks,
// notes, conversations, messages, and profiles, along with the binary
// serialization used by storage backends.
//
// All repositories are thread-safe. Writes are append-only or per-record
// replacements keyed by an id the writer owns exclusively, so no in-process
// locking is required above the backend's own transactions.
package storage
