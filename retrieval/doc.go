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

// Package retrieval finds user data relevant to a chat query and renders it
// for prompt injection.
//
// A Retriever embeds the query once, then searches three independent
// domains: document chunks, notes and prior conversation messages. Notes
// and messages are searched unless the SourceSelection explicitly disables
// them; chunks are searched only when the selection names documents or
// collections. A failure in one domain is logged and leaves that domain
// empty without failing the others.
//
// Format renders a retrieved Context as a markdown USER CONTEXT block, or
// the empty string when nothing was found.
package retrieval
