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


package badger

// MemoryRepositories bundles in-memory repositories for testing.
type MemoryRepositories struct {
	Backend       *Backend
	Documents     *DocumentRepository
	Notes         *NoteRepository
	Conversations *ConversationRepository
	Profiles      *ProfileRepository
}

// NewMemoryRepositories creates in-memory repositories for testing.
// Caller must Close when done.
func NewMemoryRepositories() (*MemoryRepositories, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}

	docs, err := NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	notes, err := NewNoteRepository(backend)
	if err != nil {
		docs.Close()
		backend.Close()
		return nil, err
	}

	convs, err := NewConversationRepository(backend)
	if err != nil {
		notes.Close()
		docs.Close()
		backend.Close()
		return nil, err
	}

	return &MemoryRepositories{
		Backend:       backend,
		Documents:     docs,
		Notes:         notes,
		Conversations: convs,
		Profiles:      NewProfileRepository(backend),
	}, nil
}

// Close releases all repositories and the backend.
func (m *MemoryRepositories) Close() error {
	m.Conversations.Close()
	m.Notes.Close()
	m.Documents.Close()
	return m.Backend.Close()
}
