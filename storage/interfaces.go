package storage

import (
	"context"

	"github.com/poiesic/recall/core"
)

// VectorQuery describes a similarity scan over stored records.
// Vectors of a dimension different from Vector's are skipped, never padded
// or truncated.
type VectorQuery struct {
	// OwnerId scopes the scan to a single user's records.
	OwnerId core.ID

	// Vector is the query embedding.
	Vector []float32

	// MinSimilarity is the inclusive cosine-similarity threshold.
	MinSimilarity float32

	// Limit caps the number of returned results.
	Limit int

	// DocumentIds, when non-empty, restricts a chunk scan to chunks whose
	// parent document is in the set. Ignored by note and message scans.
	DocumentIds []core.ID
}

// Repository provides common operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository.
	Close() error
}

// DocumentRepository provides operations for documents and their chunks.
type DocumentRepository interface {
	Repository

	// AddDocument adds a document, generating its ID from sequence and
	// setting InsertedAt/UpdatedAt.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// UpdateDocument replaces an existing document record.
	// Returns ErrNotFound if the document doesn't exist.
	UpdateDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocumentsByOwner retrieves all documents owned by a user.
	GetDocumentsByOwner(ctx context.Context, ownerId core.ID) ([]*core.Document, error)

	// GetDocumentIdsByCollection retrieves the IDs of an owner's documents
	// assigned to the given collection.
	GetDocumentIdsByCollection(ctx context.Context, ownerId, collectionId core.ID) ([]core.ID, error)

	// ReassignCollection moves a document to another collection (0 clears it).
	ReassignCollection(ctx context.Context, id, collectionId core.ID) error

	// DeleteDocument removes a document and cascades to its chunks.
	// Returns ErrNotFound if the document doesn't exist.
	DeleteDocument(ctx context.Context, id core.ID) error

	// AddChunk persists one embedded chunk. Chunk indices must be unique
	// per document; ErrDuplicateKey is returned on a repeated index.
	AddChunk(ctx context.Context, chunk *core.DocumentChunk) (*core.DocumentChunk, error)

	// GetChunksByDocument retrieves a document's chunks ordered by chunk index.
	GetChunksByDocument(ctx context.Context, documentId core.ID) ([]*core.DocumentChunk, error)

	// UpdateChunk replaces an existing chunk record (used by re-embedding).
	UpdateChunk(ctx context.Context, chunk *core.DocumentChunk) (*core.DocumentChunk, error)

	// FindSimilarChunks scans the owner's chunks for vectors similar to the
	// query, restricted to q.DocumentIds when present. Results are ordered
	// by similarity descending.
	FindSimilarChunks(ctx context.Context, q VectorQuery) ([]*core.DocumentChunk, []float32, error)
}

// NoteRepository provides operations for notes.
type NoteRepository interface {
	Repository

	// AddNote adds a note, generating its ID from sequence.
	AddNote(ctx context.Context, note *core.Note) (*core.Note, error)

	// UpdateNote replaces an existing note record.
	// Returns ErrNotFound if the note doesn't exist.
	UpdateNote(ctx context.Context, note *core.Note) (*core.Note, error)

	// GetNote retrieves a note by ID.
	// Returns ErrNotFound if the note doesn't exist.
	GetNote(ctx context.Context, id core.ID) (*core.Note, error)

	// GetNotesByOwner retrieves all notes owned by a user.
	GetNotesByOwner(ctx context.Context, ownerId core.ID) ([]*core.Note, error)

	// DeleteNote removes a note by ID.
	DeleteNote(ctx context.Context, id core.ID) error

	// FindSimilarNotes scans the owner's notes for vectors similar to the
	// query. Results are ordered by similarity descending.
	FindSimilarNotes(ctx context.Context, q VectorQuery) ([]*core.Note, []float32, error)
}

// ConversationRepository provides operations for conversations and messages.
type ConversationRepository interface {
	Repository

	// AddConversation adds a conversation, generating its ID from sequence.
	AddConversation(ctx context.Context, conv *core.Conversation) (*core.Conversation, error)

	// GetConversation retrieves a conversation by ID.
	// Returns ErrNotFound if the conversation doesn't exist.
	GetConversation(ctx context.Context, id core.ID) (*core.Conversation, error)

	// GetConversationsByOwner retrieves all conversations owned by a user.
	GetConversationsByOwner(ctx context.Context, ownerId core.ID) ([]*core.Conversation, error)

	// AppendMessages appends messages to a conversation and advances the
	// conversation's UpdatedAt. Message order within a conversation is the
	// order of successful appends.
	AppendMessages(ctx context.Context, conversationId core.ID, msgs ...*core.Message) ([]*core.Message, error)

	// GetMessages retrieves a conversation's messages in append order.
	GetMessages(ctx context.Context, conversationId core.ID) ([]*core.Message, error)

	// GetRecentMessages retrieves the last limit messages of a conversation
	// in append order.
	GetRecentMessages(ctx context.Context, conversationId core.ID, limit int) ([]*core.Message, error)

	// UpdateMessages replaces existing message records (vector backfill).
	// Returns ErrNotFound if any message doesn't exist.
	UpdateMessages(ctx context.Context, msgs ...*core.Message) ([]*core.Message, error)

	// FindSimilarMessages scans the owner's messages for vectors similar to
	// the query. Results are ordered by similarity descending.
	FindSimilarMessages(ctx context.Context, q VectorQuery) ([]*core.Message, []float32, error)
}

// ProfileRepository provides operations for extracted user profiles.
type ProfileRepository interface {
	// GetProfile retrieves a user's profile.
	// Returns ErrNotFound if no profile has been stored yet.
	GetProfile(ctx context.Context, ownerId core.ID) (*core.Profile, error)

	// PutProfile stores or replaces a user's profile.
	PutProfile(ctx context.Context, profile *core.Profile) error
}
