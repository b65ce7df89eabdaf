package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// MessageRole identifies the author of a conversation message.
type MessageRole int

const (
	// RoleUser represents the human user.
	RoleUser MessageRole = iota + 1
	// RoleAssistant represents the AI assistant.
	RoleAssistant
)

// String returns the wire representation of the role ("user" or "assistant").
func (r MessageRole) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Document represents an uploaded file whose extracted text is chunked and
// embedded for retrieval. Immutable after ingestion completes except for
// collection reassignment.
type Document struct {
	Id           ID
	OwnerId      ID
	Title        string
	FileType     string // lowercase extension: "pdf", "txt", "md", "csv", "docx"
	StoragePath  string // location of the stored upload blob
	Content      string // extracted full text (populated by the ingestion pipeline)
	FileSize     int64
	WordCount    int
	PageCount    int
	CollectionId ID // 0 means unassigned
	InsertedAt   time.Time
	UpdatedAt    time.Time
}

// DocumentChunk is a bounded contiguous slice of a document's text, the unit
// of embedding and retrieval. Written once per chunk, never mutated.
// Orphaned chunks are removed when the parent document is deleted.
type DocumentChunk struct {
	Id         ID
	DocumentId ID
	ChunkIndex int // zero-based, strictly increasing per document
	Content    string
	PageNumber int // 0 means unknown
	Vector     []float32
	InsertedAt time.Time
}

// Note is a user-authored note. Its embedding is derived from the
// title+content+tags concatenation and must be regenerated whenever any of
// those change; Fingerprint records which content the stored vector embeds.
type Note struct {
	Id          ID
	OwnerId     ID
	Title       string
	Content     string
	Tags        []string
	Vector      []float32
	Fingerprint ID // IDFromContent of EmbeddingText at embed time
	InsertedAt  time.Time
	UpdatedAt   time.Time
}

// EmbeddingText returns the text the note's embedding is derived from.
func (n *Note) EmbeddingText() string {
	parts := []string{n.Title, n.Content}
	if len(n.Tags) > 0 {
		parts = append(parts, strings.Join(n.Tags, " "))
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// Conversation owns an ordered sequence of messages.
// UpdatedAt advances on every appended message.
type Conversation struct {
	Id         ID
	OwnerId    ID
	Title      string
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// Message is a single turn in a conversation. Messages are append-only;
// Vector is backfilled asynchronously after the turn completes.
type Message struct {
	Id             ID
	ConversationId ID
	OwnerId        ID
	Role           MessageRole
	Content        string
	Vector         []float32
	Timestamp      time.Time
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// Profile holds lightweight interests and concerns extracted from recent
// conversation turns by a best-effort background task.
type Profile struct {
	OwnerId   ID
	Interests []string
	Concerns  []string
	UpdatedAt time.Time
}
