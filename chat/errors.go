package chat

import "errors"

var (
	// ErrConversationRepositoryRequired is returned when a conversation repository is not provided.
	ErrConversationRepositoryRequired = errors.New("conversation repository required")

	// ErrProfileRepositoryRequired is returned when a profile repository is not provided.
	ErrProfileRepositoryRequired = errors.New("profile repository required")

	// ErrRetrieverRequired is returned when a context retriever is not provided.
	ErrRetrieverRequired = errors.New("retriever required")

	// ErrResponderRequired is returned when a responder is not provided.
	ErrResponderRequired = errors.New("responder required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidPoolSize is returned when the pool size is not positive.
	ErrInvalidPoolSize = errors.New("pool size must be positive")
)
