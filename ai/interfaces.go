package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings.
	// The returned slice contains embeddings in the same order as the input
	// texts. Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Responder generates assistant replies from conversation history.
// Implementations must be thread-safe for concurrent use.
type Responder interface {
	// Respond generates the assistant's next reply. The system prompt carries
	// retrieved context and instructions; history is ordered oldest first and
	// ends with the user's latest message.
	Respond(ctx context.Context, system string, history []ChatTurn) (string, error)
}

// ProfileExtractor derives durable user traits from conversation text.
// Implementations must be thread-safe for concurrent use.
type ProfileExtractor interface {
	// ExtractProfile analyzes the user's messages and extracts interests and
	// concerns. Returns an empty profile if nothing can be inferred.
	ExtractProfile(ctx context.Context, text string) (*ExtractedProfile, error)
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages the Embedder, Responder and
// ProfileExtractor instances, ensuring they share configuration.
type Provider interface {
	// Embedder returns the text embedding service.
	Embedder() Embedder

	// Responder returns the chat completion service.
	Responder() Responder

	// ProfileExtractor returns the profile extraction service.
	ProfileExtractor() ProfileExtractor

	// Close releases resources held by the provider and its services.
	Close() error
}
