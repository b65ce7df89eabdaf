// Package mock provides test double implementations of the AI service
// interfaces.
//
// The mocks allow tests to run without external AI services and enable
// controlled, deterministic behavior via injectable function fields.
//
//	// Basic usage with default behavior
//	provider := mock.NewMockProvider()
//	vec, err := provider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	embedder := mock.NewMockEmbedder()
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    return []float32{0.1, 0.2, 0.3}, nil
//	}
//
// Default behavior: MockEmbedder returns unit vectors derived from a text
// hash, MockResponder echoes the last user message, and
// MockProfileExtractor pattern-matches simple "like X" phrases.
package mock
