package mock

import "github.com/poiesic/recall/ai"

// MockProvider is a test double for ai.Provider that aggregates the mock
// services.
type MockProvider struct {
	embedder  *MockEmbedder
	responder *MockResponder
	extractor *MockProfileExtractor
}

var _ ai.Provider = (*MockProvider)(nil)

// NewMockProvider creates a provider backed by mocks with default behavior.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		embedder:  NewMockEmbedder(),
		responder: NewMockResponder(),
		extractor: NewMockProfileExtractor(),
	}
}

// Embedder returns the mock embedder as ai.Embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Responder returns the mock responder as ai.Responder.
func (p *MockProvider) Responder() ai.Responder {
	return p.responder
}

// ProfileExtractor returns the mock extractor as ai.ProfileExtractor.
func (p *MockProvider) ProfileExtractor() ai.ProfileExtractor {
	return p.extractor
}

// Close is a no-op.
func (p *MockProvider) Close() error {
	return nil
}

// GetMockEmbedder returns the concrete mock for behavior injection and
// assertions.
func (p *MockProvider) GetMockEmbedder() *MockEmbedder {
	return p.embedder
}

// GetMockResponder returns the concrete mock responder.
func (p *MockProvider) GetMockResponder() *MockResponder {
	return p.responder
}

// GetMockProfileExtractor returns the concrete mock extractor.
func (p *MockProvider) GetMockProfileExtractor() *MockProfileExtractor {
	return p.extractor
}
