package mock

import (
	"context"
	"strings"

	"github.com/poiesic/recall/ai"
)

// MockProfileExtractor is a test double for ai.ProfileExtractor.
type MockProfileExtractor struct {
	// ExtractProfileFunc is called by ExtractProfile if set.
	// If nil, uses default keyword behavior.
	ExtractProfileFunc func(ctx context.Context, text string) (*ai.ExtractedProfile, error)

	callCount int
}

// NewMockProfileExtractor creates a mock extractor with default behavior.
func NewMockProfileExtractor() *MockProfileExtractor {
	return &MockProfileExtractor{}
}

// ExtractProfile treats words after "like" as interests and words after
// "worried about" as concerns. Crude, but deterministic and good enough for
// wiring tests.
func (m *MockProfileExtractor) ExtractProfile(ctx context.Context, text string) (*ai.ExtractedProfile, error) {
	m.callCount++

	if m.ExtractProfileFunc != nil {
		return m.ExtractProfileFunc(ctx, text)
	}

	profile := &ai.ExtractedProfile{}
	lower := strings.ToLower(text)
	if word := wordAfter(lower, "like "); word != "" {
		profile.Interests = append(profile.Interests, word)
	}
	if word := wordAfter(lower, "worried about "); word != "" {
		profile.Concerns = append(profile.Concerns, word)
	}
	return profile, nil
}

// CallCount returns the number of times ExtractProfile was called.
func (m *MockProfileExtractor) CallCount() int {
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockProfileExtractor) Reset() {
	m.callCount = 0
	m.ExtractProfileFunc = nil
}

func wordAfter(text, marker string) string {
	idx := strings.Index(text, marker)
	if idx < 0 {
		return ""
	}
	rest := text[idx+len(marker):]
	fields := strings.FieldsFunc(rest, func(r rune) bool {
		return r == ' ' || r == '.' || r == ',' || r == '!' || r == '?'
	})
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
