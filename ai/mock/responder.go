package mock

import (
	"context"
	"fmt"

	"github.com/poiesic/recall/ai"
)

// MockResponder is a test double for ai.Responder.
type MockResponder struct {
	// RespondFunc is called by Respond if set.
	// If nil, uses default canned behavior.
	RespondFunc func(ctx context.Context, system string, history []ai.ChatTurn) (string, error)

	callCount int

	// LastSystem and LastHistory record the most recent call's arguments
	// for test assertions.
	LastSystem  string
	LastHistory []ai.ChatTurn
}

// NewMockResponder creates a mock responder with default canned behavior.
func NewMockResponder() *MockResponder {
	return &MockResponder{}
}

// Respond echoes the final user message by default.
func (m *MockResponder) Respond(ctx context.Context, system string, history []ai.ChatTurn) (string, error) {
	m.callCount++
	m.LastSystem = system
	m.LastHistory = history

	if m.RespondFunc != nil {
		return m.RespondFunc(ctx, system, history)
	}

	if len(history) == 0 {
		return "Hello!", nil
	}
	return fmt.Sprintf("You said: %s", history[len(history)-1].Content), nil
}

// CallCount returns the number of times Respond was called.
func (m *MockResponder) CallCount() int {
	return m.callCount
}

// Reset clears recorded state and injected behavior.
func (m *MockResponder) Reset() {
	m.callCount = 0
	m.RespondFunc = nil
	m.LastSystem = ""
	m.LastHistory = nil
}
