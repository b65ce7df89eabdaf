package ai

// ChatRole identifies the author of a conversation turn.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// ChatTurn is one prior message in a conversation, passed to the Responder
// as model context.
type ChatTurn struct {
	Role    ChatRole
	Content string
}

// ExtractedProfile holds durable user traits inferred from conversation.
type ExtractedProfile struct {
	// Interests are topics the user has shown sustained interest in.
	// Lowercase, 1-3 words each.
	Interests []string

	// Concerns are problems or worries the user has raised.
	Concerns []string
}

// Empty reports whether the extraction produced no traits.
func (p *ExtractedProfile) Empty() bool {
	return p == nil || (len(p.Interests) == 0 && len(p.Concerns) == 0)
}
