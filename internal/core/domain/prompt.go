package domain

// Role identifies the author of a prompt message.
type Role string

// Message roles understood by completion providers.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// Message is a single entry in a prompt.
type Message struct {
	Role    Role
	Content string
}

// Prompt is the ordered list of messages sent to a completion provider.
type Prompt struct {
	Messages []Message
}

// System returns the content of the leading system message, if any.
func (p Prompt) System() string {
	if len(p.Messages) > 0 && p.Messages[0].Role == RoleSystem {
		return p.Messages[0].Content
	}
	return ""
}

// Last returns the final message. The zero Message is returned for an
// empty prompt.
func (p Prompt) Last() Message {
	if len(p.Messages) == 0 {
		return Message{}
	}
	return p.Messages[len(p.Messages)-1]
}

// GenerationParams controls completion sampling.
type GenerationParams struct {
	Temperature float64
	MaxTokens   int
}

// DefaultGenerationParams returns the sampling parameters used for answers.
func DefaultGenerationParams() GenerationParams {
	return GenerationParams{Temperature: 0.3, MaxTokens: 800}
}
