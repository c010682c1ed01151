package chat

import "fmt"

const (
	ChatRoleUser   = "user"
	ChatRoleAgent  = "assistant"
	ChatRoleSystem = "system"
)

// ChatMessage is a single message in a provider conversation.
type ChatMessage struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Request is one call to the generator: a fixed system instruction plus a rendered
// prompt. JSON asks the provider to constrain its output to a JSON document.
type Request struct {
	System string
	Prompt string
	JSON   bool
}

// Messages renders the request in the chat-message form most providers accept.
func (r Request) Messages() []ChatMessage {
	msgs := make([]ChatMessage, 0, 2)
	if r.System != "" {
		msgs = append(msgs, ChatMessage{Role: ChatRoleSystem, Content: r.System})
	}
	return append(msgs, ChatMessage{Role: ChatRoleUser, Content: r.Prompt})
}

func (r Request) Validate() error {
	if r.Prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}
	return nil
}
