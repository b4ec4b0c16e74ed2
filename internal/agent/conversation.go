package agent

import (
	"github.com/ashutoshrp06/sow-assistant/internal/types"
)

// Conversation is the append-only message log of a single agent run. It
// is owned by that run and never shared, so it needs no locking.
type Conversation struct {
	messages []types.Message
}

// NewConversation starts a conversation with the given messages.
func NewConversation(initial ...types.Message) *Conversation {
	c := &Conversation{messages: make([]types.Message, 0, len(initial)+4)}
	c.messages = append(c.messages, initial...)
	return c
}

// Append adds messages to the end of the log.
func (c *Conversation) Append(msgs ...types.Message) {
	c.messages = append(c.messages, msgs...)
}

// Messages returns a copy of the log.
func (c *Conversation) Messages() []types.Message {
	result := make([]types.Message, len(c.messages))
	copy(result, c.messages)
	return result
}

// Last returns the most recent message.
func (c *Conversation) Last() (types.Message, bool) {
	if len(c.messages) == 0 {
		return types.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// PendingToolCalls returns the tool calls of the last assistant message
// that have no matching tool message yet.
func (c *Conversation) PendingToolCalls() []types.ToolCall {
	for i := len(c.messages) - 1; i >= 0; i-- {
		msg := c.messages[i]
		if msg.Role != types.RoleAssistant {
			continue
		}
		answered := make(map[string]bool)
		for _, later := range c.messages[i+1:] {
			if later.Role == types.RoleTool {
				answered[later.ToolCallID] = true
			}
		}
		var pending []types.ToolCall
		for _, call := range msg.ToolCalls {
			if !answered[call.ID] {
				pending = append(pending, call)
			}
		}
		return pending
	}
	return nil
}
