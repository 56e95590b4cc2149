package agent

import "github.com/antiwork/shortest/pkg/types"

// conversation is the message history of a single attempt.
type conversation struct {
	messages []*types.Message
}

func newConversation(messages ...*types.Message) *conversation {
	c := &conversation{}
	c.add(messages...)
	return c
}

func (c *conversation) add(messages ...*types.Message) {
	for _, m := range messages {
		if m != nil {
			c.messages = append(c.messages, m)
		}
	}
}

// all returns a copy of the history so providers cannot alias it.
func (c *conversation) all() []*types.Message {
	out := make([]*types.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *conversation) len() int {
	return len(c.messages)
}
