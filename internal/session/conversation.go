package session

import (
	"fmt"
	"strings"
)

// Turn is one retrieval+generation round: the user's query, the normalized
// answer, and the deduplicated provenance of the passages behind it.
// Immutable once appended to a Conversation.
type Turn struct {
	Query   string   `json:"query_text"`
	Answer  string   `json:"generated_answer"`
	Sources []string `json:"sources"`
}

// Conversation accumulates turns in order and derives the history text used
// as generation context for the following turn. Turns are never removed or
// reordered; the history is the sole memory mechanism across turns.
type Conversation struct {
	turns []Turn
}

// Append adds a turn to the conversation.
func (c *Conversation) Append(t Turn) {
	c.turns = append(c.turns, t)
}

// Len returns the number of turns appended so far.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Turns returns a copy of the appended turns in order.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// History returns the conversation as "\nQ: {query}\nA: {answer}" per turn
// in append order. Empty for a conversation with no turns.
func (c *Conversation) History() string {
	var sb strings.Builder
	for _, t := range c.turns {
		fmt.Fprintf(&sb, "\nQ: %s\nA: %s", t.Query, t.Answer)
	}
	return sb.String()
}
