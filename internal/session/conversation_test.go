package session

import "testing"

func TestConversationHistoryEmpty(t *testing.T) {
	var c Conversation
	if got := c.History(); got != "" {
		t.Errorf("expected empty history, got %q", got)
	}
}

func TestConversationHistoryFormat(t *testing.T) {
	var c Conversation
	c.Append(Turn{Query: "how do I reset my password", Answer: "- use the portal"})
	c.Append(Turn{Query: "which portal", Answer: "- the identity portal"})

	want := "\nQ: how do I reset my password\nA: - use the portal" +
		"\nQ: which portal\nA: - the identity portal"
	if got := c.History(); got != want {
		t.Errorf("History() = %q, want %q", got, want)
	}
}

func TestConversationTurnsCopy(t *testing.T) {
	var c Conversation
	c.Append(Turn{Query: "q1", Answer: "a1"})

	turns := c.Turns()
	turns[0].Query = "mutated"

	if c.Turns()[0].Query != "q1" {
		t.Error("Turns() should return a copy, not the backing slice")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}
