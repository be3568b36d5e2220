package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arpel/helpdesk/internal/retrieval"
)

// timestampLayout matches the human-readable format used in the record logs.
const timestampLayout = "2006-01-02 15:04:05"

// StatusPending is the initial status of every escalation record. The
// team_solution and resolution_notes fields stay null until a downstream
// human process fills them in; this engine never mutates them.
const StatusPending = "Pending"

// Teams enumerates the escalation targets, in menu order.
var Teams = []string{"HR", "IT", "Finance", "Facilities", "Legal", "General"}

// FAQRecord is persisted once per FAQ workflow invocation that produced at
// least one turn.
type FAQRecord struct {
	SessionID     string `json:"session_id"`
	FAQID         string `json:"faq_id"`
	UserID        string `json:"user_id"`
	Timestamp     string `json:"timestamp"`
	Rating        int    `json:"rating"`
	Feedback      string `json:"feedback"`
	NumSubQueries int    `json:"num_sub_queries"`
	Conversation  []Turn `json:"conversation"`
}

// TicketRecord is persisted exactly once per ticket workflow invocation that
// ended via solved or escalate, summarizing the whole AI attempt history.
type TicketRecord struct {
	SessionID     string `json:"session_id"`
	TicketID      string `json:"ticket_id"`
	UserID        string `json:"user_id"`
	Timestamp     string `json:"timestamp"`
	Rating        int    `json:"rating"`
	Feedback      string `json:"feedback"`
	NumSubQueries int    `json:"num_sub_queries"`
	Escalated     bool   `json:"escalated"`
	Conversation  []Turn `json:"conversation"`
}

// EscalationRecord is persisted only when the escalation branch completes
// both team selection and the final complaint restatement.
type EscalationRecord struct {
	TicketID        string  `json:"ticket_id"`
	SessionID       string  `json:"session_id"`
	UserID          string  `json:"user_id"`
	Timestamp       string  `json:"timestamp"`
	FinalComplaint  string  `json:"final_complaint"`
	Subdomain       string  `json:"subdomain"`
	Status          string  `json:"status"`
	TeamSolution    *string `json:"team_solution"`
	ResolutionNotes *string `json:"resolution_notes"`
}

// RecordStore appends a record to a named append-only collection.
type RecordStore interface {
	Append(collection string, record any) error
}

// Generator produces a support answer from retrieved context, accumulated
// history, and the user's question.
type Generator interface {
	Generate(ctx context.Context, contextText, history, question string) (string, error)
}

// DocumentOpener builds an ephemeral retrieval index from a user-supplied
// file path.
type DocumentOpener func(ctx context.Context, path string) (retrieval.Index, error)

// Deps carries the capabilities injected into both workflows. Nothing here
// is ambient state; tests substitute fakes freely.
type Deps struct {
	KB        retrieval.Index
	OpenDoc   DocumentOpener
	Generator Generator
	Records   RecordStore

	// TopK is the passage count for single-source retrieval (default 5).
	TopK int
	// MergeTopK is the per-source count when KB and document results are
	// merged (default 3).
	MergeTopK int

	Now func() time.Time
}

func (d *Deps) defaults() {
	if d.TopK <= 0 {
		d.TopK = 5
	}
	if d.MergeTopK <= 0 {
		d.MergeTopK = 3
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

func (d Deps) timestamp() string {
	return d.Now().Format(timestampLayout)
}

// NewSessionID mints a session identifier, stable across all workflows
// invoked within one orchestrator run.
func NewSessionID() string {
	return "S" + uuid.New().String()[:5]
}

func newFAQID() string {
	return "F" + shortHex()
}

func newTicketID() string {
	return "T" + shortHex()
}

func shortHex() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:4]
}
