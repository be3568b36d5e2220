package session

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func runTicket(t *testing.T, deps Deps, input string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	w := NewTicketWorkflow(deps, NewPrompter(strings.NewReader(input), &out))
	err := w.Run(context.Background(), "u42", "S1234a")
	return out.String(), err
}

func TestTicketSolved(t *testing.T) {
	gen := &stubGenerator{}
	recs := &memRecords{}

	input := "printer jams every morning\n3\n8\nquick fix\n"
	if _, err := runTicket(t, testDeps(&stubIndex{}, gen, recs), input); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	tickets := recs.byCollection("ticket_ai")
	if len(tickets) != 1 {
		t.Fatalf("expected 1 ticket record, got %d", len(tickets))
	}
	rec := tickets[0].(TicketRecord)

	if rec.Escalated {
		t.Error("solved ticket must not be marked escalated")
	}
	if rec.Rating != 8 || rec.Feedback != "quick fix" {
		t.Errorf("rating/feedback = %d/%q", rec.Rating, rec.Feedback)
	}
	if rec.NumSubQueries != 1 || len(rec.Conversation) != 1 {
		t.Errorf("expected 1 attempt, got num=%d len=%d", rec.NumSubQueries, len(rec.Conversation))
	}
	if !strings.HasPrefix(rec.TicketID, "T") || len(rec.TicketID) != 5 {
		t.Errorf("unexpected ticket id %q", rec.TicketID)
	}
	if got := recs.byCollection("ticket_escalations"); len(got) != 0 {
		t.Errorf("solved ticket wrote %d escalation records", len(got))
	}
}

func TestTicketCancelWritesNothing(t *testing.T) {
	recs := &memRecords{}
	for _, input := range []string{"cancel\n", "my issue\n4\n", "my issue\n2\ncancel\n"} {
		if _, err := runTicket(t, testDeps(&stubIndex{}, &stubGenerator{}, recs), input); err != nil {
			t.Fatalf("input %q: Run() error: %v", input, err)
		}
	}
	if len(recs.appends) != 0 {
		t.Errorf("cancelled tickets wrote %d records", len(recs.appends))
	}
}

func TestTicketRephraseUsesFreshHistory(t *testing.T) {
	gen := &stubGenerator{}
	recs := &memRecords{}

	input := "vpn drops\n2\nvpn drops on wifi only\n3\n5\nmeh\n"
	if _, err := runTicket(t, testDeps(&stubIndex{}, gen, recs), input); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(gen.histories) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(gen.histories))
	}
	for i, h := range gen.histories {
		if h != "" {
			t.Errorf("attempt %d got history %q, want empty", i, h)
		}
	}

	rec := recs.byCollection("ticket_ai")[0].(TicketRecord)
	if rec.NumSubQueries != 2 {
		t.Errorf("NumSubQueries = %d, want 2", rec.NumSubQueries)
	}
	if rec.Conversation[1].Query != "vpn drops on wifi only" {
		t.Errorf("second turn query = %q", rec.Conversation[1].Query)
	}
}

func TestTicketEscalationComplete(t *testing.T) {
	recs := &memRecords{}

	// Escalate, rate, feedback, pick IT (2), restate complaint.
	input := "badge reader broken\n1\n9\nneeds a human\n2\nbadge reader at door 4 is dead\n"
	out, err := runTicket(t, testDeps(&stubIndex{}, &stubGenerator{}, recs), input)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	escs := recs.byCollection("ticket_escalations")
	if len(escs) != 1 {
		t.Fatalf("expected 1 escalation record, got %d", len(escs))
	}
	esc := escs[0].(EscalationRecord)

	if esc.Subdomain != "IT" {
		t.Errorf("subdomain = %q, want IT", esc.Subdomain)
	}
	if esc.Status != StatusPending {
		t.Errorf("status = %q, want %q", esc.Status, StatusPending)
	}
	if esc.TeamSolution != nil || esc.ResolutionNotes != nil {
		t.Error("team_solution and resolution_notes must start null")
	}
	if esc.FinalComplaint != "badge reader at door 4 is dead" {
		t.Errorf("final complaint = %q", esc.FinalComplaint)
	}

	tickets := recs.byCollection("ticket_ai")
	if len(tickets) != 1 {
		t.Fatalf("expected 1 ticket record, got %d", len(tickets))
	}
	rec := tickets[0].(TicketRecord)
	if !rec.Escalated {
		t.Error("escalated ticket must be marked escalated")
	}
	if esc.TicketID != rec.TicketID || esc.SessionID != rec.SessionID {
		t.Errorf("escalation ids %q/%q do not match ticket %q/%q",
			esc.TicketID, esc.SessionID, rec.TicketID, rec.SessionID)
	}
	if !strings.Contains(out, "IT") {
		t.Errorf("confirmation missing team name:\n%s", out)
	}
}

func TestTicketEscalationAbortedStillWritesTicket(t *testing.T) {
	// Abort at the team menu (option 7) and at the final complaint.
	for _, input := range []string{
		"no hot water\n1\n4\nshrug\n7\n",
		"no hot water\n1\n4\nshrug\ncancel\n",
		"no hot water\n1\n4\nshrug\n3\ncancel\n",
	} {
		recs := &memRecords{}
		if _, err := runTicket(t, testDeps(&stubIndex{}, &stubGenerator{}, recs), input); err != nil {
			t.Fatalf("input %q: Run() error: %v", input, err)
		}

		if got := recs.byCollection("ticket_escalations"); len(got) != 0 {
			t.Errorf("input %q: aborted escalation wrote %d escalation records", input, len(got))
		}
		tickets := recs.byCollection("ticket_ai")
		if len(tickets) != 1 {
			t.Fatalf("input %q: expected 1 ticket record, got %d", input, len(tickets))
		}
		if rec := tickets[0].(TicketRecord); !rec.Escalated {
			t.Errorf("input %q: aborted escalation must still mark the ticket escalated", input)
		}
	}
}

func TestTicketEmptyFinalComplaintFallsBack(t *testing.T) {
	recs := &memRecords{}

	input := "elevator stuck\n1\n10\n\n6\n\n"
	if _, err := runTicket(t, testDeps(&stubIndex{}, &stubGenerator{}, recs), input); err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	esc := recs.byCollection("ticket_escalations")[0].(EscalationRecord)
	if esc.Subdomain != "General" {
		t.Errorf("subdomain = %q, want General", esc.Subdomain)
	}
	if esc.FinalComplaint != "elevator stuck" {
		t.Errorf("final complaint = %q, want fallback to original", esc.FinalComplaint)
	}
}
