package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/arpel/helpdesk/internal/recordlog"
)

// TicketWorkflow drives one ticket session: complaint intake, repeated AI
// resolution attempts, and the solved/escalate/cancel outcome. Cancelling at
// any point before an outcome leaves zero records; a solved or escalated
// ticket writes exactly one ticket record, and a fully completed escalation
// additionally writes one escalation record.
type TicketWorkflow struct {
	deps Deps
	io   *Prompter
}

// NewTicketWorkflow creates a TicketWorkflow with the given capabilities.
func NewTicketWorkflow(deps Deps, p *Prompter) *TicketWorkflow {
	deps.defaults()
	return &TicketWorkflow{deps: deps, io: p}
}

// ticketOutcome captures how the attempt loop ended.
type ticketOutcome struct {
	escalate  bool
	complaint string
}

// Run executes the workflow for one invocation.
func (w *TicketWorkflow) Run(ctx context.Context, userID, sessionID string) error {
	complaint, err := w.io.ReadLine("Describe your issue (or type 'cancel'): ")
	if errors.Is(err, ErrCancelled) || errors.Is(err, ErrInputClosed) {
		w.io.Say("Ticket cancelled.")
		return nil
	}
	if err != nil {
		return err
	}

	conv := &Conversation{}
	outcome, err := w.attemptLoop(ctx, complaint, conv)
	if errors.Is(err, ErrCancelled) || errors.Is(err, ErrInputClosed) {
		w.io.Say("Ticket cancelled.")
		return nil
	}
	if err != nil {
		return err
	}

	rating, err := w.io.ReadRange("Rate the AI assistance (1-10): ", 1, 10)
	if err != nil {
		return err
	}
	feedback, err := w.io.ReadRaw("Any feedback on the AI assistance?: ")
	if err != nil {
		return err
	}

	ticketID := newTicketID()
	if outcome.escalate {
		if err := w.escalate(userID, sessionID, ticketID, outcome.complaint); err != nil {
			return err
		}
	}

	rec := TicketRecord{
		SessionID:     sessionID,
		TicketID:      ticketID,
		UserID:        userID,
		Timestamp:     w.deps.timestamp(),
		Rating:        rating,
		Feedback:      feedback,
		NumSubQueries: conv.Len(),
		Escalated:     outcome.escalate,
		Conversation:  conv.Turns(),
	}
	if err := w.deps.Records.Append(recordlog.CollectionTicketAI, rec); err != nil {
		return fmt.Errorf("saving ticket: %w", err)
	}

	w.io.Say("Ticket %s logged.", ticketID)
	return nil
}

// attemptLoop runs AI resolution attempts until the user marks the ticket
// solved, asks to escalate, or cancels. Each attempt retrieves and generates
// against the current complaint alone; attempts do not share history, only
// the conversation record accumulates.
func (w *TicketWorkflow) attemptLoop(ctx context.Context, complaint string, conv *Conversation) (ticketOutcome, error) {
	for {
		passages, err := w.deps.KB.Search(ctx, complaint, w.deps.TopK)
		if err != nil {
			return ticketOutcome{}, fmt.Errorf("searching knowledge base: %w", err)
		}

		answer, err := w.deps.Generator.Generate(ctx, passageText(passages), "", complaint)
		if err != nil {
			return ticketOutcome{}, fmt.Errorf("generating answer: %w", err)
		}

		answer = NormalizeAnswer(answer)
		conv.Append(Turn{
			Query:   complaint,
			Answer:  answer,
			Sources: DedupeSources(provenances(passages)),
		})

		w.io.Say("\nSuggested resolution:\n%s", answer)

		w.io.Say("How would you like to proceed?\n1. Escalate to a team\n2. Rephrase and ask again\n3. Issue solved\n4. Cancel")
		choice, err := w.io.ReadChoice("Enter number: ", []string{"1", "2", "3", "4"})
		if err != nil {
			return ticketOutcome{}, err
		}

		switch choice {
		case "1":
			return ticketOutcome{escalate: true, complaint: complaint}, nil
		case "2":
			complaint, err = w.io.ReadLine("Describe your issue again (or type 'cancel'): ")
			if err != nil {
				return ticketOutcome{}, err
			}
		case "3":
			return ticketOutcome{}, nil
		default:
			return ticketOutcome{}, ErrCancelled
		}
	}
}

// escalate runs the team selection and final complaint steps. Cancelling
// either step aborts only the escalation record; the surrounding ticket
// record is still written by the caller. A nil return with no record append
// is therefore a valid outcome here.
func (w *TicketWorkflow) escalate(userID, sessionID, ticketID, lastComplaint string) error {
	w.io.Say("Select the team to escalate to:")
	valid := make([]string, 0, len(Teams)+1)
	for i, team := range Teams {
		w.io.Say("%d. %s", i+1, team)
		valid = append(valid, fmt.Sprintf("%d", i+1))
	}
	w.io.Say("%d. Cancel escalation", len(Teams)+1)
	valid = append(valid, fmt.Sprintf("%d", len(Teams)+1))

	choice, err := w.io.ReadChoice("Enter number: ", valid)
	if errors.Is(err, ErrCancelled) || errors.Is(err, ErrInputClosed) {
		w.io.Say("Escalation cancelled.")
		return nil
	}
	if err != nil {
		return err
	}
	if choice == fmt.Sprintf("%d", len(Teams)+1) {
		w.io.Say("Escalation cancelled.")
		return nil
	}

	var team string
	for i := range Teams {
		if choice == fmt.Sprintf("%d", i+1) {
			team = Teams[i]
			break
		}
	}

	final, err := w.io.ReadLine(fmt.Sprintf("Restate your complaint for the %s team (or type 'cancel'): ", team))
	if errors.Is(err, ErrCancelled) || errors.Is(err, ErrInputClosed) {
		w.io.Say("Escalation cancelled.")
		return nil
	}
	if err != nil {
		return err
	}
	if final == "" {
		final = lastComplaint
	}

	rec := EscalationRecord{
		TicketID:       ticketID,
		SessionID:      sessionID,
		UserID:         userID,
		Timestamp:      w.deps.timestamp(),
		FinalComplaint: final,
		Subdomain:      team,
		Status:         StatusPending,
	}
	if err := w.deps.Records.Append(recordlog.CollectionEscalations, rec); err != nil {
		return fmt.Errorf("saving escalation: %w", err)
	}

	w.io.Say("Escalated to the %s team. Status: %s.", team, StatusPending)
	return nil
}
