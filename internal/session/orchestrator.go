package session

import (
	"context"
	"errors"
	"log/slog"
)

// Orchestrator owns the top-level interactive loop: greeting, user
// identification, and the workflow menu. One orchestrator run is one
// session; both workflows invoked from the menu share its session ID.
type Orchestrator struct {
	deps   Deps
	io     *Prompter
	logger *slog.Logger
}

// NewOrchestrator creates an Orchestrator. A nil logger disables logging.
func NewOrchestrator(deps Deps, p *Prompter, logger *slog.Logger) *Orchestrator {
	deps.defaults()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{deps: deps, io: p, logger: logger}
}

// promptUserID loops until a non-empty user identifier is entered. Every
// persisted record carries the user ID, so a blank one is never accepted.
func (o *Orchestrator) promptUserID() (string, error) {
	for {
		userID, err := o.io.ReadLine("Enter your user ID (or type 'cancel' to exit): ")
		if err != nil {
			return "", err
		}
		if userID != "" {
			return userID, nil
		}
		o.io.Say("Please enter a valid User ID.")
	}
}

// Run blocks until the user exits or the input stream closes. Workflow
// failures are reported and logged but never end the session; the menu
// comes back after every outcome.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.io.Say("Welcome to the support assistant.")

	userID, err := o.promptUserID()
	if errors.Is(err, ErrCancelled) || errors.Is(err, ErrInputClosed) {
		o.io.Say("Goodbye.")
		return nil
	}
	if err != nil {
		return err
	}

	sessionID := NewSessionID()
	o.logger.Info("session started", "session_id", sessionID, "user_id", userID)

	for {
		o.io.Say("\nWhat would you like to do?\n1. Ask a question (FAQ)\n2. Raise a ticket\n3. Exit")
		choice, err := o.io.ReadChoice("Enter number: ", []string{"1", "2", "3"})
		if errors.Is(err, ErrCancelled) || errors.Is(err, ErrInputClosed) {
			o.io.Say("Goodbye.")
			return nil
		}
		if err != nil {
			return err
		}

		switch choice {
		case "1":
			err = NewFAQWorkflow(o.deps, o.io).Run(ctx, userID, sessionID)
		case "2":
			err = NewTicketWorkflow(o.deps, o.io).Run(ctx, userID, sessionID)
		default:
			o.io.Say("Goodbye.")
			o.logger.Info("session ended", "session_id", sessionID)
			return nil
		}
		if err != nil {
			o.io.Say("Something went wrong: %v. Please try again.", err)
			o.logger.Error("workflow failed", "session_id", sessionID, "error", err)
		}
	}
}
