package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arpel/helpdesk/internal/recordlog"
	"github.com/arpel/helpdesk/internal/retrieval"
)

// sourceMode selects where FAQ passages are retrieved from.
type sourceMode int

const (
	sourceKB sourceMode = iota + 1
	sourceDocument
	sourceBoth
)

// FAQWorkflow drives one FAQ session through its states: source selection,
// optional document collection, the query loop, and the closing rating
// capture. A record is written only if at least one turn was produced.
type FAQWorkflow struct {
	deps Deps
	io   *Prompter
}

// NewFAQWorkflow creates an FAQWorkflow with the given capabilities.
func NewFAQWorkflow(deps Deps, p *Prompter) *FAQWorkflow {
	deps.defaults()
	return &FAQWorkflow{deps: deps, io: p}
}

// Run executes the workflow for one invocation. Cancellation at any prompt
// follows the state machine: before the first turn it leaves no trace, after
// turns exist it proceeds to closing.
func (w *FAQWorkflow) Run(ctx context.Context, userID, sessionID string) error {
	mode, err := w.selectSource()
	if errors.Is(err, ErrCancelled) || errors.Is(err, ErrInputClosed) {
		w.io.Say("FAQ session cancelled.")
		return nil
	}
	if err != nil {
		return err
	}

	var doc retrieval.Index
	if mode == sourceDocument || mode == sourceBoth {
		doc, err = w.collectDocument(ctx)
		if errors.Is(err, ErrCancelled) || errors.Is(err, ErrInputClosed) {
			w.io.Say("FAQ session cancelled.")
			return nil
		}
		if err != nil {
			return err
		}
	}

	conv := &Conversation{}
	if err := w.queryLoop(ctx, mode, doc, conv); err != nil {
		return err
	}

	// Closing is only entered when the loop produced at least one turn.
	if conv.Len() == 0 {
		return nil
	}
	return w.closing(userID, sessionID, conv)
}

func (w *FAQWorkflow) selectSource() (sourceMode, error) {
	w.io.Say("Choose source:\n1. Knowledge base\n2. Document\n3. Both\n4. Cancel")
	choice, err := w.io.ReadChoice("Enter number: ", []string{"1", "2", "3", "4"})
	if err != nil {
		return 0, err
	}
	switch choice {
	case "1":
		return sourceKB, nil
	case "2":
		return sourceDocument, nil
	case "3":
		return sourceBoth, nil
	default:
		return 0, ErrCancelled
	}
}

// collectDocument prompts for a document path until one loads or the user
// cancels. Load failures are reported with their cause and re-prompted,
// never fatal.
func (w *FAQWorkflow) collectDocument(ctx context.Context) (retrieval.Index, error) {
	for {
		path, err := w.io.ReadLine("Enter document path (or type 'cancel'): ")
		if err != nil {
			return nil, err
		}

		idx, err := w.deps.OpenDoc(ctx, path)
		if err != nil {
			w.io.Say("Could not load document: %v. Please check the file and try again.", err)
			continue
		}
		return idx, nil
	}
}

func (w *FAQWorkflow) queryLoop(ctx context.Context, mode sourceMode, doc retrieval.Index, conv *Conversation) error {
	for {
		question, err := w.io.ReadLine("\nEnter your question (or type 'cancel' to finish): ")
		if errors.Is(err, ErrCancelled) || errors.Is(err, ErrInputClosed) {
			return nil
		}
		if err != nil {
			return err
		}

		passages, err := w.retrieve(ctx, mode, doc, question)
		if err != nil {
			return fmt.Errorf("retrieving passages: %w", err)
		}

		answer, err := w.deps.Generator.Generate(ctx, passageText(passages), conv.History(), question)
		if err != nil {
			return fmt.Errorf("generating answer: %w", err)
		}

		answer = NormalizeAnswer(answer)
		conv.Append(Turn{
			Query:   question,
			Answer:  answer,
			Sources: DedupeSources(provenances(passages)),
		})

		w.io.Say("\nAnswer:\n%s", answer)

		w.io.Say("Do you want to ask another question?\n1. Yes\n2. No\n3. Cancel")
		cont, err := w.io.ReadChoice("Enter number: ", []string{"1", "2", "3"})
		if errors.Is(err, ErrCancelled) || errors.Is(err, ErrInputClosed) {
			return nil
		}
		if err != nil {
			return err
		}
		if cont != "1" {
			return nil
		}
	}
}

// retrieve applies the retrieval policy for the selected source mode. In
// "both" mode knowledge-base results precede document results; that order is
// the tie-break when the same passage could come from either.
func (w *FAQWorkflow) retrieve(ctx context.Context, mode sourceMode, doc retrieval.Index, question string) ([]retrieval.Passage, error) {
	switch mode {
	case sourceKB:
		return w.deps.KB.Search(ctx, question, w.deps.TopK)
	case sourceDocument:
		return doc.Search(ctx, question, w.deps.TopK)
	default:
		kbPassages, err := w.deps.KB.Search(ctx, question, w.deps.MergeTopK)
		if err != nil {
			return nil, err
		}
		docPassages, err := doc.Search(ctx, question, w.deps.MergeTopK)
		if err != nil {
			return nil, err
		}
		return append(kbPassages, docPassages...), nil
	}
}

func (w *FAQWorkflow) closing(userID, sessionID string, conv *Conversation) error {
	rating, err := w.io.ReadRange("Rate this FAQ session (1-10): ", 1, 10)
	if err != nil {
		return err
	}
	feedback, err := w.io.ReadRaw("Any feedback on this session?: ")
	if err != nil {
		return err
	}

	rec := FAQRecord{
		SessionID:     sessionID,
		FAQID:         newFAQID(),
		UserID:        userID,
		Timestamp:     w.deps.timestamp(),
		Rating:        rating,
		Feedback:      feedback,
		NumSubQueries: conv.Len(),
		Conversation:  conv.Turns(),
	}
	if err := w.deps.Records.Append(recordlog.CollectionFAQ, rec); err != nil {
		return fmt.Errorf("saving FAQ session: %w", err)
	}

	w.io.Say("FAQ session %s logged.", rec.FAQID)
	return nil
}

func passageText(passages []retrieval.Passage) string {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}
	return strings.Join(texts, "\n\n")
}

func provenances(passages []retrieval.Passage) []string {
	out := make([]string, len(passages))
	for i, p := range passages {
		out[i] = p.Provenance()
	}
	return out
}
