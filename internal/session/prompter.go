package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// cancelToken is the literal the user types to abort the current step.
const cancelToken = "cancel"

// warnInvalid is printed whenever a choice or range prompt receives input
// outside its accepted set.
const warnInvalid = "Invalid input. Please enter a valid number corresponding to the choices provided."

// ErrCancelled is returned by prompt methods when the user types the cancel
// token. Workflows branch on it to drive their early-exit transitions.
var ErrCancelled = errors.New("cancelled")

// ErrInputClosed is returned when the input stream ends. It aborts the
// running workflow the same way an explicit exit would.
var ErrInputClosed = errors.New("input closed")

// Prompter is the line-oriented interactive surface shared by all workflows.
// Every blocking read happens on the caller's goroutine; there is no
// background work between prompts.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// NewPrompter creates a Prompter reading from r and writing prompts to w.
func NewPrompter(r io.Reader, w io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(r), out: w}
}

// Say writes a line to the output.
func (p *Prompter) Say(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Prompter) read(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", ErrInputClosed
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// ReadRaw reads one trimmed line without interpreting the cancel token.
// Used for free-text answers like feedback, where "cancel" is valid content.
func (p *Prompter) ReadRaw(prompt string) (string, error) {
	return p.read(prompt)
}

// ReadLine reads one trimmed line, returning ErrCancelled if the user typed
// the cancel token (case-insensitive).
func (p *Prompter) ReadLine(prompt string) (string, error) {
	line, err := p.read(prompt)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(line, cancelToken) {
		return "", ErrCancelled
	}
	return line, nil
}

// ReadChoice prompts until the user enters one of the valid choices,
// re-prompting with a fixed warning on anything else. The cancel token
// returns ErrCancelled.
func (p *Prompter) ReadChoice(prompt string, valid []string) (string, error) {
	for {
		line, err := p.ReadLine(prompt)
		if err != nil {
			return "", err
		}
		for _, v := range valid {
			if line == v {
				return line, nil
			}
		}
		p.Say(warnInvalid)
	}
}

// ReadRange prompts until the user enters an integer within the inclusive
// range [min, max], re-prompting with a fixed warning on anything else.
func (p *Prompter) ReadRange(prompt string, min, max int) (int, error) {
	for {
		line, err := p.read(prompt)
		if err != nil {
			return 0, err
		}
		if n, convErr := strconv.Atoi(line); convErr == nil && n >= min && n <= max {
			return n, nil
		}
		p.Say(warnInvalid)
	}
}
