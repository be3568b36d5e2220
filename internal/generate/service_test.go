package generate

import (
	"context"
	"strings"
	"testing"

	"github.com/arpel/helpdesk/internal/engine"
)

type stubEngine struct {
	lastModel    string
	lastMessages []engine.Message
	reply        string
	err          error
}

func (s *stubEngine) Chat(_ context.Context, model string, messages []engine.Message) (string, error) {
	s.lastModel = model
	s.lastMessages = messages
	return s.reply, s.err
}
func (s *stubEngine) Embed(_ context.Context, _ string, _ string) ([]float32, error) {
	return nil, nil
}
func (s *stubEngine) IsRunning(_ context.Context) bool               { return true }
func (s *stubEngine) ListModels(_ context.Context) ([]string, error) { return nil, nil }
func (s *stubEngine) HasModel(_ context.Context, _ string) bool      { return true }
func (s *stubEngine) PullModel(_ context.Context, _ string, _ func(engine.PullProgress)) error {
	return nil
}

func TestGenerate_RendersTemplate(t *testing.T) {
	eng := &stubEngine{reply: "- Reset your password."}
	svc := New(eng, "llama3.1")

	answer, err := svc.Generate(context.Background(), "ctx passage", "\nQ: a\nA: b", "how do I reset?")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if answer != "- Reset your password." {
		t.Errorf("answer = %q", answer)
	}

	if eng.lastModel != "llama3.1" {
		t.Errorf("model = %q, want llama3.1", eng.lastModel)
	}
	if len(eng.lastMessages) != 1 {
		t.Fatalf("got %d messages, want 1", len(eng.lastMessages))
	}

	prompt := eng.lastMessages[0].Content
	for _, want := range []string{"ctx passage", "\nQ: a\nA: b", "how do I reset?", "bullet points"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildPrompt_OrdersSections(t *testing.T) {
	prompt := BuildPrompt("CONTEXT", "HISTORY", "QUESTION")

	ctxIdx := strings.Index(prompt, "CONTEXT")
	histIdx := strings.Index(prompt, "HISTORY")
	qIdx := strings.Index(prompt, "QUESTION")
	if ctxIdx == -1 || histIdx == -1 || qIdx == -1 {
		t.Fatal("prompt missing a section")
	}
	if !(ctxIdx < histIdx && histIdx < qIdx) {
		t.Errorf("sections out of order: context=%d history=%d question=%d", ctxIdx, histIdx, qIdx)
	}
}
