// Package generate wraps the inference engine with the fixed support-answer
// instruction template.
package generate

import (
	"context"
	"fmt"

	"github.com/arpel/helpdesk/internal/engine"
)

// instructionTemplate is the prompt used for every generated answer. Its
// wording is a configuration constant of the service, not part of the
// session orchestration contract.
const instructionTemplate = `You are a precise and helpful support assistant.

Rules:
- Always use the provided context when possible.
- If context is insufficient, infer a possible answer but add "As per my knowledge, verify with team" once at the bottom.
- Format answers as bullet points for clarity.
- Keep answers concise:
  - If the question is short or simple, reply in 2-4 bullet points max.
  - If the question is complex, reply in 5-10 structured bullet points.
- Avoid long paragraphs. Each bullet should be 1-2 short sentences.
- Trim unnecessary details, and do not repeat sentences.
- Maintain a consistent tone: concise, step-by-step, professional but user-friendly.

Context:
%s

Previous QA history (if any):
%s

Question: %s

Answer:`

// Service produces support answers from retrieved context, conversation
// history, and the user's question.
type Service struct {
	engine engine.Engine
	model  string
}

// New creates a Service using the given Engine and chat model name.
func New(e engine.Engine, model string) *Service {
	return &Service{engine: e, model: model}
}

// Generate renders the instruction template and returns the engine's answer.
func (s *Service) Generate(ctx context.Context, contextText, history, question string) (string, error) {
	prompt := BuildPrompt(contextText, history, question)

	answer, err := s.engine.Chat(ctx, s.model, []engine.Message{
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	return answer, nil
}

// BuildPrompt renders the instruction template with the given inputs.
func BuildPrompt(contextText, history, question string) string {
	return fmt.Sprintf(instructionTemplate, contextText, history, question)
}
