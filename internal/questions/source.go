// Package questions produces the question set for a quiz, from an LLM when
// one is configured and from a fixed topic-templated bank otherwise.
package questions

import (
	"context"
	"fmt"

	"github.com/abhisek/quizmastery/internal/quiz"
)

// Source produces a full quiz for a topic.
type Source interface {
	Fetch(ctx context.Context, topic string) ([]quiz.Question, error)
}

// GenerationError reports that the LLM could not produce a usable quiz.
// Service absorbs it and serves the fallback bank instead.
type GenerationError struct {
	Topic string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate questions for %q: %v", e.Topic, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
