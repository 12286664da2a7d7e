package questions

import (
	"context"
	"errors"

	"github.com/abhisek/quizmastery/internal/llm"
	"github.com/abhisek/quizmastery/internal/quiz"
)

// Config controls LLMSource.
type Config struct {
	// Validators run in order on every parsed quiz; the first failure
	// rejects it.
	Validators []Validator

	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the standard validator chain and token budget.
func DefaultConfig() Config {
	return Config{
		Validators: []Validator{
			&CountValidator{Want: quiz.QuestionCount},
			&StructuralValidator{},
		},
		MaxTokens:   4096,
		Temperature: 0.7,
	}
}

// LLMSource asks a provider for a quiz. Every failure is a *GenerationError.
type LLMSource struct {
	provider llm.Provider
	config   Config
}

func NewLLMSource(provider llm.Provider, cfg Config) *LLMSource {
	return &LLMSource{provider: provider, config: cfg}
}

func (s *LLMSource) Fetch(ctx context.Context, topic string) ([]quiz.Question, error) {
	ctx = llm.WithTopic(llm.WithPurpose(ctx, "quiz-gen"), topic)

	req := llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildUserMessage(topic)}},
		Schema:      QuizSchema,
		MaxTokens:   s.config.MaxTokens,
		Temperature: s.config.Temperature,
	}

	resp, err := s.provider.Generate(ctx, req)
	var content []byte
	if err == nil {
		content = resp.Content
	} else {
		// A reply that misses the schema may still hold a usable bare array.
		var inv *llm.ErrInvalidResponse
		if !errors.As(err, &inv) || len(inv.Content) == 0 {
			return nil, &GenerationError{Topic: topic, Err: err}
		}
		content = inv.Content
	}

	qs, err := parseQuestions(content)
	if err != nil {
		return nil, &GenerationError{Topic: topic, Err: err}
	}
	for _, v := range s.config.Validators {
		if verr := v.Validate(qs); verr != nil {
			return nil, &GenerationError{Topic: topic, Err: verr}
		}
	}
	return qs, nil
}
