package questions

import (
	"fmt"
	"strings"

	"github.com/abhisek/quizmastery/internal/quiz"
)

// Validator checks a generated question set. Implementations are stateless.
type Validator interface {
	// Name is a short identifier used in errors and logs.
	Name() string

	Validate(qs []quiz.Question) *ValidationError
}

// ValidationError describes why a question set was rejected.
type ValidationError struct {
	Validator string
	Message   string
	Retryable bool
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validator %q: %s", e.Validator, e.Message)
}

// CountValidator requires exactly Want questions.
type CountValidator struct {
	Want int
}

func (v *CountValidator) Name() string { return "count" }

func (v *CountValidator) Validate(qs []quiz.Question) *ValidationError {
	if len(qs) != v.Want {
		return &ValidationError{
			Validator: v.Name(),
			Message:   fmt.Sprintf("expected %d questions, got %d", v.Want, len(qs)),
			Retryable: true,
		}
	}
	return nil
}

// StructuralValidator checks each question's text, options and correct index.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(qs []quiz.Question) *ValidationError {
	for i, q := range qs {
		if msg := checkQuestion(q); msg != "" {
			return &ValidationError{
				Validator: v.Name(),
				Message:   fmt.Sprintf("question %d: %s", i, msg),
				Retryable: true,
			}
		}
	}
	return nil
}

func checkQuestion(q quiz.Question) string {
	if strings.TrimSpace(q.Text) == "" {
		return "question text is empty"
	}
	if len(q.Options) != quiz.OptionCount {
		return fmt.Sprintf("expected %d options, got %d", quiz.OptionCount, len(q.Options))
	}
	for j, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return fmt.Sprintf("option %d is empty", j)
		}
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= quiz.OptionCount {
		return fmt.Sprintf("correct index %d out of range", q.CorrectIndex)
	}
	return ""
}
