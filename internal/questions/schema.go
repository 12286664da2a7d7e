package questions

import (
	"github.com/abhisek/quizmastery/internal/llm"
	"github.com/abhisek/quizmastery/internal/quiz"
)

// QuizSchema is the response shape requested from the provider.
var QuizSchema = &llm.Schema{
	Name:        "topic-quiz",
	Description: "A multiple-choice quiz of exactly ten questions",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type":     "array",
				"minItems": quiz.QuestionCount,
				"maxItems": quiz.QuestionCount,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question": map[string]any{
							"type":        "string",
							"description": "The question text",
						},
						"options": map[string]any{
							"type":        "array",
							"minItems":    quiz.OptionCount,
							"maxItems":    quiz.OptionCount,
							"items":       map[string]any{"type": "string"},
							"description": "Exactly 4 answer options",
						},
						"correct": map[string]any{
							"type":        "integer",
							"minimum":     0,
							"maximum":     quiz.OptionCount - 1,
							"description": "Zero-based index of the correct option",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "One sentence on why the correct option is right",
						},
					},
					"required":             []any{"question", "options", "correct", "explanation"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
