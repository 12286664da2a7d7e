package questions

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/abhisek/quizmastery/internal/llm"
	"github.com/abhisek/quizmastery/internal/quiz"
)

// questionOutput is one raw item before validation. Correct is a pointer so
// a missing index is caught instead of defaulting to option 0.
type questionOutput struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     *int     `json:"correct"`
	Explanation string   `json:"explanation"`
}

// arraySpan finds the outermost "[ {...} ]" in free text.
var arraySpan = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)

var errNoQuestions = errors.New("no question array in response")

// parseQuestions accepts {"questions": [...]}, a bare array, or free text
// containing an array, with or without markdown fences.
func parseQuestions(raw []byte) ([]quiz.Question, error) {
	text := bytes.TrimSpace(llm.StripFences(raw))
	if len(text) == 0 {
		return nil, errNoQuestions
	}

	var items []questionOutput
	switch text[0] {
	case '[':
		if err := json.Unmarshal(text, &items); err != nil {
			return nil, fmt.Errorf("parse question array: %w", err)
		}
		return convert(items), nil
	case '{':
		var wrapped struct {
			Questions []questionOutput `json:"questions"`
		}
		if err := json.Unmarshal(text, &wrapped); err == nil && wrapped.Questions != nil {
			return convert(wrapped.Questions), nil
		}
	}

	span := arraySpan.Find(text)
	if span == nil {
		return nil, errNoQuestions
	}
	if err := json.Unmarshal(span, &items); err != nil {
		return nil, fmt.Errorf("parse embedded question array: %w", err)
	}
	return convert(items), nil
}

func convert(items []questionOutput) []quiz.Question {
	out := make([]quiz.Question, len(items))
	for i, it := range items {
		correct := -1
		if it.Correct != nil {
			correct = *it.Correct
		}
		out[i] = quiz.Question{
			Text:         it.Question,
			Options:      it.Options,
			CorrectIndex: correct,
			Explanation:  it.Explanation,
		}
	}
	return out
}
