package questions

import (
	"fmt"
	"strings"
)

const systemPrompt = `You write multiple-choice quizzes that check whether a learner understands a topic.

Rules:
- Generate exactly 10 questions about the given topic.
- Each question has exactly 4 options and exactly one correct option.
- "correct" is the zero-based index (0-3) of the correct option.
- Questions test understanding, not just memorization.
- Options are plausible, but only one is clearly correct.
- Difficulty is appropriate for someone learning the topic.
- Respond with valid JSON only, shaped as {"questions": [...]}, without any markdown formatting.`

func buildUserMessage(topic string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", strings.TrimSpace(topic))
	b.WriteString("Make sure every question is relevant to this topic.\n")
	b.WriteString(`Each item: {"question": "...", "options": ["A", "B", "C", "D"], "correct": 0, "explanation": "..."}`)
	return b.String()
}
