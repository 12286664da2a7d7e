package questions

import (
	"fmt"

	"github.com/abhisek/quizmastery/internal/quiz"
)

type template struct {
	text    string
	options [quiz.OptionCount]string
	correct int
}

var fallbackTemplates = [quiz.QuestionCount]template{
	{"What is a fundamental concept in %s?", [4]string{"Basic understanding", "Advanced theory", "Complex implementation", "Expert knowledge"}, 0},
	{"Which approach is commonly used in %s?", [4]string{"Random approach", "Systematic approach", "Chaotic approach", "Undefined approach"}, 1},
	{"What is the primary benefit of learning %s?", [4]string{"No benefit", "Confusion", "Better understanding", "More complexity"}, 2},
	{"How should one start learning %s?", [4]string{"Jump to advanced topics", "Skip fundamentals", "Ignore prerequisites", "Start with basics"}, 3},
	{"What is important when studying %s?", [4]string{"Practice and understanding", "Memorization only", "Skipping examples", "Avoiding questions"}, 0},
	{"Which resource is most helpful for %s?", [4]string{"Outdated materials", "Comprehensive guides", "Random articles", "Unrelated content"}, 1},
	{"What indicates mastery of %s?", [4]string{"Confusion about basics", "Inability to explain", "Clear understanding and application", "Memorizing definitions"}, 2},
	{"How can you improve your knowledge of %s?", [4]string{"Avoid practice", "Skip difficult parts", "Ignore feedback", "Regular practice and review"}, 3},
	{"What is a common mistake when learning %s?", [4]string{"Rushing through fundamentals", "Taking time to understand", "Asking questions", "Practicing regularly"}, 0},
	{"What should you do after learning %s?", [4]string{"Forget everything", "Apply knowledge practically", "Avoid related topics", "Stop learning"}, 1},
}

// FallbackBank returns the fixed ten-question quiz with topic substituted
// into each question. It never fails.
func FallbackBank(topic string) []quiz.Question {
	out := make([]quiz.Question, len(fallbackTemplates))
	for i, t := range fallbackTemplates {
		out[i] = quiz.Question{
			Text:         fmt.Sprintf(t.text, topic),
			Options:      append([]string(nil), t.options[:]...),
			CorrectIndex: t.correct,
		}
	}
	return out
}
