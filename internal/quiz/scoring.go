package quiz

// PassThreshold is the number of correct answers needed to pass. It is a
// fixed policy for the canonical QuestionCount-question set and is not
// scaled by the number of questions actually supplied.
const PassThreshold = 7

// Outcome is the result of scoring one submission.
type Outcome struct {
	Correct int
	Passed  bool
}

// Score compares answers to questions by index. An answer counts only when
// it is set, its position has a question and it equals that question's
// CorrectIndex. Extra answers are ignored and missing ones count as wrong.
func Score(questions []Question, answers []Answer) Outcome {
	correct := 0
	for i, a := range answers {
		if i >= len(questions) {
			break
		}
		if a.Set && a.Index == questions[i].CorrectIndex {
			correct++
		}
	}
	return Outcome{Correct: correct, Passed: correct >= PassThreshold}
}
