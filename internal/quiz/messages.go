package quiz

// User-facing submission messages.
const (
	MessagePassed          = "Congratulations! You passed the quiz."
	MessageFailed          = "You need 7/10 to pass. Try again!"
	MessageAlreadyMastered = "You have already mastered this topic!"
	MessageCheating        = "Quiz terminated due to suspicious activity"
)

// ResultFor builds the Result for a scored outcome.
func ResultFor(out Outcome) Result {
	msg := MessageFailed
	if out.Passed {
		msg = MessagePassed
	}
	return Result{Score: out.Correct, Passed: out.Passed, Message: msg}
}
