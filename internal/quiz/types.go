package quiz

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	// QuestionCount is the canonical number of questions in a quiz.
	QuestionCount = 10

	// OptionCount is the number of options every question carries.
	OptionCount = 4
)

// Question is a single multiple-choice question. Immutable once generated.
type Question struct {
	// Text is the question prompt shown to the user.
	Text string `json:"question"`

	// Options holds exactly OptionCount choices in display order.
	Options []string `json:"options"`

	// CorrectIndex is the zero-based index into Options of the right answer.
	CorrectIndex int `json:"correct"`

	// Explanation is an optional short rationale supplied by the provider.
	// It is never used for scoring.
	Explanation string `json:"explanation,omitempty"`
}

// Key identifies a quiz owner: one user working on one topic.
type Key struct {
	User  string
	Topic string
}

// Answer is a submitted option index that may be unset.
type Answer struct {
	Index int
	Set   bool
}

// Choice returns a set answer for option i.
func Choice(i int) Answer { return Answer{Index: i, Set: true} }

// Unset is the answer value for a question the user skipped.
var Unset = Answer{}

// Choices builds a fully-answered slice from plain indexes.
func Choices(idx ...int) []Answer {
	out := make([]Answer, len(idx))
	for i, v := range idx {
		out[i] = Choice(v)
	}
	return out
}

// MarshalJSON encodes an unset answer as null.
func (a Answer) MarshalJSON() ([]byte, error) {
	if !a.Set {
		return []byte("null"), nil
	}
	return json.Marshal(a.Index)
}

// UnmarshalJSON accepts an integer or null.
func (a *Answer) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*a = Unset
		return nil
	}
	var i int
	if err := json.Unmarshal(b, &i); err != nil {
		return err
	}
	*a = Choice(i)
	return nil
}

// Session is one quiz attempt. While Completed is false it is the single
// active attempt for its Key.
type Session struct {
	ID        string
	Key       Key
	Questions []Question
	Answers   []Answer
	Score     *int
	Passed    *bool
	Completed bool
	CreatedAt time.Time
}

// NewSession creates an active session holding questions.
func NewSession(key Key, questions []Question, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Key:       key,
		Questions: cloneQuestions(questions),
		Answers:   []Answer{},
		CreatedAt: now,
	}
}

// Complete records the submitted answers and outcome and moves the session
// to its terminal state. Answers beyond the question count are dropped.
func (s *Session) Complete(answers []Answer, out Outcome) error {
	if s.Completed {
		return ErrSessionCompleted
	}
	if len(answers) > len(s.Questions) {
		answers = answers[:len(s.Questions)]
	}
	s.Answers = append([]Answer(nil), answers...)
	score, passed := out.Correct, out.Passed
	s.Score = &score
	s.Passed = &passed
	s.Completed = true
	return nil
}

// Record snapshots a completed session into an archive entry.
func (s *Session) Record(now time.Time) *Record {
	r := &Record{
		ID:        uuid.NewString(),
		SessionID: s.ID,
		Key:       s.Key,
		Questions: cloneQuestions(s.Questions),
		Answers:   append([]Answer(nil), s.Answers...),
		CreatedAt: now,
	}
	if s.Score != nil {
		r.Score = *s.Score
	}
	if s.Passed != nil {
		r.Passed = *s.Passed
	}
	return r
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	c := *s
	c.Questions = cloneQuestions(s.Questions)
	c.Answers = append([]Answer(nil), s.Answers...)
	if s.Score != nil {
		v := *s.Score
		c.Score = &v
	}
	if s.Passed != nil {
		v := *s.Passed
		c.Passed = &v
	}
	return &c
}

// Record is an immutable history entry for one completed submission.
type Record struct {
	ID        string
	SessionID string
	Key       Key
	Questions []Question
	Answers   []Answer
	Score     int
	Passed    bool
	CreatedAt time.Time
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	c := *r
	c.Questions = cloneQuestions(r.Questions)
	c.Answers = append([]Answer(nil), r.Answers...)
	return &c
}

// Result is what a submission reports back to the user.
type Result struct {
	Score   int    `json:"score"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// Evaluation is the review view of the latest completed attempt.
type Evaluation struct {
	Questions []Question `json:"questions"`
	Answers   []Answer   `json:"userAnswers"`
	Score     int        `json:"score"`
	Passed    bool       `json:"passed"`
	CreatedAt time.Time  `json:"createdAt"`
}

// EvaluationFromSession builds an Evaluation from a completed session.
func EvaluationFromSession(s *Session) Evaluation {
	ev := Evaluation{
		Questions: cloneQuestions(s.Questions),
		Answers:   append([]Answer(nil), s.Answers...),
		CreatedAt: s.CreatedAt,
	}
	if s.Score != nil {
		ev.Score = *s.Score
	}
	if s.Passed != nil {
		ev.Passed = *s.Passed
	}
	return ev
}

// EvaluationFromRecord builds an Evaluation from an archive entry.
func EvaluationFromRecord(r *Record) Evaluation {
	return Evaluation{
		Questions: cloneQuestions(r.Questions),
		Answers:   append([]Answer(nil), r.Answers...),
		Score:     r.Score,
		Passed:    r.Passed,
		CreatedAt: r.CreatedAt,
	}
}

// MasteryEntry is one mastered topic for a user.
type MasteryEntry struct {
	Topic      string    `json:"topic"`
	MasteredAt time.Time `json:"masteredAt"`
}

func cloneQuestions(qs []Question) []Question {
	out := make([]Question, len(qs))
	for i, q := range qs {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}
