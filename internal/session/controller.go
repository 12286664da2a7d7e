// Package session drives the quiz lifecycle for one (user, topic) pair:
// generate or resume, submit and score, clean up, and evaluate.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/quizmastery/internal/logger"
	"github.com/abhisek/quizmastery/internal/questions"
	"github.com/abhisek/quizmastery/internal/quiz"
	"github.com/abhisek/quizmastery/internal/store"
)

// createAttempts bounds the create/reload loop when a concurrent request
// wins the insert and then disappears before we can read it.
const createAttempts = 3

// Config wires a Controller to its collaborators.
type Config struct {
	Source   questions.Source
	Sessions store.SessionStore
	Mastery  store.MasteryLedger
	History  store.HistoryArchive
	Log      *logger.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Controller runs the quiz state machine NoSession → Active → Completed →
// purged. It holds no state of its own; everything lives in the stores.
type Controller struct {
	source   questions.Source
	sessions store.SessionStore
	mastery  store.MasteryLedger
	history  store.HistoryArchive
	log      *logger.Logger
	now      func() time.Time
}

func New(cfg Config) *Controller {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Log == nil {
		cfg.Log = logger.Nop()
	}
	return &Controller{
		source:   cfg.Source,
		sessions: cfg.Sessions,
		mastery:  cfg.Mastery,
		history:  cfg.History,
		log:      cfg.Log.With("component", "session"),
		now:      cfg.Now,
	}
}

func newKey(user, topic string) (quiz.Key, error) {
	key := quiz.Key{User: strings.TrimSpace(user), Topic: strings.TrimSpace(topic)}
	if key.User == "" || key.Topic == "" {
		return quiz.Key{}, quiz.ErrInvalidKey
	}
	return key, nil
}

// GenerateOrResume returns the questions of the user's live attempt on
// topic, creating one if none exists. A mastered topic is rejected with
// quiz.ErrAlreadyMastered.
func (c *Controller) GenerateOrResume(ctx context.Context, user, topic string) ([]quiz.Question, error) {
	key, err := newKey(user, topic)
	if err != nil {
		return nil, err
	}

	mastered, err := c.mastery.HasMastery(ctx, key)
	if err != nil {
		return nil, err
	}
	if mastered {
		return nil, quiz.ErrAlreadyMastered
	}

	active, err := c.sessions.Active(ctx, key)
	if err != nil {
		return nil, err
	}
	if active != nil {
		c.log.Debug("resuming quiz session", "user", key.User, "topic", key.Topic, "session_id", active.ID)
		return active.Questions, nil
	}

	qs, err := c.source.Fetch(ctx, key.Topic)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}

	for range createAttempts {
		s := quiz.NewSession(key, qs, c.now())
		err := c.sessions.CreateActive(ctx, s)
		if err == nil {
			c.log.Info("quiz session created", "user", key.User, "topic", key.Topic, "session_id", s.ID)
			return s.Questions, nil
		}
		if !errors.Is(err, store.ErrActiveExists) {
			return nil, err
		}

		// Another request created the session first; serve its questions.
		winner, err := c.sessions.Active(ctx, key)
		if err != nil {
			return nil, err
		}
		if winner != nil {
			return winner.Questions, nil
		}
	}
	return nil, quiz.Persistence("create session", fmt.Errorf("active session for %q kept changing", key.Topic))
}

// Submit scores answers against the live attempt and archives the result.
func (c *Controller) Submit(ctx context.Context, user, topic string, answers []quiz.Answer, cheating bool) (quiz.Result, error) {
	key, err := newKey(user, topic)
	if err != nil {
		return quiz.Result{}, err
	}

	if cheating {
		if err := c.sessions.DeleteActive(ctx, key); err != nil {
			return quiz.Result{}, err
		}
		c.log.Warn("quiz terminated for suspicious activity", "user", key.User, "topic", key.Topic)
		return quiz.Result{Score: 0, Passed: false, Message: quiz.MessageCheating}, nil
	}

	mastered, err := c.mastery.HasMastery(ctx, key)
	if err != nil {
		return quiz.Result{}, err
	}
	if mastered {
		if err := c.sessions.DeleteActive(ctx, key); err != nil {
			return quiz.Result{}, err
		}
		return quiz.Result{Score: quiz.QuestionCount, Passed: true, Message: quiz.MessageAlreadyMastered}, nil
	}

	s, err := c.sessions.Active(ctx, key)
	if err != nil {
		return quiz.Result{}, err
	}
	if s == nil {
		return quiz.Result{}, quiz.ErrNoActiveSession
	}

	out := quiz.Score(s.Questions, answers)
	if err := s.Complete(answers, out); err != nil {
		return quiz.Result{}, err
	}
	if err := c.sessions.MarkCompleted(ctx, s); err != nil {
		return quiz.Result{}, err
	}

	now := c.now()
	if err := c.history.AppendRecord(ctx, s.Record(now)); err != nil {
		return quiz.Result{}, err
	}
	if err := c.sessions.Purge(ctx, key, s.ID); err != nil {
		return quiz.Result{}, err
	}
	if out.Passed {
		if err := c.mastery.AddMastery(ctx, key, now); err != nil {
			return quiz.Result{}, err
		}
	}

	c.log.Info("quiz submitted",
		"user", key.User,
		"topic", key.Topic,
		"session_id", s.ID,
		"score", out.Correct,
		"passed", out.Passed)
	return quiz.ResultFor(out), nil
}

// Cleanup abandons the live attempt, if any. Completed results and history
// are untouched.
func (c *Controller) Cleanup(ctx context.Context, user, topic string) error {
	key, err := newKey(user, topic)
	if err != nil {
		return err
	}
	return c.sessions.DeleteActive(ctx, key)
}

// EvaluateLatest returns the most recent completed attempt, whether it is
// still held as a live session or only in the archive.
func (c *Controller) EvaluateLatest(ctx context.Context, user, topic string) (quiz.Evaluation, error) {
	key, err := newKey(user, topic)
	if err != nil {
		return quiz.Evaluation{}, err
	}

	live, err := c.sessions.LatestCompleted(ctx, key)
	if err != nil {
		return quiz.Evaluation{}, err
	}
	rec, err := c.history.LatestRecord(ctx, key)
	if err != nil {
		return quiz.Evaluation{}, err
	}

	switch {
	case live == nil && rec == nil:
		return quiz.Evaluation{}, quiz.ErrNotFound
	case rec == nil:
		return quiz.EvaluationFromSession(live), nil
	case live == nil:
		return quiz.EvaluationFromRecord(rec), nil
	case rec.SessionID != live.ID && rec.CreatedAt.After(live.CreatedAt):
		// The live session is left over from an older attempt whose purge
		// failed; a later attempt has been archived since.
		return quiz.EvaluationFromRecord(rec), nil
	default:
		return quiz.EvaluationFromSession(live), nil
	}
}

// Mastered lists the topics user has mastered.
func (c *Controller) Mastered(ctx context.Context, user string) ([]quiz.MasteryEntry, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, quiz.ErrInvalidKey
	}
	return c.mastery.Mastered(ctx, user)
}

// History lists archived attempts on topic, newest first.
func (c *Controller) History(ctx context.Context, user, topic string, limit int) ([]*quiz.Record, error) {
	key, err := newKey(user, topic)
	if err != nil {
		return nil, err
	}
	return c.history.Records(ctx, key, limit)
}
