package questions

import (
	"context"
	"time"

	"github.com/abhisek/quizmastery/internal/logger"
	"github.com/abhisek/quizmastery/internal/quiz"
)

// DefaultTimeout bounds one LLM fetch.
const DefaultTimeout = 20 * time.Second

// Service serves quizzes from primary and falls back to FallbackBank on any
// failure. Fetch never returns an error.
type Service struct {
	primary Source
	timeout time.Duration
	log     *logger.Logger
}

// NewService wraps primary, which may be nil when no provider is configured.
func NewService(primary Source, timeout time.Duration, log *logger.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{primary: primary, timeout: timeout, log: log.With("component", "questions")}
}

func (s *Service) Fetch(ctx context.Context, topic string) ([]quiz.Question, error) {
	if s.primary == nil {
		return FallbackBank(topic), nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	qs, err := s.primary.Fetch(fetchCtx, topic)
	if err != nil {
		s.log.Warn("question generation failed, serving fallback bank",
			"topic", topic,
			"error", err)
		return FallbackBank(topic), nil
	}
	return qs, nil
}
