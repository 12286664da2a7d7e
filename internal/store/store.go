// Package store persists live quiz sessions, the mastery ledger and the
// assessment history.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/abhisek/quizmastery/internal/logger"
	"github.com/abhisek/quizmastery/internal/quiz"
)

// ErrActiveExists is returned by CreateActive when the key already has an
// incomplete session.
var ErrActiveExists = errors.New("active session already exists")

// SessionStore holds live sessions. At most one incomplete session exists
// per key; CreateActive is the only way to add one.
type SessionStore interface {
	// CreateActive inserts s if its key has no incomplete session, and
	// returns ErrActiveExists otherwise.
	CreateActive(ctx context.Context, s *quiz.Session) error

	// Active returns the incomplete session for key, or nil if none.
	Active(ctx context.Context, key quiz.Key) (*quiz.Session, error)

	// DeleteActive removes the incomplete session for key. Completed
	// sessions are never touched. Deleting nothing is not an error.
	DeleteActive(ctx context.Context, key quiz.Key) error

	// MarkCompleted stores the completed state of s. It fails with
	// quiz.ErrNoActiveSession if s is no longer the active session.
	MarkCompleted(ctx context.Context, s *quiz.Session) error

	// Purge deletes the session id under key whatever its state.
	Purge(ctx context.Context, key quiz.Key, id string) error

	// LatestCompleted returns the newest completed session still held
	// live for key, or nil if none.
	LatestCompleted(ctx context.Context, key quiz.Key) (*quiz.Session, error)
}

// MasteryLedger is the monotonic set of mastered topics per user.
type MasteryLedger interface {
	HasMastery(ctx context.Context, key quiz.Key) (bool, error)

	// AddMastery records key as mastered at at. Adding an existing entry
	// keeps the original timestamp.
	AddMastery(ctx context.Context, key quiz.Key, at time.Time) error

	// Mastered lists the user's mastered topics, oldest first.
	Mastered(ctx context.Context, user string) ([]quiz.MasteryEntry, error)
}

// HistoryArchive is the append-only log of completed attempts.
type HistoryArchive interface {
	// AppendRecord adds r. A second record with the same SessionID is
	// ignored.
	AppendRecord(ctx context.Context, r *quiz.Record) error

	// LatestRecord returns the newest record for key, or nil if none.
	LatestRecord(ctx context.Context, key quiz.Key) (*quiz.Record, error)

	// Records lists up to limit records for key, newest first. A limit of
	// zero or less means no limit.
	Records(ctx context.Context, key quiz.Key, limit int) ([]*quiz.Record, error)
}

// Driver names accepted in Options.Driver.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures the storage backends.
type Options struct {
	// Driver is memory, sqlite or postgres.
	Driver string `yaml:"driver"`

	// DSN is the SQLite path or Postgres URL. Empty with sqlite means
	// DefaultDBPath.
	DSN string `yaml:"dsn"`

	// Sessions selects where live sessions go: "" keeps them with the
	// driver, "redis" moves them to Redis.
	Sessions string `yaml:"sessions"`

	Redis RedisOptions `yaml:"redis"`
}

// Backend bundles the three stores a controller needs.
type Backend struct {
	Sessions SessionStore
	Mastery  MasteryLedger
	History  HistoryArchive

	closers []func() error
}

// Close releases every connection the backend opened.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// Open builds the Backend described by opts.
func Open(ctx context.Context, opts Options, log *logger.Logger) (*Backend, error) {
	if log == nil {
		log = logger.Nop()
	}

	b := &Backend{}
	switch opts.Driver {
	case DriverMemory, "":
		m := NewMemory()
		b.Sessions, b.Mastery, b.History = m, m, m
	case DriverSQLite, DriverPostgres:
		dsn := opts.DSN
		if opts.Driver == DriverSQLite && dsn == "" {
			p, err := DefaultDBPath()
			if err != nil {
				return nil, err
			}
			dsn = p
		}
		s, err := OpenSQL(ctx, opts.Driver, dsn)
		if err != nil {
			return nil, err
		}
		b.Sessions, b.Mastery, b.History = s, s, s
		b.closers = append(b.closers, s.Close)
	default:
		return nil, fmt.Errorf("unsupported store driver: %q", opts.Driver)
	}

	switch opts.Sessions {
	case "":
	case "redis":
		r, err := NewRedisSessions(ctx, opts.Redis)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Sessions = r
		b.closers = append(b.closers, r.Close)
	default:
		b.Close()
		return nil, fmt.Errorf("unsupported session backend: %q", opts.Sessions)
	}

	log.Info("store opened",
		"driver", orDriver(opts.Driver),
		"sessions", orDriver(opts.Sessions))
	return b, nil
}

func orDriver(name string) string {
	if name == "" {
		return DriverMemory
	}
	return name
}

// DefaultDBPath resolves the database file path in priority order:
// 1. QUIZMASTERY_DB environment variable
// 2. $XDG_DATA_HOME/quizmastery/quizmastery.db
// 3. ~/.local/share/quizmastery/quizmastery.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("QUIZMASTERY_DB"); p != "" {
		return p, ensureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "quizmastery", "quizmastery.db")
	return p, ensureDir(p)
}

// ensureDir creates the parent directory of path if it doesn't exist.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}
