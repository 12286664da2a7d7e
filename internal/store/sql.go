package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite, pure Go

	"github.com/abhisek/quizmastery/internal/quiz"
)

// SQLStore implements all three stores over database/sql. The same queries
// serve SQLite and Postgres.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// sqlitePragmas are applied on every pooled connection through the DSN.
var sqlitePragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"foreign_keys(1)",
	"synchronous(NORMAL)",
}

// OpenSQL connects to driver (sqlite or postgres) and creates the schema.
func OpenSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	var drvName, schema string
	switch driver {
	case DriverSQLite:
		drvName, schema = "sqlite", schemaSQLite
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
		if dsn == "" {
			return nil, fmt.Errorf("postgres driver requires a DSN")
		}
		drvName, schema = "pgx", schemaPostgres
	default:
		return nil, fmt.Errorf("unsupported SQL driver: %q", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite has a single writer; all access goes through one connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLStore{db: db, driver: driver}, nil
}

// sqliteDSN turns a file path into a modernc DSN carrying sqlitePragmas.
// DSNs that already set pragmas are left alone.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	params := make([]string, len(sqlitePragmas))
	for i, p := range sqlitePragmas {
		params[i] = "_pragma=" + p
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}

// DB returns the underlying *sql.DB for raw queries.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

const sessionColumns = `id, user_id, topic, questions_json, answers_json, score, passed, completed, created_at`

func (s *SQLStore) CreateActive(ctx context.Context, sess *quiz.Session) error {
	qj, err := json.Marshal(sess.Questions)
	if err != nil {
		return quiz.Persistence("create session", err)
	}
	aj, err := json.Marshal(sess.Answers)
	if err != nil {
		return quiz.Persistence("create session", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO quiz_sessions (id, user_id, topic, questions_json, answers_json, completed, created_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
		ON CONFLICT DO NOTHING`,
		sess.ID, sess.Key.User, sess.Key.Topic, string(qj), string(aj), sess.CreatedAt.UnixNano())
	if err != nil {
		return quiz.Persistence("create session", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return quiz.Persistence("create session", err)
	}
	if n == 0 {
		return ErrActiveExists
	}
	return nil
}

func (s *SQLStore) Active(ctx context.Context, key quiz.Key) (*quiz.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM quiz_sessions
		WHERE user_id = $1 AND topic = $2 AND completed = 0`, key.User, key.Topic)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, quiz.Persistence("load active session", err)
	}
	return sess, nil
}

func (s *SQLStore) DeleteActive(ctx context.Context, key quiz.Key) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM quiz_sessions
		WHERE user_id = $1 AND topic = $2 AND completed = 0`, key.User, key.Topic)
	return quiz.Persistence("delete active session", err)
}

func (s *SQLStore) MarkCompleted(ctx context.Context, sess *quiz.Session) error {
	if sess.Score == nil || sess.Passed == nil {
		return fmt.Errorf("mark completed: session %s has no outcome", sess.ID)
	}
	aj, err := json.Marshal(sess.Answers)
	if err != nil {
		return quiz.Persistence("complete session", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE quiz_sessions SET answers_json = $1, score = $2, passed = $3, completed = 1
		WHERE id = $4 AND completed = 0`,
		string(aj), *sess.Score, boolInt(*sess.Passed), sess.ID)
	if err != nil {
		return quiz.Persistence("complete session", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return quiz.Persistence("complete session", err)
	}
	if n == 0 {
		return quiz.ErrNoActiveSession
	}
	return nil
}

func (s *SQLStore) Purge(ctx context.Context, key quiz.Key, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM quiz_sessions
		WHERE id = $1 AND user_id = $2 AND topic = $3`, id, key.User, key.Topic)
	return quiz.Persistence("purge session", err)
}

func (s *SQLStore) LatestCompleted(ctx context.Context, key quiz.Key) (*quiz.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM quiz_sessions
		WHERE user_id = $1 AND topic = $2 AND completed = 1
		ORDER BY created_at DESC, seq DESC LIMIT 1`, key.User, key.Topic)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, quiz.Persistence("load completed session", err)
	}
	return sess, nil
}

func scanSession(row scanner) (*quiz.Session, error) {
	var (
		sess      quiz.Session
		qj, aj    string
		score     sql.NullInt64
		passed    sql.NullInt64
		completed int
		created   int64
	)
	if err := row.Scan(&sess.ID, &sess.Key.User, &sess.Key.Topic, &qj, &aj, &score, &passed, &completed, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(qj), &sess.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if err := json.Unmarshal([]byte(aj), &sess.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if score.Valid {
		v := int(score.Int64)
		sess.Score = &v
	}
	if passed.Valid {
		v := passed.Int64 == 1
		sess.Passed = &v
	}
	sess.Completed = completed == 1
	sess.CreatedAt = time.Unix(0, created).UTC()
	return &sess, nil
}

func (s *SQLStore) HasMastery(ctx context.Context, key quiz.Key) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM mastery WHERE user_id = $1 AND topic = $2`,
		key.User, key.Topic).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, quiz.Persistence("check mastery", err)
	}
	return true, nil
}

func (s *SQLStore) AddMastery(ctx context.Context, key quiz.Key, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO mastery (user_id, topic, mastered_at)
		VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`, key.User, key.Topic, at.UnixNano())
	return quiz.Persistence("add mastery", err)
}

func (s *SQLStore) Mastered(ctx context.Context, user string) ([]quiz.MasteryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT topic, mastered_at FROM mastery
		WHERE user_id = $1 ORDER BY mastered_at, topic`, user)
	if err != nil {
		return nil, quiz.Persistence("list mastery", err)
	}
	defer rows.Close()

	out := []quiz.MasteryEntry{}
	for rows.Next() {
		var (
			e  quiz.MasteryEntry
			at int64
		)
		if err := rows.Scan(&e.Topic, &at); err != nil {
			return nil, quiz.Persistence("list mastery", err)
		}
		e.MasteredAt = time.Unix(0, at).UTC()
		out = append(out, e)
	}
	return out, quiz.Persistence("list mastery", rows.Err())
}

func (s *SQLStore) AppendRecord(ctx context.Context, r *quiz.Record) error {
	qj, err := json.Marshal(r.Questions)
	if err != nil {
		return quiz.Persistence("append record", err)
	}
	aj, err := json.Marshal(r.Answers)
	if err != nil {
		return quiz.Persistence("append record", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assessment_records (id, session_id, user_id, topic, questions_json, answers_json, score, passed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT DO NOTHING`,
		r.ID, r.SessionID, r.Key.User, r.Key.Topic, string(qj), string(aj), r.Score, boolInt(r.Passed), r.CreatedAt.UnixNano())
	return quiz.Persistence("append record", err)
}

func (s *SQLStore) LatestRecord(ctx context.Context, key quiz.Key) (*quiz.Record, error) {
	rs, err := s.Records(ctx, key, 1)
	if err != nil || len(rs) == 0 {
		return nil, err
	}
	return rs[0], nil
}

func (s *SQLStore) Records(ctx context.Context, key quiz.Key, limit int) ([]*quiz.Record, error) {
	q := `SELECT id, session_id, user_id, topic, questions_json, answers_json, score, passed, created_at
		FROM assessment_records WHERE user_id = $1 AND topic = $2
		ORDER BY created_at DESC, seq DESC`
	if limit > 0 {
		q += " LIMIT " + strconv.Itoa(limit)
	}

	rows, err := s.db.QueryContext(ctx, q, key.User, key.Topic)
	if err != nil {
		return nil, quiz.Persistence("list records", err)
	}
	defer rows.Close()

	var out []*quiz.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, quiz.Persistence("list records", err)
		}
		out = append(out, r)
	}
	return out, quiz.Persistence("list records", rows.Err())
}

func scanRecord(row scanner) (*quiz.Record, error) {
	var (
		r       quiz.Record
		qj, aj  string
		passed  int
		created int64
	)
	if err := row.Scan(&r.ID, &r.SessionID, &r.Key.User, &r.Key.Topic, &qj, &aj, &r.Score, &passed, &created); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(qj), &r.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if err := json.Unmarshal([]byte(aj), &r.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	r.Passed = passed == 1
	r.CreatedAt = time.Unix(0, created).UTC()
	return &r, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
