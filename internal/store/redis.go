package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/abhisek/quizmastery/internal/quiz"
)

// RedisOptions configures the Redis session store.
type RedisOptions struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// TTL bounds how long an untouched session lives. An expired session
	// behaves as if it had been cleaned up.
	TTL time.Duration `yaml:"ttl"`

	// Prefix is prepended to every key. Default: "quiz".
	Prefix string `yaml:"prefix"`
}

// DefaultSessionTTL is used when RedisOptions.TTL is zero.
const DefaultSessionTTL = 24 * time.Hour

// RedisSessions is a SessionStore in Redis. The active session for a key
// lives at {prefix}:active:{digest}, written with SET NX so creation
// is an atomic insert-if-absent. The newest completed session that has not
// been purged lives at {prefix}:completed:{digest}, where digest is
// keyDigest of the (user, topic) pair.
type RedisSessions struct {
	rdb    *goredis.Client
	ttl    time.Duration
	prefix string
}

// sessionDoc is the stored JSON form of a quiz.Session.
type sessionDoc struct {
	ID        string          `json:"id"`
	User      string          `json:"user"`
	Topic     string          `json:"topic"`
	Questions []quiz.Question `json:"questions"`
	Answers   []quiz.Answer   `json:"answers"`
	Score     *int            `json:"score"`
	Passed    *bool           `json:"passed"`
	Completed bool            `json:"completed"`
	CreatedAt time.Time       `json:"createdAt"`
}

func toDoc(s *quiz.Session) sessionDoc {
	return sessionDoc{
		ID:        s.ID,
		User:      s.Key.User,
		Topic:     s.Key.Topic,
		Questions: s.Questions,
		Answers:   s.Answers,
		Score:     s.Score,
		Passed:    s.Passed,
		Completed: s.Completed,
		CreatedAt: s.CreatedAt,
	}
}

func (d sessionDoc) session() *quiz.Session {
	return &quiz.Session{
		ID:        d.ID,
		Key:       quiz.Key{User: d.User, Topic: d.Topic},
		Questions: d.Questions,
		Answers:   d.Answers,
		Score:     d.Score,
		Passed:    d.Passed,
		Completed: d.Completed,
		CreatedAt: d.CreatedAt,
	}
}

// completeScript moves the active session to the completed slot if it is
// still the session the caller scored.
var completeScript = goredis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if not cur then return 0 end
if cjson.decode(cur).id ~= ARGV[1] then return 0 end
redis.call('DEL', KEYS[1])
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

// purgeScript deletes whichever slot holds session ARGV[1].
var purgeScript = goredis.NewScript(`
local n = 0
for _, k in ipairs(KEYS) do
  local cur = redis.call('GET', k)
  if cur and cjson.decode(cur).id == ARGV[1] then
    n = n + redis.call('DEL', k)
  end
end
return n
`)

// NewRedisSessions connects to Redis and verifies the connection.
func NewRedisSessions(ctx context.Context, opts RedisOptions) (*RedisSessions, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis session store requires an address")
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultSessionTTL
	}
	if opts.Prefix == "" {
		opts.Prefix = "quiz"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisSessions{rdb: rdb, ttl: opts.TTL, prefix: opts.Prefix}, nil
}

func (r *RedisSessions) Close() error {
	return r.rdb.Close()
}

func (r *RedisSessions) activeKey(k quiz.Key) string {
	return r.prefix + ":active:" + keyDigest(k)
}

func (r *RedisSessions) completedKey(k quiz.Key) string {
	return r.prefix + ":completed:" + keyDigest(k)
}

// keyDigest hashes the length-prefixed user followed by the topic, so no
// choice of separator characters in either part can make two keys meet.
func keyDigest(k quiz.Key) string {
	h := sha256.New()
	h.Write([]byte(strconv.Itoa(len(k.User))))
	h.Write([]byte{':'})
	h.Write([]byte(k.User))
	h.Write([]byte(k.Topic))
	return hex.EncodeToString(h.Sum(nil))
}

func (r *RedisSessions) CreateActive(ctx context.Context, s *quiz.Session) error {
	raw, err := json.Marshal(toDoc(s))
	if err != nil {
		return quiz.Persistence("create session", err)
	}
	ok, err := r.rdb.SetNX(ctx, r.activeKey(s.Key), raw, r.ttl).Result()
	if err != nil {
		return quiz.Persistence("create session", err)
	}
	if !ok {
		return ErrActiveExists
	}
	return nil
}

func (r *RedisSessions) Active(ctx context.Context, key quiz.Key) (*quiz.Session, error) {
	return r.load(ctx, r.activeKey(key), "load active session")
}

func (r *RedisSessions) LatestCompleted(ctx context.Context, key quiz.Key) (*quiz.Session, error) {
	return r.load(ctx, r.completedKey(key), "load completed session")
}

func (r *RedisSessions) load(ctx context.Context, key, op string) (*quiz.Session, error) {
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, quiz.Persistence(op, err)
	}
	var doc sessionDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, quiz.Persistence(op, fmt.Errorf("decode session: %w", err))
	}
	return doc.session(), nil
}

func (r *RedisSessions) DeleteActive(ctx context.Context, key quiz.Key) error {
	return quiz.Persistence("delete active session", r.rdb.Del(ctx, r.activeKey(key)).Err())
}

func (r *RedisSessions) MarkCompleted(ctx context.Context, s *quiz.Session) error {
	raw, err := json.Marshal(toDoc(s))
	if err != nil {
		return quiz.Persistence("complete session", err)
	}
	keys := []string{r.activeKey(s.Key), r.completedKey(s.Key)}
	n, err := completeScript.Run(ctx, r.rdb, keys, s.ID, raw, r.ttl.Milliseconds()).Int()
	if err != nil {
		return quiz.Persistence("complete session", err)
	}
	if n == 0 {
		return quiz.ErrNoActiveSession
	}
	return nil
}

func (r *RedisSessions) Purge(ctx context.Context, key quiz.Key, id string) error {
	keys := []string{r.activeKey(key), r.completedKey(key)}
	return quiz.Persistence("purge session", purgeScript.Run(ctx, r.rdb, keys, id).Err())
}
