package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/abhisek/quizmastery/internal/quiz"
)

// Memory implements all three stores in process. Values are copied in and
// out so callers never share state with the store.
type Memory struct {
	mu sync.Mutex

	seq      int64
	sessions map[string]*memSession
	active   map[quiz.Key]string
	mastery  map[quiz.Key]time.Time
	records  []memRecord
	recorded map[string]bool // by session id
}

type memSession struct {
	s   *quiz.Session
	seq int64
}

type memRecord struct {
	r   *quiz.Record
	seq int64
}

func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]*memSession),
		active:   make(map[quiz.Key]string),
		mastery:  make(map[quiz.Key]time.Time),
		recorded: make(map[string]bool),
	}
}

func (m *Memory) CreateActive(_ context.Context, s *quiz.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.active[s.Key]; ok {
		return ErrActiveExists
	}
	m.seq++
	m.sessions[s.ID] = &memSession{s: s.Clone(), seq: m.seq}
	m.active[s.Key] = s.ID
	return nil
}

func (m *Memory) Active(_ context.Context, key quiz.Key) (*quiz.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.active[key]
	if !ok {
		return nil, nil
	}
	return m.sessions[id].s.Clone(), nil
}

func (m *Memory) DeleteActive(_ context.Context, key quiz.Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.active[key]; ok {
		delete(m.sessions, id)
		delete(m.active, key)
	}
	return nil
}

func (m *Memory) MarkCompleted(_ context.Context, s *quiz.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active[s.Key] != s.ID {
		return quiz.ErrNoActiveSession
	}
	m.sessions[s.ID].s = s.Clone()
	delete(m.active, s.Key)
	return nil
}

func (m *Memory) Purge(_ context.Context, key quiz.Key, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ms, ok := m.sessions[id]; ok && ms.s.Key == key {
		delete(m.sessions, id)
		if m.active[key] == id {
			delete(m.active, key)
		}
	}
	return nil
}

func (m *Memory) LatestCompleted(_ context.Context, key quiz.Key) (*quiz.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var best *memSession
	for _, ms := range m.sessions {
		if ms.s.Key != key || !ms.s.Completed {
			continue
		}
		if best == nil || newer(ms.s.CreatedAt, ms.seq, best.s.CreatedAt, best.seq) {
			best = ms
		}
	}
	if best == nil {
		return nil, nil
	}
	return best.s.Clone(), nil
}

func (m *Memory) HasMastery(_ context.Context, key quiz.Key) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.mastery[key]
	return ok, nil
}

func (m *Memory) AddMastery(_ context.Context, key quiz.Key, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.mastery[key]; !ok {
		m.mastery[key] = at
	}
	return nil
}

func (m *Memory) Mastered(_ context.Context, user string) ([]quiz.MasteryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []quiz.MasteryEntry{}
	for k, at := range m.mastery {
		if k.User == user {
			out = append(out, quiz.MasteryEntry{Topic: k.Topic, MasteredAt: at})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].MasteredAt.Equal(out[j].MasteredAt) {
			return out[i].MasteredAt.Before(out[j].MasteredAt)
		}
		return out[i].Topic < out[j].Topic
	})
	return out, nil
}

func (m *Memory) AppendRecord(_ context.Context, r *quiz.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.recorded[r.SessionID] {
		return nil
	}
	m.seq++
	m.records = append(m.records, memRecord{r: r.Clone(), seq: m.seq})
	m.recorded[r.SessionID] = true
	return nil
}

func (m *Memory) LatestRecord(ctx context.Context, key quiz.Key) (*quiz.Record, error) {
	rs, err := m.Records(ctx, key, 1)
	if err != nil || len(rs) == 0 {
		return nil, err
	}
	return rs[0], nil
}

func (m *Memory) Records(_ context.Context, key quiz.Key, limit int) ([]*quiz.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []memRecord
	for _, mr := range m.records {
		if mr.r.Key == key {
			matched = append(matched, mr)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return newer(matched[i].r.CreatedAt, matched[i].seq, matched[j].r.CreatedAt, matched[j].seq)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*quiz.Record, len(matched))
	for i, mr := range matched {
		out[i] = mr.r.Clone()
	}
	return out, nil
}

// newer orders by creation time, then by insertion sequence.
func newer(at time.Time, seq int64, thanAt time.Time, thanSeq int64) bool {
	if !at.Equal(thanAt) {
		return at.After(thanAt)
	}
	return seq > thanSeq
}
