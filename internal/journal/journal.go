package journal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one attendance verification outcome as seen at the desk.
type Entry struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Kind      string    `json:"kind"`
	Status    string    `json:"status,omitempty"`
	Message   string    `json:"message,omitempty"`
	ScannedBy string    `json:"scannedBy,omitempty"`
	Members   int       `json:"members"`
	At        time.Time `json:"at"`
}

// Query selects entries, newest first.
type Query struct {
	Kind   string
	Token  string
	Limit  int
	Offset int
}

func (q Query) normalized() Query {
	if q.Limit <= 0 {
		q.Limit = 50
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// Journal stores verification outcomes.
type Journal interface {
	Record(ctx context.Context, e Entry) (Entry, error)
	Recent(ctx context.Context, q Query) ([]Entry, error)
}

func prepare(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	return e
}

// Memory keeps the last capacity entries in process.
type Memory struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int
}

// NewMemory creates a journal bounded to capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 500
	}
	return &Memory{capacity: capacity}
}

func (m *Memory) Record(ctx context.Context, e Entry) (Entry, error) {
	e = prepare(e)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	if over := len(m.entries) - m.capacity; over > 0 {
		m.entries = append([]Entry(nil), m.entries[over:]...)
	}
	return e, nil
}

func (m *Memory) Recent(ctx context.Context, q Query) ([]Entry, error) {
	q = q.normalized()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Entry{}
	skipped := 0
	for i := len(m.entries) - 1; i >= 0 && len(out) < q.Limit; i-- {
		e := m.entries[i]
		if q.Kind != "" && e.Kind != q.Kind {
			continue
		}
		if q.Token != "" && e.Token != q.Token {
			continue
		}
		if skipped < q.Offset {
			skipped++
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
