package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the kind of a toast.
type Level string

const (
	Success Level = "success"
	Error   Level = "error"
	Warning Level = "warning"
	Info    Level = "info"
)

// Title is the default heading for a toast of this level.
func (l Level) Title() string {
	switch l {
	case Success:
		return "Sucesso"
	case Error:
		return "Erro"
	case Warning:
		return "Atenção"
	}
	return "Informação"
}

// DefaultTTL is how long a toast stays visible.
const DefaultTTL = 5 * time.Second

// Toast is a transient notification.
type Toast struct {
	ID        string        `json:"id"`
	Level     Level         `json:"level"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
	TTL       time.Duration `json:"ttl"`
}

// Expired reports whether the toast should have been dismissed by now.
func (t Toast) Expired(now time.Time) bool {
	return t.TTL > 0 && !now.Before(t.CreatedAt.Add(t.TTL))
}

// TTLMillis is the remaining display time used by the browser.
func (t Toast) TTLMillis() int64 {
	return t.TTL.Milliseconds()
}

// Queue collects the toasts raised while serving one request or command.
// It is safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	toasts []Toast
	ttl    time.Duration
	now    func() time.Time
}

func NewQueue(ttl time.Duration) *Queue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Queue{ttl: ttl, now: time.Now}
}

// Push appends a toast with the level's default title and returns it.
func (q *Queue) Push(level Level, message string) Toast {
	t := Toast{
		ID:        uuid.New().String(),
		Level:     level,
		Title:     level.Title(),
		Message:   message,
		CreatedAt: q.now(),
		TTL:       q.ttl,
	}
	q.mu.Lock()
	q.toasts = append(q.toasts, t)
	q.mu.Unlock()
	return t
}

// Restore re-queues toasts carried over from an earlier request.
func (q *Queue) Restore(toasts []Toast) {
	q.mu.Lock()
	q.toasts = append(q.toasts, toasts...)
	q.mu.Unlock()
}

// Active returns the toasts not yet expired at now, dropping the rest.
func (q *Queue) Active(now time.Time) []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	kept := q.toasts[:0]
	for _, t := range q.toasts {
		if !t.Expired(now) {
			kept = append(kept, t)
		}
	}
	q.toasts = kept
	out := make([]Toast, len(kept))
	copy(out, kept)
	return out
}

// Dismiss removes a toast by id.
func (q *Queue) Dismiss(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, t := range q.toasts {
		if t.ID == id {
			q.toasts = append(q.toasts[:i], q.toasts[i+1:]...)
			return true
		}
	}
	return false
}

// Drain returns every queued toast and empties the queue.
func (q *Queue) Drain() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.toasts
	q.toasts = nil
	return out
}

// Len is the number of queued toasts.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.toasts)
}

type ctxKey struct{}

// WithQueue returns a context carrying q.
func WithQueue(ctx context.Context, q *Queue) context.Context {
	return context.WithValue(ctx, ctxKey{}, q)
}

// QueueFrom returns the queue carried by ctx, or nil.
func QueueFrom(ctx context.Context) *Queue {
	q, _ := ctx.Value(ctxKey{}).(*Queue)
	return q
}

// Push raises a toast on the queue carried by ctx. Without a queue it does nothing.
func Push(ctx context.Context, level Level, message string) {
	if q := QueueFrom(ctx); q != nil {
		q.Push(level, message)
	}
}
