// Package session keeps per-browser catalog state in memory.
package session

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"hqcatalog/internal/catalog"
	"hqcatalog/internal/logger"

	"github.com/google/uuid"
)

const (
	CookieName = "hq_session"
	DefaultTTL = 2 * time.Hour
	// MaxViews bounds the catalog pages remembered per browser.
	MaxViews = 16
)

// View is one rendered catalog page. Its Generation orders the live-search
// requests made from that page only, so tabs of the same browser do not
// supersede each other.
type View struct {
	ID         string
	Generation catalog.Generation
}

// State is what the server remembers about one browser between requests.
type State struct {
	ID string

	mu       sync.RWMutex
	snapshot []catalog.Entry
	page     int
	views    map[string]*View
	order    []string
	lastUsed time.Time
}

// NewView registers a freshly rendered catalog page.
func (s *State) NewView() *View {
	return s.View(uuid.NewString())
}

// View returns the page registered under id, registering it when unknown.
// The oldest pages are forgotten past MaxViews.
func (s *State) View(id string) *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.views[id]; ok {
		return v
	}
	if s.views == nil {
		s.views = make(map[string]*View)
	}
	v := &View{ID: id}
	s.views[id] = v
	s.order = append(s.order, id)
	if len(s.order) > MaxViews {
		delete(s.views, s.order[0])
		s.order = s.order[1:]
	}
	return v
}

// Page is the catalog page number last shown, 1 before any.
func (s *State) Page() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return max(s.page, 1)
}

func (s *State) SetPage(n int) {
	s.mu.Lock()
	s.page = n
	s.mu.Unlock()
}

// Snapshot returns the entries of the last applied load.
func (s *State) Snapshot() []catalog.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Apply stores entries as the latest load unless ticket was superseded
// within v.
func (s *State) Apply(v *View, ticket uint64, entries []catalog.Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !v.Generation.IsCurrent(ticket) {
		return false
	}
	s.snapshot = slices.Clone(entries)
	return true
}

// Replace updates one entry of the snapshot in place, if present.
func (s *State) Replace(e catalog.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.snapshot {
		if s.snapshot[i].ID == e.ID {
			s.snapshot[i] = e
			return
		}
	}
}

func (s *State) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *State) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsed
}

type Manager struct {
	mu     sync.Mutex
	states map[string]*State
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		states: make(map[string]*State),
		ttl:    ttl,
		secure: secure,
		now:    time.Now,
	}
}

// Load returns the state for the request's session cookie, creating a new
// session (and setting the cookie) when the cookie is missing or unknown.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) *State {
	if c, err := r.Cookie(CookieName); err == nil {
		if st, ok := m.Get(c.Value); ok {
			return st
		}
	}
	st := m.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    st.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return st
}

func (m *Manager) Create() *State {
	st := &State{ID: uuid.NewString(), lastUsed: m.now()}
	m.mu.Lock()
	m.states[st.ID] = st
	m.mu.Unlock()
	return st
}

// Get returns a live session and marks it used.
func (m *Manager) Get(id string) (*State, bool) {
	m.mu.Lock()
	st, ok := m.states[id]
	m.mu.Unlock()
	if !ok {
		return nil, false
	}
	now := m.now()
	if now.Sub(st.idleSince()) > m.ttl {
		m.Delete(id)
		return nil, false
	}
	st.touch(now)
	return st, true
}

func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.states, id)
	m.mu.Unlock()
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.states)
}

// CleanupExpired drops sessions idle for longer than the TTL and returns how
// many were removed.
func (m *Manager) CleanupExpired() int {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, st := range m.states {
		if now.Sub(st.idleSince()) > m.ttl {
			delete(m.states, id)
			n++
		}
	}
	return n
}

// Run calls CleanupExpired every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.CleanupExpired(); n > 0 {
				logger.For(ctx).WithField("removed", n).Debug("expired sessions removed")
			}
		}
	}
}

type ctxKey struct{}

// Middleware attaches the browser's state to the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := m.Load(w, r)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, st)))
	})
}

// From returns the state attached by Middleware, or a throwaway state.
func From(ctx context.Context) *State {
	if st, ok := ctx.Value(ctxKey{}).(*State); ok {
		return st
	}
	return &State{}
}
