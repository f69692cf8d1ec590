package app

import (
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/roach88/driftbench/internal/shop"
)

// SessionCookie is the name of the cookie carrying the session ID.
const SessionCookie = "driftbench_session"

// IDGenerator produces session IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered UUIDv7 IDs.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

type sessionEntry struct {
	mu   sync.Mutex
	sess *shop.Session
}

// SessionStore maps session IDs to independent application states.
// It is safe for concurrent use; operations on one session are serialised.
type SessionStore struct {
	mu       sync.Mutex
	ids      IDGenerator
	sessions map[string]*sessionEntry
}

// NewSessionStore creates an empty store.
func NewSessionStore(ids IDGenerator) *SessionStore {
	if ids == nil {
		ids = UUIDv7Generator{}
	}
	return &SessionStore{ids: ids, sessions: make(map[string]*sessionEntry)}
}

// Len returns the number of sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// entry returns the session for r, creating one (and setting the cookie
// on w) when the request carries none or an unknown ID.
func (st *SessionStore) entry(w http.ResponseWriter, r *http.Request) *sessionEntry {
	st.mu.Lock()
	defer st.mu.Unlock()

	if c, err := r.Cookie(SessionCookie); err == nil {
		if e, ok := st.sessions[c.Value]; ok {
			return e
		}
	}

	id := st.ids.Generate()
	e := &sessionEntry{sess: shop.NewSession()}
	st.sessions[id] = e
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return e
}

// With runs fn with exclusive access to the request's session.
func (st *SessionStore) With(w http.ResponseWriter, r *http.Request, fn func(*shop.Session)) {
	e := st.entry(w, r)
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.sess)
}
