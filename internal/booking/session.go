package booking

import (
	"sync"
	"time"
)

// State identifies where a conversation stands in the booking dialogue.
type State string

const (
	StateInitial           State = "INITIAL"
	StateAwaitService      State = "AWAIT_SERVICE"
	StateAwaitDateTime     State = "AWAIT_DATETIME"
	StateAwaitTimeOnly     State = "AWAIT_TIME_ONLY"
	StateAwaitSlotChoice   State = "AWAIT_SLOT_CHOICE"
	StateAwaitAlternateDay State = "AWAIT_ALTERNATE_DAY"
	StateAwaitEmail        State = "AWAIT_EMAIL"
	StateAwaitConfirmation State = "AWAIT_CONFIRMATION"
)

// ServiceChoice is how the user picked a service. The distinction between
// a catalog pick and free text is preserved for downstream reporting
// instead of collapsing everything to a string.
type ServiceChoice struct {
	Name         string
	CatalogIndex int // 1-based, only meaningful when FromCatalog
	FromCatalog  bool
}

// Session is the in-memory record of one user's booking dialogue. It is
// never persisted: a process restart loses unconfirmed conversations by
// design.
type Session struct {
	Phone      string
	BusinessID string
	State      State

	// Collected fields
	Name    string
	Service *ServiceChoice
	When    time.Time // zero until a slot is chosen
	Email   string
	// EmailSkipped records an explicit "omitir" so a later slot re-pick
	// does not ask for the email again.
	EmailSkipped bool

	// BaseDay holds the day a bare time will be applied to (AWAIT_TIME_ONLY).
	BaseDay time.Time

	// Pending suggestion batch and the day it belongs to.
	Suggestions    []time.Time
	SuggestionsDay time.Time

	LastInteractionAt time.Time
	Inactive          bool
	InactiveAt        time.Time
}

// ClearSuggestions drops the pending suggestion batch.
func (s *Session) ClearSuggestions() {
	s.Suggestions = nil
	s.SuggestionsDay = time.Time{}
}

// SessionStore holds booking sessions keyed by phone number. Get and All
// return private snapshots and Put publishes one, so callers on different
// goroutines (message handling, timer callbacks, the purge sweep) never
// share a mutable Session. The engine accesses sessions only through this
// interface, never as ambient global state, so the backing can be swapped
// (plain map for tests, TTL cache in production).
type SessionStore interface {
	Get(phone string) (*Session, bool)
	Put(session *Session)
	Delete(phone string)
	All() []*Session
}

// MemorySessionStore is the default map-backed SessionStore. Every read
// copies the record out and every write copies it in; the slice and
// pointer fields inside a Session are replaced wholesale and never
// mutated in place, so the shallow copy is enough.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*Session)}
}

func (m *MemorySessionStore) Get(phone string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[phone]
	if !ok {
		return nil, false
	}
	snapshot := *s
	return &snapshot, true
}

func (m *MemorySessionStore) Put(session *Session) {
	if session == nil || session.Phone == "" {
		return
	}
	snapshot := *session
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[snapshot.Phone] = &snapshot
}

func (m *MemorySessionStore) Delete(phone string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, phone)
}

func (m *MemorySessionStore) All() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		snapshot := *s
		all = append(all, &snapshot)
	}
	return all
}
