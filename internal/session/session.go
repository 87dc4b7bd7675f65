// Package session holds the per-browser form state: the inputs, the last
// validation errors, the loading flag, the last fetched series and the
// failure banner.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aquagraph/aquagraph/internal/archive"
	"github.com/aquagraph/aquagraph/internal/form"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("session not found")

// BannerKind classifies a banner.
type BannerKind string

const (
	BannerFetchFailed BannerKind = "FETCH_FAILED"
)

// Banner is a dismissible notice shown above the form.
type Banner struct {
	Kind    BannerKind
	Message string
}

// Token identifies one submit. Only the most recent token may apply results.
type Token uint64

// Session is the state of one browser.
type Session struct {
	ID         string
	Form       form.State
	Errors     form.ErrorMap
	Loading    bool
	Series     *archive.WeatherSeries
	Banner     *Banner
	Generation Token
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (s *Session) clone() *Session {
	out := *s
	if s.Errors != nil {
		out.Errors = make(form.ErrorMap, len(s.Errors))
		for k, v := range s.Errors {
			out.Errors[k] = v
		}
	}
	out.Series = s.Series.Clone()
	if s.Banner != nil {
		b := *s.Banner
		out.Banner = &b
	}
	return &out
}

// StoreConfig holds configuration for the session store.
type StoreConfig struct {
	// IdleTTL evicts sessions not touched for this long (default: 2 hours).
	IdleTTL time.Duration

	// MaxSessions caps the number of live sessions (default: 10000).
	// The least recently updated session is evicted when full.
	MaxSessions int

	// Now is the clock (optional, for tests).
	Now func() time.Time
}

// Store is an in-memory, concurrency-safe session store.
type Store struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	idleTTL     time.Duration
	maxSessions int
	now         func() time.Time
}

// NewStore creates a session store.
func NewStore(cfg StoreConfig) *Store {
	idleTTL := cfg.IdleTTL
	if idleTTL == 0 {
		idleTTL = 2 * time.Hour
	}
	maxSessions := cfg.MaxSessions
	if maxSessions == 0 {
		maxSessions = 10000
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Store{
		sessions:    make(map[string]*Session),
		idleTTL:     idleTTL,
		maxSessions: maxSessions,
		now:         now,
	}
}

// Create starts a new empty session.
func (s *Store) Create() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.maxSessions {
		s.evictOldestLocked()
	}

	now := s.now()
	sess := &Session{
		ID:        "ses_" + uuid.NewString(),
		Errors:    form.ErrorMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.sessions[sess.ID] = sess
	return sess.clone()
}

// Get returns the session for id, creating a fresh one when id is unknown.
// The second return value is false when a new session was created.
func (s *Store) Get(id string) (*Session, bool) {
	if snap, err := s.Snapshot(id); err == nil {
		return snap, true
	}
	return s.Create(), false
}

// Snapshot returns a deep copy of a session.
func (s *Store) Snapshot(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.liveLocked(id)
	if err != nil {
		return nil, err
	}
	return sess.clone(), nil
}

// Update applies fn to a session under the store lock.
func (s *Store) Update(id string, fn func(*Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.liveLocked(id)
	if err != nil {
		return err
	}
	fn(sess)
	sess.UpdatedAt = s.now()
	return nil
}

// Begin marks a submit in flight and returns its token. Any earlier
// in-flight submit of the same session becomes stale.
func (s *Store) Begin(id string) (Token, error) {
	var token Token
	err := s.Update(id, func(sess *Session) {
		sess.Generation++
		sess.Loading = true
		sess.Banner = nil
		token = sess.Generation
	})
	return token, err
}

// Supersede runs fn and discards any in-flight submit without starting a
// new one. Used when a submit is blocked by validation.
func (s *Store) Supersede(id string, fn func(*Session)) error {
	return s.Update(id, func(sess *Session) {
		sess.Generation++
		sess.Loading = false
		fn(sess)
	})
}

// Apply runs fn only if token is still the latest submit. It reports
// whether fn ran.
func (s *Store) Apply(id string, token Token, fn func(*Session)) (bool, error) {
	applied := false
	err := s.Update(id, func(sess *Session) {
		if sess.Generation != token {
			return
		}
		fn(sess)
		applied = true
	})
	return applied, err
}

// Settle clears the loading flag if token is still the latest submit.
func (s *Store) Settle(id string, token Token) {
	_, _ = s.Apply(id, token, func(sess *Session) {
		sess.Loading = false
	})
}

// Dismiss removes the banner.
func (s *Store) Dismiss(id string) error {
	return s.Update(id, func(sess *Session) {
		sess.Banner = nil
	})
}

// Sweep evicts idle sessions and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.idleTTL)
	removed := 0
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) liveLocked(id string) (*Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.now().Sub(sess.UpdatedAt) > s.idleTTL {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Store) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, sess := range s.sessions {
		if oldestID == "" || sess.UpdatedAt.Before(oldest) {
			oldestID, oldest = id, sess.UpdatedAt
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
	}
}
