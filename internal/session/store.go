package session

import (
	"context"
	"sync"
	"time"
)

// Store owns every Session. Do gives the caller exclusive access to one
// session for the duration of a turn; turns on different session keys do not
// contend beyond the map lookup.
type Store struct {
	mu                sync.Mutex
	sessions          map[string]*entry
	inactivityTimeout time.Duration
	onExpire          func(*Session)
}

type entry struct {
	mu   sync.Mutex
	sess *Session
}

func NewStore(inactivityTimeout time.Duration) *Store {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 30 * time.Minute
	}
	return &Store{
		sessions:          make(map[string]*entry),
		inactivityTimeout: inactivityTimeout,
	}
}

func (st *Store) SetExpireHook(hook func(*Session)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.onExpire = hook
}

// Do runs fn with exclusive ownership of the session for id, creating the
// session on first use. The read-modify-write sequence inside fn is atomic
// with respect to other Do calls on the same id.
func (st *Store) Do(id string, fn func(*Session) error) error {
	st.mu.Lock()
	e, ok := st.sessions[id]
	if !ok {
		now := time.Now().UTC()
		e = &entry{sess: &Session{ID: id, StartedAt: now, LastActivityAt: now}}
		st.sessions[id] = e
	}
	st.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.sess.LastActivityAt = time.Now().UTC()
	return fn(e.sess)
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// StartJanitor evicts idle sessions until ctx is done. A pending booking
// expires together with its session; the inactivity timeout is the only TTL.
func (st *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				st.expireInactive()
			}
		}
	}()
}

func (st *Store) expireInactive() {
	now := time.Now().UTC()
	var expired []*Session

	st.mu.Lock()
	for id, e := range st.sessions {
		// Skip sessions mid-turn; an active turn refreshes LastActivityAt
		// anyway.
		if !e.mu.TryLock() {
			continue
		}
		idle := now.Sub(e.sess.LastActivityAt) >= st.inactivityTimeout
		if idle {
			expired = append(expired, e.sess)
			delete(st.sessions, id)
		}
		e.mu.Unlock()
	}
	hook := st.onExpire
	st.mu.Unlock()

	if hook != nil {
		for _, s := range expired {
			hook(s)
		}
	}
}
