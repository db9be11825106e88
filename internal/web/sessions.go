package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"user-console/internal/userlist"
)

const sessionCookie = "uc_session"

type session struct {
	store    *userlist.Store
	lastSeen time.Time
}

// Sessions owns one userlist.Store per browser session. A store is closed
// once its session has been idle for longer than the ttl.
type Sessions struct {
	ttl      time.Duration
	newStore func(id string) *userlist.Store
	now      func() time.Time
	logger   *logrus.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

func NewSessions(ttl time.Duration, newStore func(id string) *userlist.Store, logger *logrus.Logger) *Sessions {
	if logger == nil {
		logger = logrus.New()
	}
	return &Sessions{
		ttl:      ttl,
		newStore: newStore,
		now:      time.Now,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// Store returns the store bound to the request's session, starting a new
// session (and setting its cookie) when there is none.
func (s *Sessions) Store(c *gin.Context) *userlist.Store {
	id, err := c.Cookie(sessionCookie)
	if err == nil {
		if store, ok := s.touch(id); ok {
			return store
		}
	}

	id = uuid.NewString()
	store := s.newStore(id)

	s.mu.Lock()
	s.sessions[id] = &session{store: store, lastSeen: s.now()}
	s.mu.Unlock()

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, int(s.ttl.Seconds()), "/", "", false, true)
	return store
}

func (s *Sessions) touch(id string) (*userlist.Store, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	sess.lastSeen = s.now()
	return sess.store, true
}

// Sweep closes and forgets sessions idle for longer than the ttl.
func (s *Sessions) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	var expired []*userlist.Store
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			expired = append(expired, sess.store)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, store := range expired {
		store.Close()
	}
	return len(expired)
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run sweeps periodically until ctx is done, then closes every store.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Debugf("closed %d idle sessions", n)
			}
		}
	}
}

func (s *Sessions) closeAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range all {
		sess.store.Close()
	}
}
