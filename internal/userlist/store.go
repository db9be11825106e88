// Package userlist keeps the in-memory user list of one console session in step with the API.
//
// A Store is the only writer of its collection. Views read copies through
// Snapshot and Filtered. Creates and updates invalidate the collection and
// refetch it; deletes are applied locally as soon as the API confirms them.
package userlist

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"user-console/internal/domain"
)

var (
	// ErrBusy is returned when the same target already has a request in flight.
	ErrBusy = errors.New("request already in progress")
	// ErrStale is returned when a fetch was superseded or the store was closed.
	ErrStale = errors.New("result superseded")
)

// Client is the subset of the users API the store needs.
type Client interface {
	List(ctx context.Context) ([]domain.User, error)
	Create(ctx context.Context, in domain.NewUser) (*domain.User, error)
	Update(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	}
	return "idle"
}

// Snapshot is a point-in-time copy of the store state.
type Snapshot struct {
	Status   Status
	Users    []domain.User
	Selected int64
	Err      error
}

// createKey is the in-flight key for creates; user ids are always positive.
const createKey int64 = 0

type Store struct {
	client Client
	logger *logrus.Entry

	mu         sync.Mutex
	status     Status
	users      []domain.User
	err        error
	selected   int64
	generation uint64
	closed     bool
	inflight   map[int64]struct{}
}

func New(client Client, logger *logrus.Entry) *Store {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	return &Store{
		client:   client,
		logger:   logger,
		inflight: make(map[int64]struct{}),
	}
}

// Activate loads the list for the first time. It is Refresh under another name.
func (s *Store) Activate(ctx context.Context) error {
	return s.Refresh(ctx)
}

// Refresh refetches the whole list. A result that arrives after a newer
// Refresh started, or after Close, is dropped with ErrStale.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStale
	}
	s.generation++
	gen := s.generation
	s.status = StatusLoading
	s.mu.Unlock()

	users, err := s.client.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.generation {
		return ErrStale
	}
	if err != nil {
		s.status = StatusFailed
		s.err = err
		s.logger.Errorf("list users: %v", err)
		return err
	}
	s.status = StatusReady
	s.err = nil
	s.users = users
	return nil
}

// Create registers a user and refetches the list. The created user is
// returned even when the refetch fails; that failure is kept in the state.
func (s *Store) Create(ctx context.Context, in domain.NewUser) (*domain.User, error) {
	release, err := s.acquire(createKey)
	if err != nil {
		return nil, err
	}
	defer release()

	user, err := s.client.Create(ctx, in)
	if err != nil {
		s.logger.WithField("email", in.Email).Warnf("create user: %v", err)
		return nil, err
	}
	s.refetchAfter(ctx, "create", user.ID)
	return user, nil
}

// Update patches a user and refetches the list. On failure the cached
// record is left as it was.
func (s *Store) Update(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	release, err := s.acquire(id)
	if err != nil {
		return nil, err
	}
	defer release()

	user, err := s.client.Update(ctx, id, patch)
	if err != nil {
		s.logger.WithField("user_id", id).Warnf("update user: %v", err)
		return nil, err
	}
	s.refetchAfter(ctx, "update", id)
	return user, nil
}

// Delete removes a user through the API and then drops it from the local
// collection, clearing the selection if it pointed at it. A failed delete
// leaves the collection untouched.
func (s *Store) Delete(ctx context.Context, id int64) (int64, error) {
	release, err := s.acquire(id)
	if err != nil {
		return 0, err
	}
	defer release()

	deleted, err := s.client.Delete(ctx, id)
	if err != nil {
		s.logger.WithField("user_id", id).Warnf("delete user: %v", err)
		return 0, err
	}

	s.mu.Lock()
	s.removeLocked(id)
	s.mu.Unlock()
	return deleted, nil
}

func (s *Store) removeLocked(id int64) {
	if s.selected == id {
		s.selected = 0
	}
	for i := range s.users {
		if s.users[i].ID != id {
			continue
		}
		next := make([]domain.User, 0, len(s.users)-1)
		next = append(next, s.users[:i]...)
		next = append(next, s.users[i+1:]...)
		s.users = next
		return
	}
}

func (s *Store) refetchAfter(ctx context.Context, op string, id int64) {
	if err := s.Refresh(ctx); err != nil && !errors.Is(err, ErrStale) {
		s.logger.WithField("user_id", id).Warnf("refetch after %s: %v", op, err)
	}
}

// acquire marks key as in flight. The returned func releases it.
func (s *Store) acquire(key int64) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrStale
	}
	if _, busy := s.inflight[key]; busy {
		return nil, fmt.Errorf("user %d: %w", key, ErrBusy)
	}
	s.inflight[key] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
	}, nil
}

// Select marks id as the record open in a detail or edit view.
func (s *Store) Select(id int64) {
	s.mu.Lock()
	s.selected = id
	s.mu.Unlock()
}

func (s *Store) ClearSelection() {
	s.Select(0)
}

func (s *Store) Selected() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Store) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Lookup returns the cached copy of id.
func (s *Store) Lookup(id int64) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return domain.User{}, false
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]domain.User, len(s.users))
	copy(users, s.users)
	return Snapshot{
		Status:   s.status,
		Users:    users,
		Selected: s.selected,
		Err:      s.err,
	}
}

// Filtered applies f to the current collection.
func (s *Store) Filtered(f domain.UserFilter) []domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Filter(s.users, f)
}

// Close detaches the store from its view. In-flight fetches resolve into ErrStale.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.generation++
	s.mu.Unlock()
}
