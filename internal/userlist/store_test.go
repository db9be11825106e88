package userlist

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-console/internal/domain"
)

var errBoom = errors.New("boom")

// fakeClient is an in-memory users API.
type fakeClient struct {
	mu     sync.Mutex
	users  []domain.User
	nextID int64

	listErr   error
	deleteErr error
	lists     int

	// listGate, when set, blocks the next List after it has read the
	// users and until the gate is closed.
	listGate chan struct{}
	// deleteGate, when set, blocks Delete until it is closed.
	deleteGate chan struct{}
}

func newFakeClient(users ...domain.User) *fakeClient {
	f := &fakeClient{nextID: 1}
	for _, u := range users {
		f.users = append(f.users, u)
		if u.ID >= f.nextID {
			f.nextID = u.ID + 1
		}
	}
	return f
}

func (f *fakeClient) List(ctx context.Context) ([]domain.User, error) {
	f.mu.Lock()
	gate := f.listGate
	f.listGate = nil
	f.lists++
	err := f.listErr
	out := make([]domain.User, len(f.users))
	copy(out, f.users)
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeClient) gatePending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listGate != nil
}

func (f *fakeClient) Create(ctx context.Context, in domain.NewUser) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == in.Email {
			return nil, domain.ErrEmailRegistered
		}
	}
	u := domain.User{ID: f.nextID, Name: in.Name, Email: in.Email, IsActive: true}
	f.nextID++
	f.users = append(f.users, u)
	return &u, nil
}

func (f *fakeClient) Update(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if patch.Email != nil {
		for _, u := range f.users {
			if u.ID != id && u.Email == *patch.Email {
				return nil, domain.ErrEmailRegistered
			}
		}
	}
	for i := range f.users {
		if f.users[i].ID != id {
			continue
		}
		if patch.Name != nil {
			f.users[i].Name = *patch.Name
		}
		if patch.Email != nil {
			f.users[i].Email = *patch.Email
		}
		if patch.IsActive != nil {
			f.users[i].IsActive = *patch.IsActive
		}
		u := f.users[i]
		return &u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeClient) Delete(ctx context.Context, id int64) (int64, error) {
	f.mu.Lock()
	gate := f.deleteGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	for i := range f.users {
		if f.users[i].ID == id {
			f.users = append(f.users[:i], f.users[i+1:]...)
			return id, nil
		}
	}
	return 0, domain.ErrUserNotFound
}

func (f *fakeClient) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func seedUsers() []domain.User {
	return []domain.User{
		{ID: 1, Name: "Alice", Email: "alice@x.com", IsActive: true},
		{ID: 2, Name: "Bob", Email: "bob@x.com", IsActive: false},
	}
}

func TestActivateLoadsList(t *testing.T) {
	fc := newFakeClient(seedUsers()...)
	s := New(fc, nil)
	assert.Equal(t, StatusIdle, s.Status())

	require.NoError(t, s.Activate(context.Background()))

	snap := s.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	assert.Len(t, snap.Users, 2)
	assert.NoError(t, snap.Err)
}

func TestActivateFailure(t *testing.T) {
	fc := newFakeClient(seedUsers()...)
	fc.listErr = errBoom
	s := New(fc, nil)

	err := s.Activate(context.Background())
	assert.ErrorIs(t, err, errBoom)

	snap := s.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.ErrorIs(t, snap.Err, errBoom)
	assert.Empty(t, snap.Users)

	fc.mu.Lock()
	fc.listErr = nil
	fc.mu.Unlock()
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, StatusReady, s.Status())
	assert.NoError(t, s.Snapshot().Err)
}

func TestCreateRefetches(t *testing.T) {
	fc := newFakeClient(seedUsers()...)
	s := New(fc, nil)
	ctx := context.Background()
	require.NoError(t, s.Activate(ctx))

	u, err := s.Create(ctx, domain.NewUser{Name: "Carol", Email: "carol@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), u.ID)
	assert.Equal(t, 2, fc.listCount())

	got, ok := s.Lookup(u.ID)
	require.True(t, ok)
	assert.Equal(t, "Carol", got.Name)
}

func TestCreateConflictLeavesState(t *testing.T) {
	fc := newFakeClient(seedUsers()...)
	s := New(fc, nil)
	ctx := context.Background()
	require.NoError(t, s.Activate(ctx))

	_, err := s.Create(ctx, domain.NewUser{Name: "A2", Email: "alice@x.com", Password: "pw"})
	assert.ErrorIs(t, err, domain.ErrEmailRegistered)
	assert.Equal(t, 1, fc.listCount())
	assert.Len(t, s.Snapshot().Users, 2)
}

func TestUpdateRefetches(t *testing.T) {
	fc := newFakeClient(seedUsers()...)
	s := New(fc, nil)
	ctx := context.Background()
	require.NoError(t, s.Activate(ctx))

	active := true
	_, err := s.Update(ctx, 2, domain.UserPatch{IsActive: &active})
	require.NoError(t, err)

	got, ok := s.Lookup(2)
	require.True(t, ok)
	assert.True(t, got.IsActive)
}

func TestUpdateFailureKeepsCachedRecord(t *testing.T) {
	fc := newFakeClient(seedUsers()...)
	s := New(fc, nil)
	ctx := context.Background()
	require.NoError(t, s.Activate(ctx))

	name := "Ghost"
	_, err := s.Update(ctx, 9, domain.UserPatch{Name: &name})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, seedUsers(), s.Snapshot().Users)
}

func TestUpdateEmailConflictKeepsOldEmail(t *testing.T) {
	fc := newFakeClient(seedUsers()...)
	s := New(fc, nil)
	ctx := context.Background()
	require.NoError(t, s.Activate(ctx))

	taken := "bob@x.com"
	_, err := s.Update(ctx, 1, domain.UserPatch{Email: &taken})
	assert.ErrorIs(t, err, domain.ErrEmailRegistered)

	got, ok := s.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "alice@x.com", got.Email)
	assert.Equal(t, 1, fc.listCount())
}

func TestDeleteRemovesLocallyAndClearsSelection(t *testing.T) {
	fc := newFakeClient(seedUsers()...)
	s := New(fc, nil)
	ctx := context.Background()
	require.NoError(t, s.Activate(ctx))
	s.Select(1)

	id, err := s.Delete(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	snap := s.Snapshot()
	assert.Zero(t, snap.Selected)
	require.Len(t, snap.Users, 1)
	assert.Equal(t, int64(2), snap.Users[0].ID)
	assert.Equal(t, 1, fc.listCount(), "delete must not refetch")
}

func TestDeleteKeepsOtherSelection(t *testing.T) {
	fc := newFakeClient(seedUsers()...)
	s := New(fc, nil)
	ctx := context.Background()
	require.NoError(t, s.Activate(ctx))
	s.Select(2)

	_, err := s.Delete(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.Selected())
}

func TestDeleteFailureLeavesCollection(t *testing.T) {
	fc := newFakeClient(seedUsers()...)
	fc.deleteErr = errBoom
	s := New(fc, nil)
	ctx := context.Background()
	require.NoError(t, s.Activate(ctx))
	s.Select(1)

	_, err := s.Delete(ctx, 1)
	assert.ErrorIs(t, err, errBoom)

	snap := s.Snapshot()
	assert.Equal(t, seedUsers(), snap.Users)
	assert.Equal(t, int64(1), snap.Selected)
}

func TestConcurrentDeleteOfSameUserIsBusy(t *testing.T) {
	fc := newFakeClient(seedUsers()...)
	s := New(fc, nil)
	ctx := context.Background()
	require.NoError(t, s.Activate(ctx))

	gate := make(chan struct{})
	fc.mu.Lock()
	fc.deleteGate = gate
	fc.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := s.Delete(ctx, 1)
		done <- err
	}()

	// wait until the first delete holds the slot
	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, held := s.inflight[1]
		return held
	}, time2s, tick)

	_, err := s.Delete(ctx, 1)
	assert.ErrorIs(t, err, ErrBusy)

	// a different user is not blocked by the guard
	s.mu.Lock()
	_, held := s.inflight[2]
	s.mu.Unlock()
	assert.False(t, held)

	close(gate)
	require.NoError(t, <-done)
	assert.Len(t, s.Snapshot().Users, 1)
}

func TestStaleRefreshIsDropped(t *testing.T) {
	fc := newFakeClient(seedUsers()...)
	s := New(fc, nil)
	ctx := context.Background()

	gate := make(chan struct{})
	fc.mu.Lock()
	fc.listGate = gate
	fc.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- s.Activate(ctx) }()

	require.Eventually(t, func() bool { return s.Status() == StatusLoading }, time2s, tick)
	s.Close()
	close(gate)

	assert.ErrorIs(t, <-done, ErrStale)
	assert.Equal(t, StatusLoading, s.Status())
	assert.Empty(t, s.Snapshot().Users)

	_, err := s.Create(ctx, domain.NewUser{Name: "x", Email: "x@x.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrStale)
	assert.ErrorIs(t, s.Refresh(ctx), ErrStale)
}

func TestOlderRefreshLosesToNewer(t *testing.T) {
	fc := newFakeClient(seedUsers()...)
	s := New(fc, nil)
	ctx := context.Background()

	gate := make(chan struct{})
	fc.mu.Lock()
	fc.listGate = gate
	fc.mu.Unlock()

	older := make(chan error, 1)
	go func() { older <- s.Refresh(ctx) }()

	// the first fetch has read two users and is parked on the gate
	require.Eventually(t, func() bool { return !fc.gatePending() }, time2s, tick)

	_, err := fc.Create(ctx, domain.NewUser{Name: "Carol", Email: "carol@x.com"})
	require.NoError(t, err)
	require.NoError(t, s.Refresh(ctx))
	require.Len(t, s.Snapshot().Users, 3)

	close(gate)
	assert.ErrorIs(t, <-older, ErrStale)

	snap := s.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	assert.Len(t, snap.Users, 3)
}

func TestFilteredUsesCurrentCollection(t *testing.T) {
	fc := newFakeClient(seedUsers()...)
	s := New(fc, nil)
	require.NoError(t, s.Activate(context.Background()))

	got := s.Filtered(domain.UserFilter{ShowOnlyActive: true})
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0].Name)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "loading", StatusLoading.String())
	assert.Equal(t, "ready", StatusReady.String())
	assert.Equal(t, "failed", StatusFailed.String())
}
