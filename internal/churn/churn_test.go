package churn

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/user-service/internal/apperror"
	"github.com/sakif/user-service/internal/logger"
	"github.com/sakif/user-service/internal/model"
	"github.com/sakif/user-service/internal/repository"
)

// =========================================================================
// FAKES
// =========================================================================

// fakeRepo keeps users in insertion order with a stepping creation clock.
type fakeRepo struct {
	mu      sync.Mutex
	users   map[string]*model.UserDetails
	nextID  int
	clock   time.Time
	creates int

	failDelete map[string]bool
	failOldest error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users:      make(map[string]*model.UserDetails),
		clock:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		failDelete: make(map[string]bool),
	}
}

func (r *fakeRepo) Create(_ context.Context, u *model.UserDetails) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.creates++
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperror.DuplicateEmail(u.Email)
		}
	}
	r.nextID++
	r.clock = r.clock.Add(time.Second)
	u.ID = fmt.Sprintf("u%03d", r.nextID)
	u.CreatedAt = r.clock
	stored := *u
	r.users[u.ID] = &stored
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*model.UserDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	out := *u
	return &out, nil
}

func (r *fakeRepo) List(_ context.Context) ([]model.UserDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.UserDetails, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeRepo) Search(ctx context.Context, _ model.UserFilter, _ repository.ListOptions) ([]model.UserDetails, error) {
	return r.List(ctx)
}

func (r *fakeRepo) Update(_ context.Context, id string, _ model.UserPatch) (*model.UserDetails, error) {
	return nil, apperror.NotFound("user", id)
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDelete[id] {
		return errors.New("database is locked")
	}
	if _, ok := r.users[id]; !ok {
		return apperror.NotFound("user", id)
	}
	delete(r.users, id)
	return nil
}

func (r *fakeRepo) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

func (r *fakeRepo) CountByGender(_ context.Context, _ string) (int, error) {
	return 0, nil
}

func (r *fakeRepo) OldestIDs(_ context.Context, n int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failOldest != nil {
		return nil, r.failOldest
	}
	all := make([]*model.UserDetails, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	ids := make([]string, 0, n)
	for i := 0; i < n && i < len(all); i++ {
		ids = append(ids, all[i].ID)
	}
	return ids, nil
}

func (r *fakeRepo) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.users))
	for id := range r.users {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *fakeRepo) createCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.creates
}

// seqSource hands out users with distinct emails unless repeat is set.
type seqSource struct {
	mu     sync.Mutex
	n      int
	repeat bool
}

func (s *seqSource) User() *model.UserDetails {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.repeat {
		s.n++
	}
	return &model.UserDetails{User: model.User{
		Name:    "Test",
		Surname: "User",
		Email:   fmt.Sprintf("user%d@example.com", s.n),
		AboutMe: "generated",
	}}
}

// fixedPick returns the queued values in order, then lo.
func fixedPick(values ...int) func(lo, hi int) int {
	var mu sync.Mutex
	return func(lo, hi int) int {
		mu.Lock()
		defer mu.Unlock()
		if len(values) == 0 {
			return lo
		}
		v := values[0]
		values = values[1:]
		return v
	}
}

func newTestScheduler(t *testing.T, cfg Config) (*Scheduler, *fakeRepo, *seqSource) {
	t.Helper()
	repo := newFakeRepo()
	src := &seqSource{}
	return New(repo, src, cfg, logger.Discard()), repo, src
}

// =========================================================================
// SEED
// =========================================================================

func TestSeed_EmptyStore(t *testing.T) {
	s, repo, _ := newTestScheduler(t, Config{})

	res, err := s.Seed(context.Background(), 250)
	require.NoError(t, err)

	assert.Equal(t, SeedResult{Created: 250}, res)
	assert.Len(t, repo.ids(), 250)
}

func TestSeed_SkipsPopulatedStore(t *testing.T) {
	s, repo, _ := newTestScheduler(t, Config{})

	_, err := s.Seed(context.Background(), 5)
	require.NoError(t, err)

	res, err := s.Seed(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Len(t, repo.ids(), 5)
}

func TestSeed_CountsFailures(t *testing.T) {
	s, repo, src := newTestScheduler(t, Config{})
	src.repeat = true
	src.n = 1

	res, err := s.Seed(context.Background(), 4)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 3, res.Failed)
	assert.Len(t, repo.ids(), 1)
}

func TestSeed_StopsOnCancelledContext(t *testing.T) {
	s, _, _ := newTestScheduler(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Seed(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
}

// =========================================================================
// TICK
// =========================================================================

func TestTick_AddsThenRemovesOldest(t *testing.T) {
	s, repo, _ := newTestScheduler(t, Config{})
	_, err := s.Seed(context.Background(), 10)
	require.NoError(t, err)

	s.pick = fixedPick(5, 2)
	res, err := s.Tick(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 5, res.Added)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, 2, res.Deleted)
	assert.Equal(t, 13, res.Total)

	ids := repo.ids()
	assert.NotContains(t, ids, "u001")
	assert.NotContains(t, ids, "u002")
	assert.Contains(t, ids, "u003")
	assert.Contains(t, ids, "u015")
}

func TestTick_InsertFailuresAreNotFatal(t *testing.T) {
	s, _, src := newTestScheduler(t, Config{})
	_, err := s.Seed(context.Background(), 3)
	require.NoError(t, err)

	// every generated user collides with the last seeded one
	src.repeat = true
	s.pick = fixedPick(4, 1)

	res, err := s.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Added)
	assert.Equal(t, 4, res.Failed)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 2, res.Total)
}

func TestTick_DeleteFailureSkipsThatUser(t *testing.T) {
	s, repo, _ := newTestScheduler(t, Config{})
	_, err := s.Seed(context.Background(), 5)
	require.NoError(t, err)
	repo.failDelete["u001"] = true

	s.pick = fixedPick(1, 3)
	res, err := s.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Deleted)
	assert.Equal(t, 4, res.Total)
	assert.Contains(t, repo.ids(), "u001")
}

func TestTick_DeleteMoreThanExist(t *testing.T) {
	s, _, _ := newTestScheduler(t, Config{})

	s.pick = fixedPick(1, 3)
	res, err := s.Tick(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, 0, res.Total)
}

func TestTick_OldestQueryFailure(t *testing.T) {
	s, repo, _ := newTestScheduler(t, Config{})
	repo.failOldest = errors.New("disk I/O error")

	s.pick = fixedPick(2, 1)
	res, err := s.Tick(context.Background())

	require.Error(t, err)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, 0, res.Deleted)
	assert.Equal(t, 2, res.Total)
}

func TestTick_CountsStayInRange(t *testing.T) {
	s, _, _ := newTestScheduler(t, Config{})
	_, err := s.Seed(context.Background(), 50)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		res, err := s.Tick(context.Background())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.Added, DefaultConfig.AddRange.Min)
		assert.LessOrEqual(t, res.Added, DefaultConfig.AddRange.Max)
		assert.GreaterOrEqual(t, res.Deleted, DefaultConfig.DeleteRange.Min)
		assert.LessOrEqual(t, res.Deleted, DefaultConfig.DeleteRange.Max)
	}
}

// =========================================================================
// START / STOP
// =========================================================================

func TestStartStop_StateMachine(t *testing.T) {
	s, _, _ := newTestScheduler(t, Config{Interval: time.Hour})

	assert.ErrorIs(t, s.Stop(), ErrNotRunning)

	require.NoError(t, s.Start(context.Background()))
	assert.True(t, s.Running())
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)

	require.NoError(t, s.Stop())
	assert.False(t, s.Running())
	assert.ErrorIs(t, s.Stop(), ErrNotRunning)

	// restartable
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop())
}

func TestStart_TicksAtInterval(t *testing.T) {
	s, repo, _ := newTestScheduler(t, Config{Interval: 10 * time.Millisecond})

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() { _ = s.Stop() })

	assert.Eventually(t, func() bool {
		return repo.createCalls() >= 3
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStop_ParentContextCancel(t *testing.T) {
	s, _, _ := newTestScheduler(t, Config{Interval: 10 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, s.Start(ctx))
	cancel()

	// the loop exits on its own; Stop still flips the state and returns
	require.NoError(t, s.Stop())
}
