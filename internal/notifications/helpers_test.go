package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/nutritrack-backend/internal/nutrition"
)

type fakeKV struct {
	mu       sync.Mutex
	data     map[string]string
	sets     int
	deletes  int
	getErr   error
	setErr   error
	deleteFn func(key string) error
	getHook  func(key string)
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, bool, error) {
	if f.getHook != nil {
		f.getHook(key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return "", false, f.getErr
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.deleteFn != nil {
		return f.deleteFn(key)
	}
	delete(f.data, key)
	return nil
}

func (f *fakeKV) value(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

func (f *fakeKV) setCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(t time.Time) *clock { return &clock{now: t} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 1, hour, minute, 0, 0, time.UTC)
}

const today = "2026-03-01"

type fakeReader struct {
	countGoalsFn     func(ctx context.Context, userID uuid.UUID) (int64, error)
	hasMealPlanFn    func(ctx context.Context, userID uuid.UUID) (bool, error)
	latestMealPlanFn func(ctx context.Context, userID uuid.UUID) (*nutrition.MealPlan, error)
	todayProgressFn  func(ctx context.Context, userID uuid.UUID, day string) (*nutrition.Progress, error)
}

func (f *fakeReader) CountGoals(ctx context.Context, userID uuid.UUID) (int64, error) {
	if f.countGoalsFn != nil {
		return f.countGoalsFn(ctx, userID)
	}
	return 0, nil
}

func (f *fakeReader) HasMealPlan(ctx context.Context, userID uuid.UUID) (bool, error) {
	if f.hasMealPlanFn != nil {
		return f.hasMealPlanFn(ctx, userID)
	}
	return false, nil
}

func (f *fakeReader) LatestMealPlan(ctx context.Context, userID uuid.UUID) (*nutrition.MealPlan, error) {
	if f.latestMealPlanFn != nil {
		return f.latestMealPlanFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeReader) TodayProgress(ctx context.Context, userID uuid.UUID, day string) (*nutrition.Progress, error) {
	if f.todayProgressFn != nil {
		return f.todayProgressFn(ctx, userID, day)
	}
	return nil, nil
}

type recordingToaster struct {
	mu    sync.Mutex
	seen  []Notification
	err   error
	calls int
}

func (r *recordingToaster) Toast(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.seen = append(r.seen, n)
	return r.err
}

func (r *recordingToaster) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

var errBoom = errors.New("boom")

func newTestStore(t *testing.T, kvStore *fakeKV, clk *clock, toaster Toaster) *Store {
	t.Helper()
	store, err := NewStore(StoreParams{
		KV:       kvStore,
		Toaster:  toaster,
		Location: time.UTC,
		Now:      clk.Now,
	})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func newTestDeriver(t *testing.T, reader Reader, clk *clock) *Deriver {
	t.Helper()
	deriver, err := NewDeriver(DeriverParams{
		Reader:   reader,
		Location: time.UTC,
		Now:      clk.Now,
	})
	if err != nil {
		t.Fatalf("new deriver: %v", err)
	}
	return deriver
}

func storeSubmit(store *Store) SubmitFunc {
	return func(ctx context.Context, c Candidate) bool {
		_, ok := store.Add(ctx, c)
		return ok
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
