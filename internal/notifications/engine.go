package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/nutritrack-backend/internal/session"
	"github.com/angelmondragon/nutritrack-backend/pkg/logger"
)

const defaultInterval = 30 * time.Minute

// EngineParams configure the engine for one user.
type EngineParams struct {
	UserID   uuid.UUID
	Store    *Store
	Deriver  *Deriver
	Session  session.Source
	Logger   *logger.Logger
	Interval time.Duration
}

// Engine schedules derivation passes for one user while that user is signed in and
// exposes the list operations the UI layer calls.
type Engine struct {
	userID   uuid.UUID
	store    *Store
	deriver  *Deriver
	session  session.Source
	logg     *logger.Logger
	interval time.Duration
	loadOnce sync.Once
}

func NewEngine(params EngineParams) (*Engine, error) {
	if params.UserID == uuid.Nil {
		return nil, fmt.Errorf("user id required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if params.Deriver == nil {
		return nil, fmt.Errorf("deriver required")
	}
	if params.Session == nil {
		return nil, fmt.Errorf("session source required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Engine{
		userID:   params.UserID,
		store:    params.Store,
		deriver:  params.Deriver,
		session:  params.Session,
		logg:     logg,
		interval: interval,
	}, nil
}

func (e *Engine) UserID() uuid.UUID { return e.userID }

// Load merges the cached list into memory. Only the first call reads the cache.
func (e *Engine) Load(ctx context.Context) {
	e.loadOnce.Do(func() { e.store.Load(e.logCtx(ctx)) })
}

func (e *Engine) Snapshot() Snapshot { return e.store.Snapshot() }

func (e *Engine) MarkAsRead(ctx context.Context, id string) Snapshot {
	return e.store.MarkAsRead(e.logCtx(ctx), id)
}

func (e *Engine) MarkAllAsRead(ctx context.Context) Snapshot {
	return e.store.MarkAllAsRead(e.logCtx(ctx))
}

// AddNotification submits a candidate from outside the derivation passes.
func (e *Engine) AddNotification(ctx context.Context, c Candidate) (Notification, bool, Snapshot) {
	n, ok := e.store.Add(e.logCtx(ctx), c)
	return n, ok, e.store.Snapshot()
}

// FetchNotifications runs the goal check only. Read failures are returned for reporting;
// the list is unchanged in that case.
func (e *Engine) FetchNotifications(ctx context.Context) (Snapshot, error) {
	ctx = e.logCtx(ctx)
	err := e.deriver.GoalCheck(ctx, e.userID, e.store, e.submitter(ctx))
	return e.store.Snapshot(), err
}

// Derive runs one full derivation pass now.
func (e *Engine) Derive(ctx context.Context) {
	ctx = e.logCtx(ctx)
	e.deriver.Derive(ctx, e.userID, e.store, e.submitter(ctx))
}

// Run loads the cache and schedules derivation passes while the session belongs to this
// engine's user: one immediately, then every interval. Sign-out stops the ticker and
// cancels an in-flight pass; signing back in starts over.
func (e *Engine) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = e.logCtx(ctx)
	e.Load(ctx)

	states, unsubscribe := e.session.Subscribe()
	defer unsubscribe()

	var (
		ticker     *time.Ticker
		tick       <-chan time.Time
		passCtx    context.Context
		cancelPass context.CancelFunc
		inflight   chan struct{}
		passes     sync.WaitGroup
	)

	// launch skips a tick while the current schedule's pass is running. Passes from a
	// canceled schedule are not tracked here; shutdown waits for them through passes.
	launch := func() {
		if inflight != nil {
			select {
			case <-inflight:
			default:
				e.logg.Info(ctx, "previous derivation pass still running; skipping tick")
				return
			}
		}
		done := make(chan struct{})
		inflight = done
		passes.Add(1)
		go func(ctx context.Context) {
			defer passes.Done()
			defer close(done)
			e.Derive(ctx)
		}(passCtx)
	}

	activate := func() {
		if ticker != nil {
			return
		}
		e.logg.Info(ctx, "user signed in; starting derivation schedule")
		passCtx, cancelPass = context.WithCancel(ctx)
		inflight = nil
		launch()
		ticker = time.NewTicker(e.interval)
		tick = ticker.C
	}

	deactivate := func() {
		if ticker == nil {
			return
		}
		e.logg.Info(ctx, "user signed out; stopping derivation schedule")
		ticker.Stop()
		ticker, tick = nil, nil
		cancelPass()
	}

	apply := func(st session.State) {
		if e.owns(st) {
			activate()
			return
		}
		deactivate()
	}

	apply(e.session.Current())
	for {
		select {
		case <-ctx.Done():
			deactivate()
			passes.Wait()
			e.logg.Info(ctx, "notification engine context canceled")
			return ctx.Err()
		case st := <-states:
			apply(st)
		case <-tick:
			launch()
		}
	}
}

func (e *Engine) owns(st session.State) bool {
	return st.SignedIn && st.UserID == e.userID.String()
}

// submitter guards every add: a pass that outlived its session or context is dropped.
func (e *Engine) submitter(passCtx context.Context) SubmitFunc {
	return func(ctx context.Context, c Candidate) bool {
		if passCtx.Err() != nil || !e.owns(e.session.Current()) {
			e.logg.Debug(ctx, "dropping candidate from stale pass")
			return false
		}
		_, ok := e.store.Add(ctx, c)
		return ok
	}
}

func (e *Engine) logCtx(ctx context.Context) context.Context {
	return e.logg.WithUserID(ctx, e.userID.String())
}
