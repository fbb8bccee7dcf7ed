package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/nutritrack-backend/internal/session"
	"github.com/angelmondragon/nutritrack-backend/pkg/kv"
	"github.com/angelmondragon/nutritrack-backend/pkg/logger"
	"github.com/angelmondragon/nutritrack-backend/pkg/metrics"
)

// ToasterFactory builds the toast sink for a user.
type ToasterFactory func(userID uuid.UUID) (Toaster, error)

// HubParams configure the per-user engine hub.
type HubParams struct {
	Reader     Reader
	KV         kv.Store
	StorageKey string
	Logger     *logger.Logger
	Metrics    *metrics.NotificationMetrics
	Toasters   ToasterFactory
	Location   *time.Location
	Interval   time.Duration
	Now        func() time.Time
}

type hubEntry struct {
	engine  *Engine
	session *session.Provider
}

// Hub owns one engine per user that has signed in since startup. Engines keep their list
// after sign-out; signing back in resumes derivation.
type Hub struct {
	params HubParams
	logg   *logger.Logger

	mu      sync.Mutex
	entries map[uuid.UUID]*hubEntry
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	errMu  sync.Mutex
	errs   error
}

func NewHub(params HubParams) (*Hub, error) {
	if params.Reader == nil {
		return nil, fmt.Errorf("nutrition reader required")
	}
	if params.KV == nil {
		return nil, fmt.Errorf("kv store required")
	}
	if params.StorageKey == "" {
		params.StorageKey = DefaultStorageKey
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		params:  params,
		logg:    logg,
		entries: make(map[uuid.UUID]*hubEntry),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// SignIn starts or resumes the user's engine and returns it once its cache is loaded.
func (h *Hub) SignIn(ctx context.Context, userID uuid.UUID) (*Engine, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, fmt.Errorf("notification hub closed")
	}
	entry, ok := h.entries[userID]
	if !ok {
		var err error
		entry, err = h.newEntry(userID)
		if err != nil {
			h.mu.Unlock()
			return nil, err
		}
		h.entries[userID] = entry
		h.start(entry.engine)
	}
	h.mu.Unlock()

	entry.engine.Load(ctx)
	entry.session.SignIn(userID.String())
	return entry.engine, nil
}

// SignOut suspends derivation for the user. Unknown users are ignored.
func (h *Hub) SignOut(userID uuid.UUID) {
	h.mu.Lock()
	entry, ok := h.entries[userID]
	h.mu.Unlock()
	if ok {
		entry.session.SignOut()
	}
}

// Engine returns the user's engine if the user has signed in since startup.
func (h *Hub) Engine(userID uuid.UUID) (*Engine, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	entry, ok := h.entries[userID]
	if !ok {
		return nil, false
	}
	return entry.engine, true
}

// SignedIn reports whether the user's session is active.
func (h *Hub) SignedIn(userID uuid.UUID) bool {
	h.mu.Lock()
	entry, ok := h.entries[userID]
	h.mu.Unlock()
	return ok && entry.session.Current().SignedIn
}

// Close stops every engine and waits for in-flight passes.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	h.cancel()
	h.wg.Wait()

	h.errMu.Lock()
	defer h.errMu.Unlock()
	return h.errs
}

func (h *Hub) newEntry(userID uuid.UUID) (*hubEntry, error) {
	var toaster Toaster
	if h.params.Toasters != nil {
		t, err := h.params.Toasters(userID)
		if err != nil {
			return nil, fmt.Errorf("building toaster: %w", err)
		}
		toaster = t
	}
	store, err := NewStore(StoreParams{
		KV:       kv.NewScoped(h.params.KV, h.params.StorageKey),
		Key:      userID.String(),
		Logger:   h.logg,
		Metrics:  h.params.Metrics,
		Toaster:  toaster,
		Location: h.params.Location,
		Now:      h.params.Now,
	})
	if err != nil {
		return nil, err
	}
	deriver, err := NewDeriver(DeriverParams{
		Reader:   h.params.Reader,
		Logger:   h.logg,
		Metrics:  h.params.Metrics,
		Location: h.params.Location,
		Now:      h.params.Now,
	})
	if err != nil {
		return nil, err
	}
	provider := session.NewProvider()
	engine, err := NewEngine(EngineParams{
		UserID:   userID,
		Store:    store,
		Deriver:  deriver,
		Session:  provider,
		Logger:   h.logg,
		Interval: h.params.Interval,
	})
	if err != nil {
		return nil, err
	}
	return &hubEntry{engine: engine, session: provider}, nil
}

func (h *Hub) start(engine *Engine) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		err := engine.Run(h.ctx)
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		h.errMu.Lock()
		h.errs = multierr.Append(h.errs, fmt.Errorf("engine %s: %w", engine.UserID(), err))
		h.errMu.Unlock()
	}()
}
