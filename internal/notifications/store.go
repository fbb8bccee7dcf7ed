package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/angelmondragon/nutritrack-backend/pkg/enums"
	"github.com/angelmondragon/nutritrack-backend/pkg/kv"
	"github.com/angelmondragon/nutritrack-backend/pkg/logger"
	"github.com/angelmondragon/nutritrack-backend/pkg/metrics"
)

// DefaultStorageKey is the key the list is cached under.
const DefaultStorageKey = "notifications"

// StoreParams configure a notification store.
type StoreParams struct {
	KV       kv.Store
	Key      string
	Logger   *logger.Logger
	Metrics  *metrics.NotificationMetrics
	Toaster  Toaster
	Location *time.Location
	Now      func() time.Time
}

// Store is the authoritative in-memory list for one user. All mutations serialize on mu;
// Add is the only place dedup is decided.
type Store struct {
	mu      sync.Mutex
	items   []Notification
	lastGen int64
	loaded  bool

	kv      kv.Store
	key     string
	logg    *logger.Logger
	metrics *metrics.NotificationMetrics
	toaster Toaster
	loc     *time.Location
	now     func() time.Time
}

// NewStore builds an empty store; call Load to merge in the cached list.
func NewStore(params StoreParams) (*Store, error) {
	if params.KV == nil {
		return nil, fmt.Errorf("kv store required")
	}
	key := params.Key
	if key == "" {
		key = DefaultStorageKey
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	loc := params.Location
	if loc == nil {
		loc = time.Local
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		kv:      params.KV,
		key:     key,
		logg:    logg,
		metrics: params.Metrics,
		toaster: params.Toaster,
		loc:     loc,
		now:     now,
	}, nil
}

// Load reads the cached list and merges it into memory. A corrupt payload is discarded.
// Mutations made before the first Load stay in memory only; Load writes the merged list.
func (s *Store) Load(ctx context.Context) {
	ctx = s.logg.WithField(ctx, "storage_key", s.key)
	cached := s.readCache(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	wasLoaded := s.loaded
	s.loaded = true
	if len(cached) == 0 {
		if !wasLoaded && len(s.items) > 0 {
			s.persistLocked(ctx)
		}
		return
	}
	s.items = mergeLists(s.items, cached)
	s.persistLocked(ctx)
}

func (s *Store) readCache(ctx context.Context) []Notification {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.logg.Error(ctx, "failed to read cached notifications", err)
		return nil
	}
	if !ok {
		return nil
	}
	cached, err := decodeList(raw)
	if err != nil {
		s.logg.Error(ctx, "discarding corrupt notification cache", err)
		if delErr := s.kv.Delete(ctx, s.key); delErr != nil {
			s.logg.Error(ctx, "failed to discard corrupt notification cache", delErr)
		}
		return nil
	}
	return cached
}

func decodeList(raw string) ([]Notification, error) {
	var items []Notification
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, err
	}
	for i, n := range items {
		if n.ID == "" {
			return nil, fmt.Errorf("entry %d has no id", i)
		}
		if !n.Type.IsValid() {
			return nil, fmt.Errorf("entry %s has invalid type %q", n.ID, n.Type)
		}
	}
	return items, nil
}

// mergeLists unions by id; read state is sticky and the result is newest first.
func mergeLists(current, cached []Notification) []Notification {
	index := make(map[string]int, len(current))
	merged := make([]Notification, 0, len(current)+len(cached))
	for _, n := range current {
		index[n.ID] = len(merged)
		merged = append(merged, n)
	}
	for _, n := range cached {
		if i, ok := index[n.ID]; ok {
			merged[i].IsRead = merged[i].IsRead || n.IsRead
			continue
		}
		index[n.ID] = len(merged)
		merged = append(merged, n)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged
}

// All returns the list newest first.
func (s *Store) All() []Notification {
	return s.Snapshot().Notifications
}

func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return countUnread(s.items)
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newSnapshot(s.items)
}

// HasID reports whether a notification with id exists.
func (s *Store) HasID(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(id) >= 0
}

// HasTypeOn reports whether a notification of type t was created on the calendar day of at.
func (s *Store) HasTypeOn(t enums.NotificationType, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	day := s.day(at)
	for _, n := range s.items {
		if n.Type == t && s.day(n.CreatedAt) == day {
			return true
		}
	}
	return false
}

// Add assigns defaults, applies dedup and prepends the notification when accepted.
// The toast fires exactly once per accepted add, after the lock is released.
func (s *Store) Add(ctx context.Context, c Candidate) (Notification, bool) {
	s.mu.Lock()
	now := s.now()
	n := Notification{
		ID:        c.ID,
		Message:   c.Message,
		Type:      c.Type,
		Time:      c.Time,
		CreatedAt: now,
	}
	if s.isDuplicateLocked(n) {
		s.mu.Unlock()
		s.metrics.IncRejected(n.Type.String())
		return Notification{}, false
	}
	if n.ID == "" {
		n.ID = s.generateIDLocked(now)
	}
	s.items = append([]Notification{n}, s.items...)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.metrics.IncAccepted(n.Type.String())
	s.toast(ctx, n)
	return n, true
}

func (s *Store) isDuplicateLocked(n Notification) bool {
	if n.ID != "" {
		return s.indexLocked(n.ID) >= 0
	}
	day := s.day(n.CreatedAt)
	for _, existing := range s.items {
		if existing.Type != n.Type || s.day(existing.CreatedAt) != day {
			continue
		}
		switch n.Type {
		case enums.NotificationTypeGoal:
			return true
		case enums.NotificationTypeMeal:
			if existing.Message == n.Message {
				return true
			}
		}
	}
	return false
}

func (s *Store) generateIDLocked(now time.Time) string {
	ms := now.UnixMilli()
	if ms <= s.lastGen {
		ms = s.lastGen + 1
	}
	for s.indexLocked(generatedID(ms)) >= 0 {
		ms++
	}
	s.lastGen = ms
	return generatedID(ms)
}

func generatedID(ms int64) string {
	return "notification-" + strconv.FormatInt(ms, 10)
}

// MarkAsRead flags the matching entry; an unknown id leaves the list untouched.
func (s *Store) MarkAsRead(ctx context.Context, id string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(id); i >= 0 && !s.items[i].IsRead {
		s.items[i].IsRead = true
		s.persistLocked(ctx)
	}
	return newSnapshot(s.items)
}

// MarkAllAsRead flags every entry. An empty list is a no-op.
func (s *Store) MarkAllAsRead(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return newSnapshot(s.items)
	}
	for i := range s.items {
		s.items[i].IsRead = true
	}
	s.persistLocked(ctx)
	return newSnapshot(s.items)
}

func (s *Store) indexLocked(id string) int {
	for i, n := range s.items {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) day(t time.Time) string {
	return t.In(s.loc).Format(dayLayout)
}

// persistLocked writes the full list. Failures are logged and swallowed. Nothing is
// written before the cache has been merged by Load.
func (s *Store) persistLocked(ctx context.Context) {
	if !s.loaded {
		return
	}
	items := s.items
	if items == nil {
		items = []Notification{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		s.logg.Error(ctx, "failed to encode notifications", err)
		return
	}
	if err := s.kv.Set(ctx, s.key, string(payload)); err != nil {
		s.logg.Error(s.logg.WithField(ctx, "storage_key", s.key), "failed to persist notifications", err)
	}
}

func (s *Store) toast(ctx context.Context, n Notification) {
	if s.toaster == nil {
		return
	}
	err := s.toaster.Toast(ctx, n)
	s.metrics.IncToast(err)
	if err != nil {
		s.logg.Error(s.logg.WithField(ctx, "notification_id", n.ID), "failed to deliver toast", err)
	}
}
