// Package dashboard holds the alert and timeline collections that every
// view is derived from.
package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mr1hm/thirdeye/internal/metrics"
	"github.com/mr1hm/thirdeye/internal/models"
	"github.com/mr1hm/thirdeye/internal/repository"
)

// State is the single owner of alerts and events. The store behind it is
// only a mirror: write failures are logged and counted, never retried.
type State struct {
	mu      sync.RWMutex
	alerts  []models.Alert
	events  []models.TimelineEvent
	lastSeq uint64

	loading    bool
	loadedOnce sync.Once
	lastPoll   time.Time
	lastErr    string

	persist *repository.Persistence
	metrics *metrics.Metrics
}

type Option func(*State)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *State) { s.metrics = m }
}

func New(persist *repository.Persistence, opts ...Option) *State {
	s := &State{
		persist: persist,
		loading: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate loads whatever the store holds. A missing or unreadable
// collection leaves that collection empty.
func (s *State) Hydrate(ctx context.Context) {
	alerts, err := s.persist.LoadAlerts(ctx)
	if err != nil {
		slog.Warn("error loading persisted alerts", "error", err)
		alerts = nil
	}
	events, err := s.persist.LoadEvents(ctx)
	if err != nil {
		slog.Warn("error loading persisted events", "error", err)
		events = nil
	}

	s.mu.Lock()
	s.alerts = alerts
	s.events = events
	s.setHeld()
	s.mu.Unlock()

	slog.Info("dashboard hydrated", "alerts", len(alerts), "events", len(events))
}

type eventKey struct {
	id string
	ts int64
}

func keyOf(a models.Alert) eventKey {
	return eventKey{id: a.ID, ts: a.Timestamp.UnixNano()}
}

// Apply merges a fetch result. seq must be larger than the last applied
// sequence, otherwise the result is stale and dropped and false is returned.
// Alerts already held, or repeated inside the batch, are skipped. New
// alerts are prepended in batch order with one timeline event each.
func (s *State) Apply(ctx context.Context, seq uint64, batch []models.Alert) ([]models.Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.lastSeq {
		if s.metrics != nil {
			s.metrics.StaleDropped.Inc()
		}
		slog.Warn("dropping stale poll result", "seq", seq, "last", s.lastSeq)
		return nil, false
	}
	s.lastSeq = seq

	return s.merge(ctx, batch), true
}

// Insert merges alerts that did not come from a poll, such as a manual
// injection. It skips the sequence check but not de-duplication.
func (s *State) Insert(ctx context.Context, batch []models.Alert) []models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.merge(ctx, batch)
}

// merge prepends unseen alerts and persists. Callers hold s.mu.
func (s *State) merge(ctx context.Context, batch []models.Alert) []models.Alert {
	seen := make(map[eventKey]struct{}, len(s.alerts)+len(batch))
	for _, a := range s.alerts {
		seen[keyOf(a)] = struct{}{}
	}

	var fresh []models.Alert
	events := make([]models.TimelineEvent, 0, len(batch))
	for _, a := range batch {
		k := keyOf(a)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		fresh = append(fresh, a)
		events = append(events, models.EventFromAlert(a))
	}

	if len(fresh) == 0 {
		return nil
	}

	s.alerts = append(fresh[:len(fresh):len(fresh)], s.alerts...)
	s.events = append(events, s.events...)
	s.setHeld()
	if s.metrics != nil {
		s.metrics.NewAlerts.Add(float64(len(fresh)))
	}

	s.saveAlerts(ctx)
	s.saveEvents(ctx)

	out := make([]models.Alert, len(fresh))
	copy(out, fresh)
	return out
}

// AddEvent records a non-alert timeline entry such as a login.
func (s *State) AddEvent(ctx context.Context, e models.TimelineEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append([]models.TimelineEvent{e}, s.events...)
	s.saveEvents(ctx)
}

// Clear empties both collections here and in the store. The in-memory
// reset happens even if the store refuses.
func (s *State) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts = nil
	s.events = nil
	s.setHeld()

	if err := s.persist.Clear(ctx); err != nil {
		s.persistFailed("clear", err)
		return err
	}
	return nil
}

// MarkLoaded clears the loading flag. Only the first call has any effect.
func (s *State) MarkLoaded() {
	s.loadedOnce.Do(func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	})
}

// RecordPoll notes when the last fetch finished and how.
func (s *State) RecordPoll(at time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPoll = at
	if err != nil {
		s.lastErr = err.Error()
	} else {
		s.lastErr = ""
	}
}

// Alerts returns a copy, newest batch first.
func (s *State) Alerts() []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}

// Alert finds the most recent alert with the given id.
func (s *State) Alert(id string) (models.Alert, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.alerts {
		if a.ID == id {
			return a, true
		}
	}
	return models.Alert{}, false
}

// Events returns the timeline newest first.
func (s *State) Events() []models.TimelineEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.SortedEvents(s.events)
}

type Status struct {
	Loading   bool      `json:"loading"`
	Alerts    int       `json:"alerts"`
	Events    int       `json:"events"`
	LastSeq   uint64    `json:"lastSequence"`
	LastPoll  time.Time `json:"lastPoll"`
	LastError string    `json:"lastError,omitempty"`
}

func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Loading:   s.loading,
		Alerts:    len(s.alerts),
		Events:    len(s.events),
		LastSeq:   s.lastSeq,
		LastPoll:  s.lastPoll,
		LastError: s.lastErr,
	}
}

// callers hold s.mu

func (s *State) saveAlerts(ctx context.Context) {
	if len(s.alerts) == 0 {
		return
	}
	if err := s.persist.SaveAlerts(ctx, s.alerts); err != nil {
		s.persistFailed(repository.AlertsKey, err)
	}
}

func (s *State) saveEvents(ctx context.Context) {
	if len(s.events) == 0 {
		return
	}
	if err := s.persist.SaveEvents(ctx, s.events); err != nil {
		s.persistFailed(repository.EventsKey, err)
	}
}

func (s *State) persistFailed(key string, err error) {
	slog.Error("error writing to store", "key", key, "error", err)
	if s.metrics != nil {
		s.metrics.PersistFailures.Inc()
	}
}

func (s *State) setHeld() {
	if s.metrics != nil {
		s.metrics.AlertsHeld.Set(float64(len(s.alerts)))
	}
}
