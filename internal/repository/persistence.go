package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mr1hm/thirdeye/internal/models"
)

const (
	AlertsKey        = "securewatch_alerts"
	EventsKey        = "securewatch_events"
	sessionKeyPrefix = "securewatch_user:"
)

func SessionKey(token string) string {
	return sessionKeyPrefix + token
}

// Persistence reads and writes the dashboard's two collections through a
// Store. Timestamps are written as strings and parsed back on load.
type Persistence struct {
	store Store
}

func NewPersistence(store Store) *Persistence {
	return &Persistence{store: store}
}

func (p *Persistence) Store() Store {
	return p.store
}

type storedAlert struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Location     string `json:"location"`
	LocationType string `json:"locationType"`
	Timestamp    string `json:"timestamp"`
	Severity     string `json:"severity"`
}

type storedEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	Type        string `json:"type"`
}

const timestampLayout = time.RFC3339Nano

// SaveAlerts serializes the full collection before touching the store, so
// an encoding failure never reaches it.
func (p *Persistence) SaveAlerts(ctx context.Context, alerts []models.Alert) error {
	rows := make([]storedAlert, len(alerts))
	for i, a := range alerts {
		rows[i] = storedAlert{
			ID:           a.ID,
			Title:        a.Title,
			Description:  a.Description,
			Location:     a.Location,
			LocationType: string(a.LocationType),
			Timestamp:    a.Timestamp.UTC().Format(timestampLayout),
			Severity:     string(a.Severity),
		}
	}
	return p.save(ctx, AlertsKey, rows)
}

func (p *Persistence) SaveEvents(ctx context.Context, events []models.TimelineEvent) error {
	rows := make([]storedEvent, len(events))
	for i, e := range events {
		rows[i] = storedEvent{
			ID:          e.ID,
			Title:       e.Title,
			Description: e.Description,
			Timestamp:   e.Timestamp.UTC().Format(timestampLayout),
			Type:        string(e.Type),
		}
	}
	return p.save(ctx, EventsKey, rows)
}

func (p *Persistence) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("error encoding %s: %w", key, err)
	}
	return p.store.Set(ctx, key, data)
}

// LoadAlerts returns nil when nothing is stored. Any decoding problem
// abandons the whole blob.
func (p *Persistence) LoadAlerts(ctx context.Context) ([]models.Alert, error) {
	var rows []storedAlert
	if ok, err := p.load(ctx, AlertsKey, &rows); !ok || err != nil {
		return nil, err
	}

	alerts := make([]models.Alert, 0, len(rows))
	for _, r := range rows {
		ts, err := models.ParseTimestamp(r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("error decoding %s: alert %s: %w", AlertsKey, r.ID, err)
		}
		alerts = append(alerts, models.Alert{
			ID:           r.ID,
			Title:        r.Title,
			Description:  r.Description,
			Location:     r.Location,
			LocationType: models.LocationType(r.LocationType),
			Timestamp:    ts,
			Severity:     models.Severity(r.Severity),
		})
	}
	return alerts, nil
}

func (p *Persistence) LoadEvents(ctx context.Context) ([]models.TimelineEvent, error) {
	var rows []storedEvent
	if ok, err := p.load(ctx, EventsKey, &rows); !ok || err != nil {
		return nil, err
	}

	events := make([]models.TimelineEvent, 0, len(rows))
	for _, r := range rows {
		ts, err := models.ParseTimestamp(r.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("error decoding %s: event %s: %w", EventsKey, r.ID, err)
		}
		events = append(events, models.TimelineEvent{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Timestamp:   ts,
			Type:        models.EventType(r.Type),
		})
	}
	return events, nil
}

func (p *Persistence) load(ctx context.Context, key string, v any) (bool, error) {
	data, err := p.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("error decoding %s: %w", key, err)
	}
	return true, nil
}

// Clear removes both collections.
func (p *Persistence) Clear(ctx context.Context) error {
	return p.store.Delete(ctx, AlertsKey, EventsKey)
}

// SaveSession writes the session blob under its token.
func (p *Persistence) SaveSession(ctx context.Context, s models.Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("error encoding session: %w", err)
	}
	return p.store.Set(ctx, SessionKey(s.Token), data)
}

// LoadSession returns nil when the token is unknown.
func (p *Persistence) LoadSession(ctx context.Context, token string) (*models.Session, error) {
	var s models.Session
	if ok, err := p.load(ctx, SessionKey(token), &s); !ok || err != nil {
		return nil, err
	}
	return &s, nil
}

func (p *Persistence) DeleteSession(ctx context.Context, token string) error {
	return p.store.Delete(ctx, SessionKey(token))
}
