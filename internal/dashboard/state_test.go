package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mr1hm/thirdeye/internal/metrics"
	"github.com/mr1hm/thirdeye/internal/models"
	"github.com/mr1hm/thirdeye/internal/repository"
)

var t0 = time.Date(2025, 4, 5, 22, 10, 3, 0, time.UTC)

func alert(id string, ts time.Time) models.Alert {
	return models.Alert{
		ID:           id,
		Title:        "Violence",
		Description:  "Violent activity detected",
		Location:     "Lobby",
		LocationType: models.LocationWithin,
		Timestamp:    ts,
		Severity:     models.SeverityCritical,
	}
}

func ids(alerts []models.Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.ID)
	}
	return out
}

func newState(t *testing.T) (*State, repository.Store, *metrics.Metrics) {
	store := repository.NewMemoryStore()
	m := metrics.New()
	return New(repository.NewPersistence(store), WithMetrics(m)), store, m
}

func TestApply_DedupAcrossTicks(t *testing.T) {
	s, _, m := newState(t)
	ctx := context.Background()

	fresh, ok := s.Apply(ctx, 1, []models.Alert{alert("500", t0)})
	require.True(t, ok)
	assert.Equal(t, []string{"500"}, ids(fresh))

	fresh, ok = s.Apply(ctx, 2, []models.Alert{alert("500", t0)})
	require.True(t, ok)
	assert.Empty(t, fresh)

	assert.Len(t, s.Alerts(), 1)
	assert.Len(t, s.Events(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NewAlerts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AlertsHeld))
}

func TestApply_SameIDNewTimestampIsNew(t *testing.T) {
	s, _, _ := newState(t)
	ctx := context.Background()

	s.Apply(ctx, 1, []models.Alert{alert("500", t0)})
	fresh, _ := s.Apply(ctx, 2, []models.Alert{alert("500", t0.Add(time.Second))})

	assert.Len(t, fresh, 1)
	assert.Len(t, s.Alerts(), 2)
}

func TestApply_SameInstantDifferentZoneIsDuplicate(t *testing.T) {
	s, _, _ := newState(t)
	ctx := context.Background()

	s.Apply(ctx, 1, []models.Alert{alert("500", t0)})
	fresh, _ := s.Apply(ctx, 2, []models.Alert{alert("500", t0.In(time.FixedZone("IST", 19800)))})

	assert.Empty(t, fresh)
}

func TestApply_DuplicatesInsideBatch(t *testing.T) {
	s, _, _ := newState(t)

	fresh, _ := s.Apply(context.Background(), 1, []models.Alert{
		alert("45", t0), alert("45", t0), alert("46", t0),
	})

	assert.Equal(t, []string{"45", "46"}, ids(fresh))
}

func TestApply_NewestBatchFirst(t *testing.T) {
	s, _, _ := newState(t)
	ctx := context.Background()

	s.Apply(ctx, 1, []models.Alert{alert("a", t0), alert("b", t0)})
	s.Apply(ctx, 2, []models.Alert{alert("c", t0), alert("d", t0)})

	assert.Equal(t, []string{"c", "d", "a", "b"}, ids(s.Alerts()))
}

func TestApply_StaleSequenceDropped(t *testing.T) {
	s, _, m := newState(t)
	ctx := context.Background()

	_, ok := s.Apply(ctx, 2, []models.Alert{alert("new", t0)})
	require.True(t, ok)

	fresh, ok := s.Apply(ctx, 1, []models.Alert{alert("old", t0)})
	assert.False(t, ok)
	assert.Nil(t, fresh)

	_, ok = s.Apply(ctx, 2, []models.Alert{alert("again", t0)})
	assert.False(t, ok, "a sequence may only be applied once")

	assert.Equal(t, []string{"new"}, ids(s.Alerts()))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StaleDropped))
	assert.Equal(t, uint64(2), s.Status().LastSeq)
}

func TestApply_PersistsBothCollections(t *testing.T) {
	s, store, _ := newState(t)
	ctx := context.Background()

	s.Apply(ctx, 1, []models.Alert{alert("500", t0), alert("200", t0.Add(-time.Minute))})

	p := repository.NewPersistence(store)
	alerts, err := p.LoadAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"500", "200"}, ids(alerts))

	events, err := p.LoadEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "event-500", events[0].ID)
	assert.Equal(t, "Violent activity detected at Lobby", events[0].Description)
}

func TestApply_NoChangeWritesNothing(t *testing.T) {
	s, store, _ := newState(t)
	ctx := context.Background()

	s.Apply(ctx, 1, nil)

	got, err := store.Get(ctx, repository.AlertsKey)
	require.NoError(t, err)
	assert.Nil(t, got, "empty collections are not persisted")
}

type brokenStore struct {
	repository.Store
}

func (brokenStore) Set(ctx context.Context, key string, value []byte) error {
	return errors.New("quota exceeded")
}

func (brokenStore) Delete(ctx context.Context, keys ...string) error {
	return errors.New("read-only")
}

func TestApply_StoreFailureKeepsMemoryState(t *testing.T) {
	m := metrics.New()
	s := New(repository.NewPersistence(brokenStore{repository.NewMemoryStore()}), WithMetrics(m))

	fresh, ok := s.Apply(context.Background(), 1, []models.Alert{alert("500", t0)})

	assert.True(t, ok)
	assert.Len(t, fresh, 1)
	assert.Len(t, s.Alerts(), 1)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PersistFailures))
}

func TestHydrate(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	p := repository.NewPersistence(store)
	require.NoError(t, p.SaveAlerts(ctx, []models.Alert{alert("500", t0)}))
	require.NoError(t, p.SaveEvents(ctx, []models.TimelineEvent{models.EventFromAlert(alert("500", t0))}))

	s := New(p)
	s.Hydrate(ctx)

	assert.Equal(t, []string{"500"}, ids(s.Alerts()))
	assert.Len(t, s.Events(), 1)

	// the reloaded alert is recognised as already seen
	fresh, _ := s.Apply(ctx, 1, []models.Alert{alert("500", t0)})
	assert.Empty(t, fresh)
}

func TestHydrate_MalformedBlobYieldsEmpty(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()
	store.Set(ctx, repository.AlertsKey, []byte(`{"not":"an array"`))
	store.Set(ctx, repository.EventsKey, []byte(`[]`))

	s := New(repository.NewPersistence(store))
	s.Hydrate(ctx)

	assert.Empty(t, s.Alerts())
	assert.Empty(t, s.Events())
}

func TestClear(t *testing.T) {
	s, store, _ := newState(t)
	ctx := context.Background()

	s.Apply(ctx, 1, []models.Alert{alert("500", t0)})
	require.NoError(t, s.Clear(ctx))

	assert.Empty(t, s.Alerts())
	assert.Empty(t, s.Events())

	reloaded := New(repository.NewPersistence(store))
	reloaded.Hydrate(ctx)
	assert.Empty(t, reloaded.Alerts())
	assert.Empty(t, reloaded.Events())

	// sequence numbers keep counting after a clear
	_, ok := s.Apply(ctx, 1, []models.Alert{alert("500", t0)})
	assert.False(t, ok)
	fresh, ok := s.Apply(ctx, 2, []models.Alert{alert("500", t0)})
	assert.True(t, ok)
	assert.Len(t, fresh, 1, "cleared alerts may be ingested again")
}

func TestClear_StoreFailure(t *testing.T) {
	s := New(repository.NewPersistence(brokenStore{repository.NewMemoryStore()}))
	s.Apply(context.Background(), 1, []models.Alert{alert("500", t0)})

	assert.Error(t, s.Clear(context.Background()))
	assert.Empty(t, s.Alerts())
}

func TestEvents_SortedAtReadTime(t *testing.T) {
	s, _, _ := newState(t)
	ctx := context.Background()

	s.Apply(ctx, 1, []models.Alert{alert("old", t0.Add(-time.Hour)), alert("new", t0)})
	s.AddEvent(ctx, models.TimelineEvent{ID: "user-1", Title: "User logged in", Timestamp: t0.Add(-30 * time.Minute), Type: models.EventUser})

	events := s.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "event-new", events[0].ID)
	assert.Equal(t, "user-1", events[1].ID)
	assert.Equal(t, "event-old", events[2].ID)
}

func TestMarkLoaded_Once(t *testing.T) {
	s, _, _ := newState(t)
	assert.True(t, s.Status().Loading)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.MarkLoaded()
		}()
	}
	wg.Wait()

	assert.False(t, s.Status().Loading)
}

func TestRecordPoll(t *testing.T) {
	s, _, _ := newState(t)

	s.RecordPoll(t0, errors.New("connection refused"))
	assert.Equal(t, "connection refused", s.Status().LastError)

	s.RecordPoll(t0.Add(time.Minute), nil)
	st := s.Status()
	assert.Empty(t, st.LastError)
	assert.True(t, st.LastPoll.Equal(t0.Add(time.Minute)))
}

func TestAlert_Lookup(t *testing.T) {
	s, _, _ := newState(t)
	s.Apply(context.Background(), 1, []models.Alert{alert("500", t0)})
	s.Apply(context.Background(), 2, []models.Alert{alert("500", t0.Add(time.Minute))})

	a, ok := s.Alert("500")
	require.True(t, ok)
	assert.True(t, a.Timestamp.Equal(t0.Add(time.Minute)), "newest copy wins")

	_, ok = s.Alert("missing")
	assert.False(t, ok)
}

func TestInsert_IgnoresSequence(t *testing.T) {
	s, _, _ := newState(t)
	ctx := context.Background()

	s.Apply(ctx, 5, []models.Alert{alert("polled", t0)})
	fresh := s.Insert(ctx, []models.Alert{alert("manual", t0), alert("polled", t0)})

	assert.Equal(t, []string{"manual"}, ids(fresh))
	assert.Equal(t, []string{"manual", "polled"}, ids(s.Alerts()))
	assert.Equal(t, uint64(5), s.Status().LastSeq)
}
