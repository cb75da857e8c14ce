package ingestion

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mr1hm/thirdeye/internal/config"
	"github.com/mr1hm/thirdeye/internal/dashboard"
	"github.com/mr1hm/thirdeye/internal/metrics"
	"github.com/mr1hm/thirdeye/internal/normalizer"
	"github.com/mr1hm/thirdeye/internal/notify"
	"github.com/mr1hm/thirdeye/internal/worker"
)

// Manager polls the alerts endpoint on a fixed interval. At most one fetch
// is in flight; a tick that finds one running is skipped. Each fetch takes
// the next sequence number so the dashboard can refuse stale results.
type Manager struct {
	cfg         *config.Config
	client      *Client
	state       *dashboard.State
	normalizer  *normalizer.Normalizer
	broadcaster *notify.Broadcaster
	metrics     *metrics.Metrics
	pool        *worker.Pool[notify.Notification]

	enabled  atomic.Bool
	inFlight atomic.Bool
	seq      atomic.Uint64

	mu      sync.Mutex
	ctx     context.Context
	started bool
	stopped bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewManager(cfg *config.Config, state *dashboard.State, norm *normalizer.Normalizer, broadcaster *notify.Broadcaster, m *metrics.Metrics) *Manager {
	mgr := &Manager{
		cfg:         cfg,
		client:      NewClient(cfg.Poller.URL, cfg.Poller.Timeout),
		state:       state,
		normalizer:  norm,
		broadcaster: broadcaster,
		metrics:     m,
		done:        make(chan struct{}),
	}
	mgr.enabled.Store(cfg.Poller.Enabled)
	return mgr
}

func (m *Manager) Start(ctx context.Context) {
	processor := func(ctx context.Context, n notify.Notification) error {
		if m.broadcaster == nil {
			return nil
		}
		delivered := m.broadcaster.Broadcast(n)
		slog.Debug("notification sent", "title", n.Title, "subscribers", delivered)
		return nil
	}

	m.pool = worker.NewPool("notify", m.cfg.Worker.Count, m.cfg.Worker.BufferSize, processor)
	m.pool.Start(ctx)

	m.mu.Lock()
	m.ctx = ctx
	m.started = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.runPoller(ctx)
}

func (m *Manager) runPoller(ctx context.Context) {
	defer m.wg.Done()
	slog.Info("starting poller", "url", m.cfg.Poller.URL, "interval", m.cfg.Poller.Interval, "enabled", m.enabled.Load())

	ticker := time.NewTicker(m.cfg.Poller.Interval)
	defer ticker.Stop()

	// Initial poll. With polling off nothing will arrive, so the dashboard
	// shows what it hydrated instead of a spinner.
	if m.enabled.Load() {
		m.poll()
	} else {
		m.state.MarkLoaded()
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("poller shutting down")
			return
		case <-m.done:
			slog.Info("poller stopped")
			return
		case <-ticker.C:
			if m.enabled.Load() {
				m.poll()
			}
		}
	}
}

// Trigger starts a fetch now unless one is already running. It reports
// whether a fetch was started.
func (m *Manager) Trigger() bool {
	return m.poll()
}

// SetEnabled turns future ticks on or off. A fetch already in flight is
// left to finish and its result is applied.
func (m *Manager) SetEnabled(enabled bool) {
	if m.enabled.Swap(enabled) != enabled {
		slog.Info("poller toggled", "enabled", enabled)
	}
}

func (m *Manager) Enabled() bool {
	return m.enabled.Load()
}

func (m *Manager) InFlight() bool {
	return m.inFlight.Load()
}

func (m *Manager) poll() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started || m.stopped {
		return false
	}
	if !m.inFlight.CompareAndSwap(false, true) {
		slog.Debug("previous poll still in flight, skipping")
		if m.metrics != nil {
			m.metrics.PollsSkipped.Inc()
		}
		return false
	}

	seq := m.seq.Add(1)
	m.wg.Add(1)
	go m.fetch(m.ctx, seq)
	return true
}

func (m *Manager) fetch(ctx context.Context, seq uint64) {
	defer m.wg.Done()
	defer m.inFlight.Store(false)

	slog.Debug("polling", "seq", seq)
	start := time.Now()

	raws, err := m.client.Fetch(ctx)

	if m.metrics != nil {
		m.metrics.Polls.Inc()
		m.metrics.PollDuration.Observe(time.Since(start).Seconds())
	}
	m.state.RecordPoll(time.Now(), err)

	if err != nil {
		m.state.MarkLoaded()
		if m.metrics != nil {
			m.metrics.PollFailures.Inc()
		}
		slog.Error("poll failed", "seq", seq, "error", err)
		return
	}

	alerts := m.normalizer.NormalizeAll(raws)
	fresh, ok := m.state.Apply(ctx, seq, alerts)
	m.state.MarkLoaded()
	if !ok {
		return
	}

	for _, a := range fresh {
		if err := m.pool.Submit(ctx, notify.ForAlert(a)); err != nil {
			slog.Warn("notification dropped", "id", a.ID, "error", err)
		}
	}

	slog.Debug("poll complete", "seq", seq, "received", len(raws), "new", len(fresh))
}

// Stop disables polling and waits for the loop and any in-flight fetch to
// finish, then drains pending notifications. It does not cancel a fetch;
// cancel the context passed to Start for that.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped || !m.started {
		m.stopped = true
		m.mu.Unlock()
		return
	}
	m.stopped = true
	m.enabled.Store(false)
	close(m.done)
	m.mu.Unlock()

	m.wg.Wait()
	m.pool.Stop()
	slog.Info("ingestion manager stopped")
}
