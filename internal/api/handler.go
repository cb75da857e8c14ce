package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/thirdeye/internal/dashboard"
	"github.com/mr1hm/thirdeye/internal/facility"
	"github.com/mr1hm/thirdeye/internal/filter"
	"github.com/mr1hm/thirdeye/internal/metrics"
	"github.com/mr1hm/thirdeye/internal/models"
	"github.com/mr1hm/thirdeye/internal/normalizer"
	"github.com/mr1hm/thirdeye/internal/notify"
	"github.com/mr1hm/thirdeye/internal/session"
)

// Poller is the part of the ingestion manager the API controls.
type Poller interface {
	Trigger() bool
	SetEnabled(enabled bool)
	Enabled() bool
	InFlight() bool
}

type Handler struct {
	state       *dashboard.State
	sessions    *session.Manager
	poller      Poller
	catalog     *facility.Catalog
	broadcaster *notify.Broadcaster
	metrics     *metrics.Metrics
	injector    *normalizer.Normalizer
	heartbeat   time.Duration
}

func NewHandler(state *dashboard.State, sessions *session.Manager, poller Poller, catalog *facility.Catalog, broadcaster *notify.Broadcaster, m *metrics.Metrics) *Handler {
	return &Handler{
		state:       state,
		sessions:    sessions,
		poller:      poller,
		catalog:     catalog,
		broadcaster: broadcaster,
		metrics:     m,
		injector:    normalizer.New(catalog, normalizer.WithSeverity(normalizer.FixedSeverity(models.SeverityMedium))),
		heartbeat:   15 * time.Second,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	r.POST("/api/login", h.login)

	authed := r.Group("/api", h.requireSession)
	authed.POST("/logout", h.logout)
	authed.GET("/me", h.me)
	authed.GET("/status", h.status)
	authed.GET("/alerts", h.getAlerts)
	authed.GET("/alerts/:id", h.getAlert)
	authed.GET("/timeline", h.getTimeline)
	authed.GET("/map", h.getMap)
	authed.GET("/notifications", h.streamNotifications)

	admin := authed.Group("", requireRole(models.RoleSuperadmin))
	admin.POST("/alerts/refresh", h.refresh)
	admin.PUT("/poller", h.setPoller)
	admin.POST("/alerts", h.injectAlert)
	admin.DELETE("/storage", h.clearStorage)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type loginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CallbackURL string `json:"callbackUrl"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, session.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": session.InvalidCredentialsMessage})
		return
	}
	if err != nil {
		slog.Error("login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":       s.Token,
		"user":        s.User,
		"scope":       s.User.Role.Scope(),
		"callbackUrl": session.CallbackURL(req.CallbackURL),
	})
}

func (h *Handler) logout(c *gin.Context) {
	s := currentSession(c)
	if err := h.sessions.Logout(c.Request.Context(), s.Token); err != nil {
		slog.Error("logout failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to end session"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	s := currentSession(c)
	c.JSON(http.StatusOK, gin.H{
		"user":  s.User,
		"scope": s.User.Role.Scope(),
	})
}

func (h *Handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"dashboard":   h.state.Status(),
		"pollEnabled": h.poller.Enabled(),
		"pollRunning": h.poller.InFlight(),
		"subscribers": h.broadcaster.SubscriberCount(),
		"facility":    h.catalog.Name(),
	})
}

func (h *Handler) getAlerts(c *gin.Context) {
	sev, err := filter.ParseSeverityFilter(c.Query("severity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role := currentSession(c).User.Role
	forRole := filter.ByRole(h.state.Alerts(), role)
	visible := filter.BySeverity(forRole, sev)

	resp := gin.H{
		"alerts":   visible,
		"total":    len(forRole),
		"severity": sev,
		"loading":  h.state.Status().Loading,
	}
	if len(visible) == 0 {
		resp["emptyMessage"] = filter.EmptyMessage(len(forRole))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getAlert(c *gin.Context) {
	a, ok := h.state.Alert(c.Param("id"))
	if !ok || !filter.CanSee(currentSession(c).User.Role, a) {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"alert": a,
		"style": a.Severity.Style(),
		"event": models.EventFromAlert(a),
	})
}

func (h *Handler) getTimeline(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"events": h.state.Events()})
}

// getMap places the same alerts the list shows, severity tab included.
func (h *Handler) getMap(c *gin.Context) {
	sev, err := filter.ParseSeverityFilter(c.Query("severity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	alerts := filter.Visible(h.state.Alerts(), currentSession(c).User.Role, sev)
	c.JSON(http.StatusOK, toMapView(h.catalog, alerts))
}

func (h *Handler) streamNotifications(c *gin.Context) {
	role := currentSession(c).User.Role
	id, ch := h.broadcaster.Subscribe(role)
	defer h.broadcaster.Unsubscribe(id)

	if h.metrics != nil {
		h.metrics.Subscribers.Inc()
		defer h.metrics.Subscribers.Dec()
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("ready", gin.H{"role": role, "scope": role.Scope()})
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case n, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(n.Kind), n)
			return true
		case t := <-heartbeat.C:
			c.SSEvent("ping", t.UTC().Format(time.RFC3339))
			return true
		}
	})
}

func (h *Handler) refresh(c *gin.Context) {
	started := h.poller.Trigger()
	c.JSON(http.StatusAccepted, gin.H{"started": started})
}

type pollerRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *Handler) setPoller(c *gin.Context) {
	var req pollerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled is required"})
		return
	}
	h.poller.SetEnabled(*req.Enabled)
	c.JSON(http.StatusOK, gin.H{"enabled": h.poller.Enabled()})
}

func (h *Handler) injectAlert(c *gin.Context) {
	var raw models.RawAlert
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert body"})
		return
	}

	a := h.injector.Normalize(raw)
	fresh := h.state.Insert(c.Request.Context(), []models.Alert{a})
	for _, f := range fresh {
		h.broadcaster.Broadcast(notify.ForAlert(f))
	}

	status := http.StatusCreated
	if len(fresh) == 0 {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"alert": a, "created": len(fresh) > 0})
}

func (h *Handler) clearStorage(c *gin.Context) {
	err := h.state.Clear(c.Request.Context())
	h.broadcaster.Broadcast(notify.System("Storage cleared", "All alerts and events were removed", time.Now()))

	c.JSON(http.StatusOK, gin.H{
		"cleared":   true,
		"persisted": err == nil,
	})
}
