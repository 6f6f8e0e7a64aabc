package analytics

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cherbst/devblog/limiter"
)

// Handler serves the collect and stats endpoints.
type Handler struct {
	store          *Store
	collectLimiter *limiter.Limiter
	logger         *slog.Logger
	now            func() time.Time
}

// NewHandler creates a Handler. Collect is limited to 60 requests per IP
// per minute.
func NewHandler(store *Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:          store,
		collectLimiter: limiter.New(60, time.Minute),
		logger:         logger.With("component", "analytics"),
		now:            time.Now,
	}
}

// Close stops the rate limiter's background sweep.
func (h *Handler) Close() {
	h.collectLimiter.Stop()
}

// CollectRequest is the beacon body sent by analytics.js.
type CollectRequest struct {
	Path        string `json:"path"`
	Referrer    string `json:"referrer"`
	ScreenWidth int    `json:"screen_width"`
	DurationMs  int64  `json:"duration_ms"`
}

const (
	maxPathLen     = 2048
	maxReferrerLen = 2048
	maxUserAgent   = 512
	maxScreenWidth = 16384
	maxDurationMs  = 24 * 60 * 60 * 1000
)

func (r *CollectRequest) validate() error {
	switch {
	case r.Path == "" || r.Path[0] != '/':
		return fmt.Errorf("path must be absolute")
	case len(r.Path) > maxPathLen:
		return fmt.Errorf("path exceeds maximum length of %d", maxPathLen)
	case len(r.Referrer) > maxReferrerLen:
		return fmt.Errorf("referrer exceeds maximum length of %d", maxReferrerLen)
	case r.ScreenWidth < 0 || r.ScreenWidth > maxScreenWidth:
		return fmt.Errorf("screen_width out of range")
	case r.DurationMs < 0 || r.DurationMs > maxDurationMs:
		return fmt.Errorf("duration_ms out of range")
	}
	return nil
}

// Collect records a page view. Requests with DNT set are accepted and
// dropped; bots go to their own table.
func (h *Handler) Collect(c echo.Context) error {
	ip := c.RealIP()
	if !h.collectLimiter.Allow(ip) {
		return c.NoContent(http.StatusTooManyRequests)
	}
	if c.Request().Header.Get("DNT") == "1" {
		return c.NoContent(http.StatusNoContent)
	}

	var req CollectRequest
	if err := c.Bind(&req); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request")
	}
	if err := req.validate(); err != nil {
		return c.String(http.StatusBadRequest, "Invalid request")
	}

	ctx := c.Request().Context()
	ua := c.Request().UserAgent()
	if len(ua) > maxUserAgent {
		ua = ua[:maxUserAgent]
	}
	now := h.now().UTC()

	if bot := BotName(ua); bot != "" {
		if err := h.store.SaveBotVisit(ctx, BotVisit{
			BotName:   bot,
			IPHash:    h.store.HashIP(ip),
			UserAgent: ua,
			Path:      req.Path,
			Timestamp: now,
		}); err != nil {
			h.logger.Error("save bot visit failed", "error", err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	browser, os, device := ParseUserAgent(ua)
	if err := h.store.SaveVisit(ctx, Visit{
		VisitorID:   h.store.VisitorID(ip, ua),
		IPHash:      h.store.HashIP(ip),
		Browser:     browser,
		OS:          os,
		Device:      device,
		Path:        req.Path,
		Referrer:    CleanReferrer(req.Referrer, c.Request().Host),
		ScreenWidth: req.ScreenWidth,
		Timestamp:   now,
		DurationSec: int(req.DurationMs / 1000),
	}); err != nil {
		h.logger.Error("save visit failed", "error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats returns aggregates for the last ?days= days (default 7, max 365)
// as JSON.
func (h *Handler) Stats(c echo.Context) error {
	days := 7
	if v := c.QueryParam("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 365 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "days must be between 1 and 365"})
		}
		days = n
	}
	to := truncateDay(h.now().UTC()).AddDate(0, 0, 1)
	from := to.AddDate(0, 0, -days)

	stats, err := h.store.GetStats(c.Request().Context(), from, to)
	if err != nil {
		h.logger.Error("get stats failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
	}
	return c.JSON(http.StatusOK, stats)
}
