// Package devblog is a personal blog engine built with Echo, templ and
// SQLite. Posts are markdown files synced into the store at startup; the
// same handlers serve them live or export them to a static directory.
//
// Templates are supplied through ViewFuncs so the views package can import
// this one without a cycle.
package devblog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/cherbst/devblog/analytics"
	"github.com/cherbst/devblog/config"
	"github.com/cherbst/devblog/content"
	"github.com/cherbst/devblog/limiter"
)

// ViewFuncs holds the templ components the handlers render.
type ViewFuncs struct {
	Home           func(posts []BlogPost, activeTag string, tags []TagCount) templ.Component
	Post           func(post BlogPost, related []BlogPost) templ.Component
	NotFound       func() templ.Component
	ServerError    func() templ.Component
	AdminLogin     func(showError bool, csrfToken string) templ.Component
	AdminDashboard func(posts []BlogPost, message string, csrfToken string) templ.Component
}

// App wires the store, cache, handlers and middleware together.
type App struct {
	Site     config.Site
	Settings config.Settings
	Runtime  config.Runtime
	Echo     *echo.Echo
	Store    *Store
	Cache    *PostCache
	Views    ViewFuncs
	Logger   *slog.Logger

	loader           *content.Loader
	loginLimiter     *limiter.Limiter
	analyticsStore   *analytics.Store
	analyticsHandler *analytics.Handler
	stopCleanup      func()
	customRoutes     []func(*App)
	loginMax         int
	loginWindow      time.Duration
	shutdownTimeout  time.Duration

	syncMu sync.Mutex
}

// New creates an App from the resolved configuration. Call Prepare before
// serving or exporting.
func New(cfg *config.Loaded, views ViewFuncs, opts ...Option) *App {
	a := &App{
		Site:            cfg.Site,
		Settings:        cfg.Settings,
		Runtime:         cfg.Runtime,
		Echo:            echo.New(),
		Views:           views,
		Logger:          slog.Default(),
		loginMax:        5,
		loginWindow:     time.Minute,
		shutdownTimeout: 10 * time.Second,
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	a.loader = content.NewLoader(a.Logger)
	return a
}

// Server reports whether the app runs in the server profile.
func (a *App) Server() bool {
	return a.Settings.Output == config.OutputServer
}

// adminEnabled gates the admin routes: server output with both credentials.
func (a *App) adminEnabled() bool {
	return a.Server() && a.Runtime.AdminEnabled()
}

// Prepare opens the store, syncs content, and registers middleware and
// routes.
func (a *App) Prepare(ctx context.Context) error {
	store, err := NewStore(a.Runtime.DatabasePath)
	if err != nil {
		return fmt.Errorf("devblog: init store: %w", err)
	}
	a.Store = store
	a.Cache = NewPostCache(a.Store, a.Runtime.PostCacheTTL)

	if _, err := a.Resync(ctx); err != nil {
		return err
	}

	if a.adminEnabled() {
		a.loginLimiter = limiter.New(a.loginMax, a.loginWindow)
	}

	if a.Server() && a.Runtime.AnalyticsEnabled {
		as, err := analytics.NewStore(a.Runtime.AnalyticsDatabasePath)
		if err != nil {
			return fmt.Errorf("devblog: init analytics: %w", err)
		}
		a.analyticsStore = as
		if err := analytics.InitSalt(ctx, as); err != nil {
			return fmt.Errorf("devblog: init analytics salt: %w", err)
		}
		a.stopCleanup = as.StartCleanupScheduler(365, 24*time.Hour, a.Logger)
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Resync reloads the content directory into the store and optimizes
// images. Concurrent calls are serialized.
func (a *App) Resync(ctx context.Context) (SyncResult, error) {
	a.syncMu.Lock()
	defer a.syncMu.Unlock()

	docs, err := a.loader.LoadDir(ctx, a.Runtime.ContentDir)
	if err != nil {
		return SyncResult{}, fmt.Errorf("devblog: load content: %w", err)
	}
	posts := make([]BlogPost, 0, len(docs))
	for _, d := range docs {
		posts = append(posts, postFromDocument(d))
	}
	res, err := a.Store.SyncPosts(ctx, posts)
	if err != nil {
		return res, fmt.Errorf("devblog: sync posts: %w", err)
	}
	a.Cache.Invalidate()

	if _, err := OptimizeImages(ctx, imagesDir(a.Runtime.ContentDir), uploadsDir(a.Runtime.StaticDir), a.Logger); err != nil {
		a.Logger.Warn("image optimization failed", "error", err)
	}
	a.Logger.Info("content synced", "posts", res.Upserted, "removed", res.Removed)
	return res, nil
}

func postFromDocument(d content.Document) BlogPost {
	p := BlogPost{
		Title:          d.Title,
		Date:           d.Date.Format(content.DateLayout),
		Tags:           d.Tags,
		Summary:        d.Description,
		Slug:           d.Slug,
		Link:           "/blog/" + d.Slug + "/",
		Content:        d.Source,
		HTML:           d.HTML,
		HeroImage:      d.HeroImage,
		ReadingMinutes: d.ReadingMinutes,
		Published:      !d.Draft,
	}
	if !d.Updated.IsZero() {
		p.Updated = d.Updated.Format(content.DateLayout)
	}
	return p
}

// Start serves HTTP on Settings.Addr until ctx is cancelled, then shuts
// down gracefully.
func (a *App) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		a.Logger.Info("listening", "addr", a.Settings.Addr(), "site", a.Site.URL, "output", a.Settings.Output)
		errc <- a.Echo.Start(a.Settings.Addr())
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()
	a.Logger.Info("shutting down")
	if err := a.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("devblog: shutdown: %w", err)
	}
	return nil
}

// Close releases the stores and background workers.
func (a *App) Close() error {
	if a.stopCleanup != nil {
		a.stopCleanup()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.analyticsHandler != nil {
		a.analyticsHandler.Close()
	}
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.analyticsStore != nil {
		errs = append(errs, a.analyticsStore.Close())
	}
	return errors.Join(errs...)
}
