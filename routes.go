package devblog

import (
	"io/fs"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cherbst/devblog/analytics"
)

func (a *App) setupRoutes() {
	e := a.Echo

	// Embedded assets are served under /public/ ahead of the user's
	// static dir so a site can still override them by path.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS))))
	for _, name := range EmbeddedAssetNames() {
		e.GET("/public/"+name, embeddedHandler)
	}
	e.Static("/public", a.Runtime.StaticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)

	e.GET(sitemapIndexPath, a.handleSitemapIndex)
	e.GET(sitemapPagesPath, a.handleSitemap)
	if a.Server() {
		e.GET("/sitemap.xml", a.handleSitemap)
	}
	e.GET("/feed.xml", a.handleFeed)

	e.GET("/", a.handleHome)
	e.GET("/tags/:tag/", a.handleTag)
	e.GET("/blog", handleBlogRedirect)
	e.GET("/blog/:slug/", a.handlePost)

	if a.Server() {
		e.GET(liveDrawerPath, a.handleLiveDrawer)
	}

	if a.adminEnabled() {
		e.GET("/admin/", a.handleAdmin)
		e.POST("/admin/login/", a.handleAdminLogin)
		e.POST("/admin/logout/", handleAdminLogout)
		e.POST("/admin/post/:slug/publish/", a.handleAdminPublish)
		e.POST("/admin/sync/", a.handleAdminSync)
	}

	if a.analyticsStore != nil {
		h := analytics.NewHandler(a.analyticsStore, a.Logger)
		a.analyticsHandler = h
		e.POST("/api/analytics/collect", h.Collect)
		e.GET("/admin/analytics/stats", h.Stats, a.requireAdmin)
	}
}
