package devblog

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
)

const relatedPostLimit = 3

func (a *App) handleHome(c echo.Context) error {
	return a.renderHome(c, c.QueryParam("tag"))
}

func (a *App) handleTag(c echo.Context) error {
	tag := normalizeTag(c.Param("tag"))
	posts, err := a.Cache.ListPosts(c.Request().Context(), tag)
	if err != nil {
		return err
	}
	if len(posts) == 0 {
		return echo.ErrNotFound
	}
	return a.renderHome(c, tag)
}

func (a *App) renderHome(c echo.Context, tag string) error {
	ctx := c.Request().Context()
	posts, err := a.Cache.ListPosts(ctx, tag)
	if err != nil {
		return err
	}
	tags, err := a.Cache.TagCounts(ctx)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(posts, normalizeTag(tag), tags))
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := a.Cache.GetPost(ctx, c.Param("slug"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return echo.ErrNotFound
		}
		return err
	}
	related, err := a.Cache.Related(ctx, post, relatedPostLimit)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Post(post, related))
}

func (a *App) handleSitemapIndex(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return renderXML(c, sitemapContentType, a.sitemapIndex(posts))
}

func (a *App) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()
	posts, err := a.Cache.ListPosts(ctx, "")
	if err != nil {
		return err
	}
	tags, err := a.Cache.ListTags(ctx)
	if err != nil {
		return err
	}
	return renderXML(c, sitemapContentType, a.sitemap(posts, tags))
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context(), "")
	if err != nil {
		return err
	}
	return renderXML(c, "application/rss+xml; charset=utf-8", a.feed(posts))
}

func handleBlogRedirect(c echo.Context) error {
	return c.Redirect(http.StatusMovedPermanently, "/")
}

func (a *App) handleFavicon(c echo.Context) error {
	path := filepath.Join(a.Runtime.StaticDir, "favicon.svg")
	if _, err := os.Stat(path); err != nil {
		return echo.ErrNotFound
	}
	return c.File(path)
}

// handleRobots serves <static>/robots.txt when present and otherwise
// generates one pointing at the sitemap index.
func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.Runtime.StaticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	return c.String(http.StatusOK, RobotsTxt(a.Site.URL))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", "method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
