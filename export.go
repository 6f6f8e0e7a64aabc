package devblog

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/cherbst/devblog/deploy"
)

// notFoundProbe is a path no route serves; its response becomes 404.html.
const notFoundProbe = "/__devblog-not-found__/"

// ExportOptions controls Export.
type ExportOptions struct {
	Dir   string
	Clean bool
}

// ExportResult describes a finished export.
type ExportResult struct {
	Adapter string
	// OutputDir holds the static files (inside Dir for adapters with their
	// own layout).
	OutputDir string
	Pages     int
	Assets    int
}

// Export renders every public route through the Echo handlers and writes
// the responses, the assets and the adapter metadata under opts.Dir.
// Prepare must have been called.
func (a *App) Export(ctx context.Context, opts ExportOptions) (ExportResult, error) {
	if opts.Dir == "" {
		return ExportResult{}, fmt.Errorf("devblog: export dir is required")
	}
	if opts.Clean {
		if err := os.RemoveAll(opts.Dir); err != nil {
			return ExportResult{}, err
		}
	}
	adapter := deploy.ForSettings(a.Settings)
	out := adapter.OutputDir(opts.Dir)
	res := ExportResult{Adapter: adapter.Name(), OutputDir: out}

	routes, err := a.exportRoutes(ctx)
	if err != nil {
		return res, err
	}
	for _, route := range routes {
		body, err := a.fetch(ctx, route, http.StatusOK)
		if err != nil {
			return res, err
		}
		if err := writeFile(filepath.Join(out, exportPath(route)), body); err != nil {
			return res, err
		}
		res.Pages++
	}

	notFound, err := a.fetch(ctx, notFoundProbe, http.StatusNotFound)
	if err != nil {
		return res, err
	}
	if err := writeFile(filepath.Join(out, "404.html"), notFound); err != nil {
		return res, err
	}
	res.Pages++

	n, err := a.exportAssets(out)
	if err != nil {
		return res, err
	}
	res.Assets = n

	if err := adapter.Finalize(opts.Dir); err != nil {
		return res, err
	}
	a.Logger.Info("export complete", "dir", out, "adapter", res.Adapter, "pages", res.Pages, "assets", res.Assets)
	return res, nil
}

// exportRoutes lists the home page, tag pages, posts, sitemaps, feed and
// robots.txt.
func (a *App) exportRoutes(ctx context.Context) ([]string, error) {
	posts, err := a.Cache.ListPosts(ctx, "")
	if err != nil {
		return nil, err
	}
	tags, err := a.Cache.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	routes := []string{"/"}
	for _, t := range tags {
		if r, ok := segmentRoute("/tags/", t); ok {
			routes = append(routes, r)
		}
	}
	for _, p := range posts {
		if r, ok := segmentRoute("/blog/", p.Slug); ok {
			routes = append(routes, r)
		}
	}
	routes = append(routes, sitemapIndexPath, sitemapPagesPath, "/feed.xml", "/robots.txt")
	if a.Server() {
		routes = append(routes, "/sitemap.xml")
	}
	return routes, nil
}

// segmentRoute escapes seg into a directory route under prefix. Segments
// that would leave the prefix once written to disk are skipped.
func segmentRoute(prefix, seg string) (string, bool) {
	if seg == "" || seg == "." || seg == ".." || strings.ContainsAny(seg, `/\`) {
		return "", false
	}
	return prefix + url.PathEscape(seg) + "/", true
}

func (a *App) fetch(ctx context.Context, route string, want int) ([]byte, error) {
	req := httptest.NewRequest(http.MethodGet, route, nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	if rec.Code != want {
		return nil, fmt.Errorf("devblog: export %s: status %d, want %d", route, rec.Code, want)
	}
	return rec.Body.Bytes(), nil
}

// exportPath maps an escaped route to a file: directory routes get
// index.html.
func exportPath(route string) string {
	if raw, err := url.PathUnescape(route); err == nil {
		route = raw
	}
	if strings.HasSuffix(route, "/") {
		return filepath.FromSlash(path.Join(route, "index.html"))
	}
	return filepath.FromSlash(route)
}

func writeFile(name string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return err
	}
	return os.WriteFile(name, data, 0o644)
}

// exportAssets copies the embedded assets and then the static dir into
// out/public, so site files override embedded ones of the same name.
func (a *App) exportAssets(out string) (int, error) {
	public := filepath.Join(out, "public")
	count := 0
	for _, name := range EmbeddedAssetNames() {
		data, err := fs.ReadFile(EmbeddedAssets, "embedded/"+name)
		if err != nil {
			return count, err
		}
		if err := writeFile(filepath.Join(public, name), data); err != nil {
			return count, err
		}
		count++
	}

	static := a.Runtime.StaticDir
	if _, err := os.Stat(static); err != nil {
		return count, nil
	}
	err := filepath.WalkDir(static, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(static, p)
		if err != nil {
			return err
		}
		dst := filepath.Join(public, rel)
		// favicon.svg is also served from the site root.
		if rel == "favicon.svg" {
			if err := copyFile(p, filepath.Join(out, rel)); err != nil {
				return err
			}
		}
		if err := copyFile(p, dst); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
