package views

import (
	"context"
	"time"

	"github.com/a-h/templ"

	"github.com/cherbst/devblog"
	"github.com/cherbst/devblog/config"
	"github.com/cherbst/devblog/state"
	"github.com/cherbst/devblog/views/components"
	"github.com/cherbst/devblog/views/markup"
)

const (
	toggleID            = "drawer-toggle"
	vercelInsightsPath  = "/_vercel/insights/script.js"
	selfHostedAnalytics = "/public/analytics.js"
)

type page struct {
	meta     devblog.PageMeta
	path     string
	jsonLD   string
	noRobots bool
	body     templ.Component
}

// layout wraps body in the document shell: head metadata, top bar, drawer
// and footer. The drawer is rendered closed; each page load starts fresh.
func (r *Renderer) layout(p page) templ.Component {
	return markup.Func(func(ctx context.Context, m *markup.Writer) {
		site := r.opts.Site
		m.Raw("<!DOCTYPE html>")
		m.Open("html", "lang", "en")
		m.Raw("<head>")
		m.Raw(`<meta charset="utf-8">`)
		m.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		m.Element("title", p.meta.Title)
		metaTag(m, "name", "description", p.meta.Description)
		metaTag(m, "name", "author", site.Author)
		if p.noRobots {
			metaTag(m, "name", "robots", "noindex")
		}
		m.Raw(`<link rel="canonical"`)
		m.Attr("href", p.meta.URL)
		m.Raw(">")
		metaTag(m, "property", "og:title", p.meta.Title)
		metaTag(m, "property", "og:description", p.meta.Description)
		metaTag(m, "property", "og:url", p.meta.URL)
		metaTag(m, "property", "og:type", p.meta.OGType)
		metaTag(m, "property", "og:site_name", site.Title)
		if p.meta.Image != "" {
			metaTag(m, "property", "og:image", p.meta.Image)
			metaTag(m, "name", "twitter:card", "summary_large_image")
		} else {
			metaTag(m, "name", "twitter:card", "summary")
		}
		m.Raw(`<link rel="alternate" type="application/rss+xml"`)
		m.Attr("title", site.Title)
		m.Attr("href", devblog.BuildURL(site.URL)+"feed.xml")
		m.Raw(">")
		if r.opts.Settings.Has(config.IntegrationSitemap) {
			m.Raw(`<link rel="sitemap" href="/sitemap-index.xml">`)
		}
		m.Raw(`<link rel="icon" type="image/svg+xml" href="/favicon.svg">`)
		if r.opts.Settings.CSS.ApplyBaseStyles {
			m.Raw(`<link rel="stylesheet" href="/public/base.css">`)
		}
		m.Raw(`<link rel="stylesheet" href="/public/styles.css">`)
		if p.jsonLD != "" {
			// json.Marshal escapes <, > and &, so the payload cannot close the tag.
			m.Raw(`<script type="application/ld+json">` + p.jsonLD + `</script>`)
		}
		m.Raw(`<script src="/public/drawer.js" defer></script>`)
		if r.opts.Settings.Analytics() {
			m.Raw(`<script src="` + vercelInsightsPath + `" defer></script>`)
		}
		if r.opts.SelfHostedAnalytics {
			m.Raw(`<script src="` + selfHostedAnalytics + `" defer></script>`)
		}
		m.Raw("</head>")

		m.Raw("<body>")
		closed := state.Drawer{}
		m.Raw(`<header class="topbar">`)
		m.Component(ctx, components.Hamburger(toggleID, closed))
		m.Component(ctx, components.TopbarContent(site.Title, "/", components.TopbarButton("RSS", "/feed.xml")))
		m.Raw("</header>")

		livePath := ""
		if r.opts.LiveDrawer {
			livePath = devblog.LiveDrawerPath()
		}
		nav := site.Nav()
		items := make([]templ.Component, 0, len(nav))
		for _, item := range nav {
			items = append(items, components.MenuItem(item, item.Href == p.path))
		}
		m.Component(ctx, components.Drawer(closed, toggleID, livePath, items...))

		m.Raw("<main>")
		m.Component(ctx, p.body)
		m.Raw("</main>")

		m.Raw("<footer>")
		m.Text("© " + time.Now().Format("2006") + " " + site.Author)
		m.Raw("</footer>")
		m.Raw("</body></html>")
	})
}

func metaTag(m *markup.Writer, key, name, content string) {
	if content == "" {
		return
	}
	m.Raw("<meta")
	m.Attr(key, name)
	m.Attr("content", content)
	m.Raw(">")
}
