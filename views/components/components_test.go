package components

import (
	"bytes"
	"context"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cherbst/devblog/config"
	"github.com/cherbst/devblog/state"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestTopbarEscapes(t *testing.T) {
	html := render(t, TopbarContent(`<Clay & Co>`, "/", TopbarButton("RSS", "/feed.xml")))
	assert.Contains(t, html, "&lt;Clay &amp; Co&gt;")
	assert.Contains(t, html, `<a class="topbar-button" href="/feed.xml">RSS</a>`)
}

func TestMenuItemMarksActive(t *testing.T) {
	item := config.NavItem{Label: "Blog", Href: "/#blog"}
	assert.Contains(t, render(t, MenuItem(item, true)), `aria-current="page"`)
	assert.NotContains(t, render(t, MenuItem(item, false)), "aria-current")
}

func TestMenuItemSanitizesHref(t *testing.T) {
	html := render(t, MenuItem(config.NavItem{Label: "x", Href: "javascript:alert(1)"}, false))
	assert.Contains(t, html, `href="about:invalid#TemplFailedSanitizationURL"`)
	assert.NotContains(t, html, "javascript")

	html = render(t, TopbarButton("Mail", "mailto:me@example.com"))
	assert.Contains(t, html, `href="mailto:me@example.com"`)
}

func TestDrawerReflectsState(t *testing.T) {
	closed := render(t, Drawer(state.Drawer{}, "toggle", ""))
	assert.Contains(t, closed, `data-visible="false"`)
	assert.Contains(t, closed, " hidden>")
	assert.NotContains(t, closed, "data-live")

	open := render(t, Drawer(state.Drawer{Visible: true}, "toggle", "/live/drawer",
		MenuItem(config.NavItem{Label: "Home", Href: "/"}, false)))
	assert.Contains(t, open, `data-visible="true"`)
	assert.Contains(t, open, `data-live="/live/drawer"`)
	assert.Contains(t, open, `aria-labelledby="toggle"`)
	assert.NotContains(t, open, "hidden")
	assert.Contains(t, open, ">Home</a>")
}

func TestHamburgerControlsDrawer(t *testing.T) {
	html := render(t, Hamburger("drawer-toggle", state.Drawer{}))
	assert.Contains(t, html, `id="drawer-toggle"`)
	assert.Contains(t, html, `aria-controls="`+DrawerID+`"`)
	assert.Contains(t, html, `aria-expanded="false"`)
}

func TestSectionBarOptionalAction(t *testing.T) {
	html := render(t, SectionBar("Blog", "blog", nil))
	assert.Equal(t, `<div class="section-bar" id="blog"><h2>Blog</h2></div>`, html)

	html = render(t, SectionBar("Tagged", "", TopbarButton("All", "/")))
	assert.Contains(t, html, `<a class="topbar-button" href="/">All</a></div>`)
}
