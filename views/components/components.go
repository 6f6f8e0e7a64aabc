// Package components is the single import point for the site's UI
// building blocks: the top bar, section headings, the navigation drawer
// and its toggle.
package components

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	"github.com/cherbst/devblog/config"
	"github.com/cherbst/devblog/state"
	"github.com/cherbst/devblog/views/markup"
)

// DrawerID is the element id of the navigation drawer.
const DrawerID = "nav-drawer"

// TopbarButton is a bordered link in the top bar.
func TopbarButton(label, href string) templ.Component {
	return markup.Func(func(_ context.Context, m *markup.Writer) {
		m.Element("a", label, "class", "topbar-button", "href", href)
	})
}

// TopbarContent is the right-hand side of the top bar: the site title
// linking home, followed by any buttons.
func TopbarContent(title, homeHref string, buttons ...templ.Component) templ.Component {
	return markup.Func(func(ctx context.Context, m *markup.Writer) {
		m.Open("div", "class", "topbar-content")
		m.Element("a", title, "class", "site-title", "href", homeHref)
		for _, b := range buttons {
			m.Component(ctx, b)
		}
		m.Close("div")
	})
}

// SectionBar is a titled divider. action, if not nil, renders on the right.
func SectionBar(title, id string, action templ.Component) templ.Component {
	return markup.Func(func(ctx context.Context, m *markup.Writer) {
		if id != "" {
			m.Open("div", "class", "section-bar", "id", id)
		} else {
			m.Open("div", "class", "section-bar")
		}
		m.Element("h2", title)
		m.Component(ctx, action)
		m.Close("div")
	})
}

// MenuItem is one drawer link. The active item is marked aria-current.
func MenuItem(item config.NavItem, active bool) templ.Component {
	return markup.Func(func(_ context.Context, m *markup.Writer) {
		m.Raw("<a")
		m.Attr("class", "menu-item")
		m.Attr("href", item.Href)
		if active {
			m.Attr("aria-current", "page")
		}
		m.Raw(">")
		m.Text(item.Label)
		m.Close("a")
	})
}

// Drawer is the navigation drawer for state d. toggleID names the control
// that opens it. livePath, when set, is the websocket endpoint the drawer
// script syncs through; otherwise the script toggles locally.
func Drawer(d state.Drawer, toggleID, livePath string, items ...templ.Component) templ.Component {
	return markup.Func(func(ctx context.Context, m *markup.Writer) {
		m.Raw("<nav")
		m.Attr("id", DrawerID)
		m.Attr("class", "drawer")
		m.Attr("aria-labelledby", toggleID)
		m.Attr("data-visible", strconv.FormatBool(d.Visible))
		if livePath != "" {
			m.Attr("data-live", livePath)
		}
		m.AttrIf("hidden", !d.Visible)
		m.Raw(">")
		for _, item := range items {
			m.Component(ctx, item)
		}
		m.Close("nav")
	})
}

// Hamburger is the button that toggles the drawer.
func Hamburger(id string, d state.Drawer) templ.Component {
	return markup.Func(func(_ context.Context, m *markup.Writer) {
		m.Open("button",
			"id", id,
			"type", "button",
			"class", "hamburger",
			"aria-controls", DrawerID,
			"aria-expanded", strconv.FormatBool(d.Visible),
			"aria-label", "Menu",
		)
		m.Raw("<span></span><span></span><span></span>")
		m.Close("button")
	})
}
