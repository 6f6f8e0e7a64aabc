package views

import (
	"context"

	"github.com/a-h/templ"

	"github.com/cherbst/devblog"
	"github.com/cherbst/devblog/views/components"
	"github.com/cherbst/devblog/views/markup"
)

func csrfField(m *markup.Writer, token string) {
	m.Raw(`<input type="hidden" name="_csrf"`)
	m.Attr("value", token)
	m.Raw(">")
}

// AdminLogin is the password form.
func (r *Renderer) AdminLogin(showError bool, csrfToken string) templ.Component {
	body := markup.Func(func(_ context.Context, m *markup.Writer) {
		m.Element("h1", "Admin")
		if showError {
			m.Element("p", "Invalid password.", "class", "error", "role", "alert")
		}
		m.Open("form", "method", "post", "action", "/admin/login/")
		csrfField(m, csrfToken)
		m.Raw(`<label for="password">Password</label>`)
		m.Raw(`<input id="password" name="password" type="password" autocomplete="current-password" required>`)
		m.Raw(`<button type="submit">Log in</button>`)
		m.Close("form")
	})
	return r.layout(page{
		meta:     r.meta("Admin", "", "/admin/", "website"),
		path:     "/admin/",
		noRobots: true,
		body:     body,
	})
}

// AdminDashboard lists every post with publish toggles.
func (r *Renderer) AdminDashboard(posts []devblog.BlogPost, message, csrfToken string) templ.Component {
	body := markup.Func(func(ctx context.Context, m *markup.Writer) {
		m.Element("h1", "Dashboard")
		if message != "" {
			m.Element("p", message, "class", "notice", "role", "status")
		}

		sync := markup.Func(func(_ context.Context, m *markup.Writer) {
			m.Open("form", "method", "post", "action", "/admin/sync/")
			csrfField(m, csrfToken)
			m.Raw(`<button type="submit">Resync content</button>`)
			m.Close("form")
		})
		m.Component(ctx, components.SectionBar("Posts", "posts", sync))

		m.Open("table", "class", "admin-posts")
		m.Raw("<thead><tr><th>Title</th><th>Date</th><th>Status</th><th></th></tr></thead><tbody>")
		for _, p := range posts {
			m.Raw("<tr>")
			m.Raw("<td>")
			if p.Published {
				m.Element("a", p.Title, "href", p.Link)
			} else {
				m.Text(p.Title)
			}
			m.Raw("</td>")
			m.Element("td", p.Date)
			status, action := "Draft", "Publish"
			if p.Published {
				status, action = "Published", "Unpublish"
			}
			m.Element("td", status)
			m.Raw("<td>")
			m.Open("form", "method", "post", "action", "/admin/post/"+p.Slug+"/publish/")
			csrfField(m, csrfToken)
			m.Element("button", action, "type", "submit")
			m.Close("form")
			m.Raw("</td>")
			m.Raw("</tr>")
		}
		m.Raw("</tbody>")
		m.Close("table")

		m.Open("form", "method", "post", "action", "/admin/logout/")
		csrfField(m, csrfToken)
		m.Raw(`<button type="submit">Log out</button>`)
		m.Close("form")
	})
	return r.layout(page{
		meta:     r.meta("Dashboard", "", "/admin/", "website"),
		path:     "/admin/",
		noRobots: true,
		body:     body,
	})
}
