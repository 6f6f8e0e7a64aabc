package views

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/cherbst/devblog"
	"github.com/cherbst/devblog/content"
	"github.com/cherbst/devblog/views/components"
	"github.com/cherbst/devblog/views/markup"
)

// Home lists posts, filtered by activeTag when set.
func (r *Renderer) Home(posts []devblog.BlogPost, activeTag string, tags []devblog.TagCount) templ.Component {
	title, path, desc := "", "/", ""
	if activeTag != "" {
		title = "Posts tagged " + activeTag
		path = "/tags/" + url.PathEscape(activeTag) + "/"
		desc = fmt.Sprintf("%d posts tagged %s.", len(posts), activeTag)
	}
	body := markup.Func(func(ctx context.Context, m *markup.Writer) {
		if activeTag == "" {
			m.Open("section", "class", "intro")
			m.Element("h1", r.opts.Site.Title)
			m.Element("p", r.opts.Site.Description)
			m.Close("section")
		}

		m.Component(ctx, components.SectionBar("Tags", "tags", nil))
		m.Open("div", "class", "tags")
		for _, t := range tags {
			class := "tag"
			if t.Tag == activeTag {
				class += " active"
			}
			m.Element("a", t.Tag+" ("+strconv.Itoa(t.Count)+")", "class", class, "href", "/tags/"+url.PathEscape(t.Tag)+"/")
		}
		m.Close("div")

		heading := "Blog"
		var clear templ.Component
		if activeTag != "" {
			heading = "Tagged: " + activeTag
			clear = components.TopbarButton("All posts", "/")
		}
		m.Component(ctx, components.SectionBar(heading, "blog", clear))
		if len(posts) == 0 {
			m.Element("p", "No posts yet.", "class", "meta")
			return
		}
		m.Open("ul", "class", "post-list")
		for _, p := range posts {
			m.Raw("<li>")
			m.Open("h3")
			m.Element("a", p.Title, "href", p.Link)
			m.Close("h3")
			postMeta(m, p)
			if p.Summary != "" {
				m.Element("p", p.Summary)
			}
			m.Raw("</li>")
		}
		m.Close("ul")
	})
	return r.layout(page{
		meta:   r.meta(title, desc, path, "website"),
		path:   path,
		jsonLD: devblog.WebsiteJSONLD(r.opts.Site),
		body:   body,
	})
}

// Post renders one article with its related posts.
func (r *Renderer) Post(post devblog.BlogPost, related []devblog.BlogPost) templ.Component {
	meta := r.meta(post.Title, post.Summary, post.Link, "article")
	if post.HeroImage != "" {
		meta.Image = devblog.AbsoluteURL(r.opts.Site.URL, post.HeroImage)
	}
	body := markup.Func(func(ctx context.Context, m *markup.Writer) {
		m.Raw("<article>")
		m.Element("h1", post.Title)
		postMeta(m, post)
		if post.HeroImage != "" {
			m.Raw("<img")
			m.Attr("class", "hero")
			m.Attr("src", post.HeroImage)
			m.Attr("alt", "")
			m.Raw(">")
		}
		m.Open("div", "class", "prose")
		// Rendered from the site's own markdown.
		m.Raw(post.HTML)
		m.Close("div")
		m.Raw("</article>")

		if len(related) > 0 {
			m.Component(ctx, components.SectionBar("Related", "related", nil))
			m.Open("ul", "class", "post-list")
			for _, p := range related {
				m.Raw("<li>")
				m.Element("a", p.Title, "href", p.Link)
				m.Raw("</li>")
			}
			m.Close("ul")
		}
	})
	return r.layout(page{
		meta:   meta,
		path:   post.Link,
		jsonLD: devblog.BlogPostingJSONLD(post, r.opts.Site),
		body:   body,
	})
}

func postMeta(m *markup.Writer, p devblog.BlogPost) {
	m.Open("p", "class", "meta")
	m.Raw("<time")
	m.Attr("datetime", p.Date)
	m.Raw(">")
	m.Text(displayDate(p.Date))
	m.Raw("</time>")
	if p.Updated != "" && p.Updated != p.Date {
		m.Text(" · updated " + displayDate(p.Updated))
	}
	m.Text(fmt.Sprintf(" · %d min read", max(p.ReadingMinutes, 1)))
	for _, t := range p.Tags {
		m.Raw(" ")
		m.Element("a", t, "class", "tag", "href", "/tags/"+url.PathEscape(t)+"/")
	}
	m.Close("p")
}

func displayDate(date string) string {
	t, err := time.Parse(content.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Jan 2, 2006")
}

// NotFound is the 404 page.
func (r *Renderer) NotFound() templ.Component {
	return r.errorPage("Page not found", "The page you are looking for does not exist.")
}

// ServerError is the 500 page.
func (r *Renderer) ServerError() templ.Component {
	return r.errorPage("Something went wrong", "An unexpected error occurred. Please try again later.")
}

func (r *Renderer) errorPage(title, message string) templ.Component {
	body := markup.Func(func(_ context.Context, m *markup.Writer) {
		m.Open("section", "class", "error")
		m.Element("h1", title)
		m.Element("p", message)
		m.Element("a", "Back home", "href", "/")
		m.Close("section")
	})
	return r.layout(page{
		meta:     r.meta(title, message, "/", "website"),
		noRobots: true,
		body:     body,
	})
}
