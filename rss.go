package devblog

import (
	"encoding/xml"
	"time"

	"github.com/cherbst/devblog/content"
)

// feedLimit caps the number of items in /feed.xml.
const feedLimit = 20

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Atom    string     `xml:"xmlns:atom,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	AtomLink      atomLink  `xml:"atom:link"`
	Items         []rssItem `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
	GUID        string   `xml:"guid"`
	Categories  []string `xml:"category"`
}

func rssDate(date string) string {
	t, err := time.Parse(content.DateLayout, date)
	if err != nil {
		return ""
	}
	return t.Format(time.RFC1123Z)
}

func (a *App) feed(posts []BlogPost) rssXML {
	base := a.Site.URL
	if len(posts) > feedLimit {
		posts = posts[:feedLimit]
	}
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		postURL := BuildURL(base, "blog", p.Slug)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: p.Summary,
			PubDate:     rssDate(p.Date),
			GUID:        postURL,
			Categories:  p.Tags,
		})
	}
	ch := rssChannel{
		Title:       a.Site.Title,
		Link:        BuildURL(base),
		Description: a.Site.Description,
		Language:    "en",
		AtomLink: atomLink{
			Href: BuildURL(base) + "feed.xml",
			Rel:  "self",
			Type: "application/rss+xml",
		},
		Items: items,
	}
	if len(posts) > 0 {
		ch.LastBuildDate = rssDate(posts[0].LastModified())
	}
	return rssXML{Version: "2.0", Atom: "http://www.w3.org/2005/Atom", Channel: ch}
}
