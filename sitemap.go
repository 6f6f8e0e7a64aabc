package devblog

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	sitemapIndexPath   = "/sitemap-index.xml"
	sitemapPagesPath   = "/sitemap-0.xml"
	sitemapNS          = "http://www.sitemaps.org/schemas/sitemap/0.9"
	sitemapContentType = "application/xml; charset=utf-8"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

type sitemapIndexXML struct {
	XMLName  xml.Name       `xml:"sitemapindex"`
	XMLNS    string         `xml:"xmlns,attr"`
	Sitemaps []sitemapEntry `xml:"sitemap"`
}

type sitemapEntry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// sitemap lists the home page, every tag page and every published post.
func (a *App) sitemap(posts []BlogPost, tags []string) sitemapURLSet {
	base := a.Site.URL
	home := sitemapURL{Loc: BuildURL(base)}
	if len(posts) > 0 {
		home.LastMod = posts[0].LastModified()
	}
	urls := []sitemapURL{home}
	for _, t := range tags {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, "tags", t)})
	}
	for _, p := range posts {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "blog", p.Slug),
			LastMod: p.LastModified(),
		})
	}
	return sitemapURLSet{XMLNS: sitemapNS, URLs: urls}
}

// sitemapIndex points at the single pages sitemap. The newest
// modification date among posts becomes its lastmod.
func (a *App) sitemapIndex(posts []BlogPost) sitemapIndexXML {
	entry := sitemapEntry{Loc: strings.TrimSuffix(a.Site.URL, "/") + sitemapPagesPath}
	for _, p := range posts {
		if m := p.LastModified(); m > entry.LastMod {
			entry.LastMod = m
		}
	}
	return sitemapIndexXML{XMLNS: sitemapNS, Sitemaps: []sitemapEntry{entry}}
}

// RobotsTxt allows everything and advertises the sitemap index.
func RobotsTxt(siteURL string) string {
	return fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /admin/\n\nSitemap: %s%s\n", strings.TrimSuffix(siteURL, "/"), sitemapIndexPath)
}
