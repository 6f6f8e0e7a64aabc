package devblog

// BlogPost is a post as stored in SQLite and handed to the views.
type BlogPost struct {
	Title          string
	Date           string // YYYY-MM-DD
	Updated        string // YYYY-MM-DD, empty if never updated
	Tags           []string
	Summary        string
	Link           string
	Slug           string
	Content        string // markdown source
	HTML           string // rendered body
	HeroImage      string
	ReadingMinutes int
	Published      bool
}

// LastModified returns Updated, falling back to Date.
func (p BlogPost) LastModified() string {
	if p.Updated != "" {
		return p.Updated
	}
	return p.Date
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
	Image       string
}
