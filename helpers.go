package devblog

import (
	"encoding/json"
	"net/url"
	"path"
	"strings"

	"github.com/cherbst/devblog/config"
)

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// BuildURL joins a base URL with path segments. The result always ends in
// a slash, including the bare base.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join("/", u.Path, path.Join(pathSegments...))
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

func personLD(name string) map[string]string {
	return map[string]string{"@type": "Person", "name": name}
}

func marshalLD(data map[string]any) string {
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// WebsiteJSONLD returns a JSON-LD WebSite document for the site.
func WebsiteJSONLD(site config.Site) string {
	data := map[string]any{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        site.Title,
		"url":         BuildURL(site.URL),
		"description": site.Description,
	}
	if site.Author != "" {
		data["author"] = personLD(site.Author)
	}
	return marshalLD(data)
}

// BlogPostingJSONLD returns a JSON-LD BlogPosting document for post.
func BlogPostingJSONLD(post BlogPost, site config.Site) string {
	postURL := BuildURL(site.URL, "blog", post.Slug)
	data := map[string]any{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   post.Summary,
		"datePublished": post.Date,
		"dateModified":  post.LastModified(),
		"url":           postURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if site.Author != "" {
		data["author"] = personLD(site.Author)
	}
	if site.Title != "" {
		data["publisher"] = map[string]string{"@type": "Organization", "name": site.Title}
	}
	if post.HeroImage != "" {
		data["image"] = AbsoluteURL(site.URL, post.HeroImage)
	}
	if len(post.Tags) > 0 {
		data["keywords"] = strings.Join(post.Tags, ", ")
	}
	return marshalLD(data)
}

// AbsoluteURL resolves ref (a path or full URL) against base.
func AbsoluteURL(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
