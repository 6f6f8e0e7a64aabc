// Package analytics records privacy-friendly page views: IPs are hashed
// with a per-installation salt and bots are counted separately.
package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
)

// Visit is a single human page view.
type Visit struct {
	VisitorID   string
	IPHash      string
	Browser     string
	OS          string
	Device      string
	Path        string
	Referrer    string
	ScreenWidth int
	Timestamp   time.Time
	DurationSec int
}

// BotVisit is a single crawler page view.
type BotVisit struct {
	BotName   string
	IPHash    string
	UserAgent string
	Path      string
	Timestamp time.Time
}

// Stats holds aggregated analytics for a period.
type Stats struct {
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	UniqueVisitors int             `json:"unique_visitors"`
	TotalViews     int             `json:"total_views"`
	AvgDuration    int             `json:"avg_duration_sec"`
	BotVisits      int             `json:"bot_visits"`
	TopPages       []DimensionStat `json:"top_pages"`
	Browsers       []DimensionStat `json:"browsers"`
	OS             []DimensionStat `json:"os"`
	Devices        []DimensionStat `json:"devices"`
	Referrers      []DimensionStat `json:"referrers"`
	TopBots        []DimensionStat `json:"top_bots"`
	DailyViews     []DailyView     `json:"daily_views"`
}

// DimensionStat is one row of a breakdown.
type DimensionStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DailyView is the number of views on one day.
type DailyView struct {
	Date  string `json:"date"`
	Views int    `json:"views"`
}

func hash(salt string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(salt))
	for _, p := range parts {
		h.Write([]byte{'|'})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// ParseUserAgent extracts browser, OS, and device from a User-Agent string.
func ParseUserAgent(ua string) (browser, os, device string) {
	ua = strings.ToLower(ua)

	// More specific patterns first: Edge and Opera UAs also contain "chrome".
	switch {
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr/"):
		browser = "Opera"
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "chrome"):
		browser = "Chrome"
	case strings.Contains(ua, "safari"):
		browser = "Safari"
	default:
		browser = "Other"
	}

	// Android UAs contain "linux".
	switch {
	case strings.Contains(ua, "windows"):
		os = "Windows"
	case strings.Contains(ua, "android"):
		os = "Android"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		os = "iOS"
	case strings.Contains(ua, "macintosh") || strings.Contains(ua, "mac os"):
		os = "macOS"
	case strings.Contains(ua, "linux"):
		os = "Linux"
	default:
		os = "Other"
	}

	// iPad UAs contain "mobile".
	switch {
	case strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad"):
		device = "Tablet"
	case strings.Contains(ua, "mobile"):
		device = "Mobile"
	default:
		device = "Desktop"
	}
	return
}

var knownBots = []struct{ pattern, name string }{
	{"googlebot", "Googlebot"},
	{"bingbot", "Bingbot"},
	{"duckduckbot", "DuckDuckBot"},
	{"yandex", "Yandex"},
	{"baidu", "Baidu"},
	{"facebookexternalhit", "Facebook"},
	{"twitterbot", "Twitterbot"},
	{"linkedinbot", "LinkedIn"},
	{"ahrefsbot", "Ahrefs"},
	{"semrushbot", "SEMrush"},
	{"gptbot", "GPTBot"},
	{"slurp", "Yahoo Slurp"},
}

var genericBotMarkers = []string{"bot", "crawler", "spider", "crawl", "scrape", "headless"}

// BotName returns the crawler name for ua, or "" for humans.
func BotName(ua string) string {
	ua = strings.ToLower(ua)
	if ua == "" {
		return "Empty UA"
	}
	for _, b := range knownBots {
		if strings.Contains(ua, b.pattern) {
			return b.name
		}
	}
	for _, m := range genericBotMarkers {
		if strings.Contains(ua, m) {
			return "Other Bot"
		}
	}
	return ""
}

var searchEngines = []struct{ marker, name string }{
	{"google.", "Google"},
	{"bing.", "Bing"},
	{"duckduckgo.", "DuckDuckGo"},
	{"yahoo.", "Yahoo"},
	{"github.", "GitHub"},
}

// CleanReferrer reduces a referrer URL to a display name. Referrers from
// selfHost count as direct traffic.
func CleanReferrer(ref, selfHost string) string {
	if ref == "" {
		return "Direct"
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return "Other"
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if selfHost != "" && host == strings.TrimPrefix(strings.ToLower(selfHost), "www.") {
		return "Direct"
	}
	for _, se := range searchEngines {
		if strings.Contains(host, se.marker) {
			return se.name
		}
	}
	return host
}
