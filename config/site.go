// Package config builds the two configuration records the site runs on:
// Site, the display metadata rendered into every page, and Settings, the
// server/export settings chosen by a deployment profile. Both are built
// once from an env.Environment and never mutated afterwards.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
	"golang.org/x/net/idna"

	"github.com/cherbst/devblog/env"
)

var (
	// ErrSiteURLMissing means neither SITE nor BASE_URL is set.
	ErrSiteURLMissing = errors.New("config: SITE or BASE_URL is required")
	// ErrInvalidSiteURL means the site URL has no usable origin.
	ErrInvalidSiteURL = errors.New("config: invalid site URL")
)

// Default display metadata.
const (
	DefaultTitle       = "Clayton - Dev"
	DefaultDescription = "Welcome to my blog! I write about modern web development."
	DefaultAuthor      = "Clayton Herbst"
)

// SiteFile is the optional site.yaml next to env/.
const SiteFile = "site.yaml"

// NavItem is one entry of the navigation menu.
type NavItem struct {
	Label string `mapstructure:"label" yaml:"label"`
	Href  string `mapstructure:"href" yaml:"href"`
}

// Site is the global metadata every page renders.
type Site struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Author      string `yaml:"author"`
	URL         string `yaml:"url"` // origin only: scheme://host[:port]

	nav []NavItem
}

// Nav returns a copy of the navigation menu.
func (s Site) Nav() []NavItem {
	return append([]NavItem(nil), s.nav...)
}

var defaultNav = []NavItem{
	{Label: "Home", Href: "/"},
	{Label: "Blog", Href: "/#blog"},
	{Label: "RSS", Href: "/feed.xml"},
}

type siteFile struct {
	Title       string    `mapstructure:"title"`
	Description string    `mapstructure:"description"`
	Author      string    `mapstructure:"author"`
	Nav         []NavItem `mapstructure:"nav"`
}

// SiteURL returns the raw site URL: SITE, falling back to BASE_URL.
func SiteURL(e *env.Environment) string {
	return e.Or("SITE", e.Get("BASE_URL"))
}

// LoadSite builds the Site record. The URL is required; root is the project
// directory that may hold site.yaml.
func LoadSite(e *env.Environment, root string) (Site, error) {
	raw := SiteURL(e)
	if raw == "" {
		return Site{}, ErrSiteURLMissing
	}
	origin, err := Origin(raw)
	if err != nil {
		return Site{}, err
	}

	site := Site{
		Title:       DefaultTitle,
		Description: DefaultDescription,
		Author:      DefaultAuthor,
		URL:         origin,
		nav:         defaultNav,
	}

	overrides, err := readSiteFile(filepath.Join(root, SiteFile))
	if err != nil {
		return Site{}, err
	}
	if overrides.Title != "" {
		site.Title = overrides.Title
	}
	if overrides.Description != "" {
		site.Description = overrides.Description
	}
	if overrides.Author != "" {
		site.Author = overrides.Author
	}
	if len(overrides.Nav) > 0 {
		site.nav = append([]NavItem(nil), overrides.Nav...)
	}
	return site, nil
}

func readSiteFile(path string) (siteFile, error) {
	var out siteFile
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound) {
			return out, nil
		}
		return out, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := v.Unmarshal(&out); err != nil {
		return out, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return out, nil
}

// Origin returns scheme://host[:port] for an absolute http(s) URL, as a
// browser's URL.origin reports it: the scheme is lowercased, domain hosts
// are mapped to their lowercase ASCII (punycode) form, and the port is
// written as a plain number and dropped when it is the scheme default.
func Origin(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSiteURL, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: %q needs an http or https scheme", ErrInvalidSiteURL, raw)
	}
	host, err := asciiHost(u.Hostname())
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidSiteURL, raw, err)
	}
	port := ""
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n > 65535 {
			return "", fmt.Errorf("%w: %q has an invalid port", ErrInvalidSiteURL, raw)
		}
		if (scheme == "http" && n != 80) || (scheme == "https" && n != 443) {
			port = strconv.Itoa(n)
		}
	}
	if port != "" {
		return scheme + "://" + net.JoinHostPort(host, port), nil
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	return scheme + "://" + host, nil
}

// asciiHost lowercases IP literals and converts domain names with the
// IDNA lookup profile. ASCII names the profile rejects (underscores) are
// kept as lowercase text.
func asciiHost(host string) (string, error) {
	if host == "" {
		return "", errors.New("no host")
	}
	if net.ParseIP(host) != nil {
		return strings.ToLower(host), nil
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err == nil {
		return ascii, nil
	}
	for i := 0; i < len(host); i++ {
		if host[i] >= utf8.RuneSelf {
			return "", err
		}
	}
	return strings.ToLower(host), nil
}
