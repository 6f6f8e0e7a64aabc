package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cherbst/devblog/env"
)

// DefaultPort is used whenever SERVER_PORT is absent or unusable.
const DefaultPort = 3000

// ErrUnknownProfile is returned by ParseProfile.
var ErrUnknownProfile = errors.New("config: unknown profile")

// Output is the rendering mode.
type Output string

const (
	OutputServer Output = "server"
	OutputStatic Output = "static"
)

// Integration identifiers, in the order they are declared.
const (
	IntegrationSitemap    = "sitemap"
	IntegrationUtilityCSS = "utility-css"
	IntegrationComponents = "components"
)

// Profile selects one of the versioned configuration variants.
type Profile string

const (
	ProfileServer Profile = "server"
	ProfileStatic Profile = "static"
)

// ParseProfile maps a profile name to a Profile.
func ParseProfile(name string) (Profile, error) {
	switch Profile(strings.ToLower(strings.TrimSpace(name))) {
	case "", ProfileServer:
		return ProfileServer, nil
	case ProfileStatic:
		return ProfileStatic, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
}

// CSSOptions configures the utility CSS integration.
type CSSOptions struct {
	// ApplyBaseStyles adds the bundled reset. Off: the site ships its own.
	ApplyBaseStyles bool `yaml:"apply_base_styles"`
}

// Adapter names the deployment adapter of a static build.
type Adapter struct {
	Name      string `yaml:"name"`
	Analytics bool   `yaml:"analytics"`
}

// Settings is the server/export configuration.
type Settings struct {
	Site         string     `yaml:"site"`
	Port         int        `yaml:"port"`
	Output       Output     `yaml:"output"`
	Integrations []string   `yaml:"integrations"`
	CSS          CSSOptions `yaml:"css"`
	Adapter      *Adapter   `yaml:"adapter,omitempty"`
}

// Has reports whether integration is enabled.
func (s Settings) Has(integration string) bool {
	for _, i := range s.Integrations {
		if i == integration {
			return true
		}
	}
	return false
}

// Analytics reports whether the adapter asks for hosted analytics.
func (s Settings) Analytics() bool {
	return s.Adapter != nil && s.Adapter.Analytics
}

// Build derives Settings from the environment for profile.
func Build(e *env.Environment, profile Profile) Settings {
	s := Settings{
		Site:   e.Get("BASE_URL"),
		Port:   ParsePort(e.Get("SERVER_PORT")),
		Output: OutputServer,
		Integrations: []string{
			IntegrationSitemap,
			IntegrationUtilityCSS,
			IntegrationComponents,
		},
		CSS: CSSOptions{ApplyBaseStyles: false},
	}
	if profile == ProfileStatic {
		s.Output = OutputStatic
		s.Adapter = &Adapter{Name: "vercel", Analytics: true}
	}
	return s
}

// ParsePort reads the leading base-10 integer of raw, ignoring leading
// whitespace and trailing garbage ("8080abc" is 8080). No digits, zero,
// negative or out-of-range values give DefaultPort. Numbers above 65535
// are not passed through as parseInt would: they cannot be listened on,
// so they fall back like any other unusable value.
func ParsePort(raw string) int {
	s := strings.TrimLeft(raw, " \t\n\r\v\f")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		digits++
		if n > 65535 {
			return DefaultPort
		}
	}
	if digits == 0 || neg || n == 0 {
		return DefaultPort
	}
	return n
}

// Addr is the listen address for Port.
func (s Settings) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
