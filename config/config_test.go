package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cherbst/devblog/env"
)

func noProcessEnv(string) (string, bool) { return "", false }

func TestBuildScenarioDefaults(t *testing.T) {
	e := env.FromMap("prd", map[string]string{"BASE_URL": "https://example.com/blog"})

	s := Build(e, ProfileServer)

	assert.Equal(t, "https://example.com/blog", s.Site)
	assert.Equal(t, 3000, s.Port)
	assert.Equal(t, OutputServer, s.Output)
	assert.Equal(t, []string{"sitemap", "utility-css", "components"}, s.Integrations)
	assert.False(t, s.CSS.ApplyBaseStyles)
	assert.Nil(t, s.Adapter)
	assert.False(t, s.Analytics())
}

func TestBuildExplicitPort(t *testing.T) {
	e := env.FromMap("prd", map[string]string{"SERVER_PORT": "8080"})
	assert.Equal(t, 8080, Build(e, ProfileServer).Port)
	assert.Equal(t, ":8080", Build(e, ProfileServer).Addr())
}

func TestBuildStaticProfile(t *testing.T) {
	e := env.FromMap("prd", map[string]string{"BASE_URL": "https://example.com"})

	s := Build(e, ProfileStatic)

	assert.Equal(t, OutputStatic, s.Output)
	require.NotNil(t, s.Adapter)
	assert.Equal(t, "vercel", s.Adapter.Name)
	assert.True(t, s.Analytics())
	assert.True(t, s.Has(IntegrationSitemap))
	assert.False(t, s.Has("unknown"))
}

func TestParsePort(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 3000},
		{"abc", 3000},
		{"8080", 8080},
		{"  4321", 4321},
		{"+81", 81},
		{"8080abc", 8080},
		{"0", 3000},
		{"-1", 3000},
		{"70000", 3000},
		{"0x1F", 3000},
		{"65535", 65535},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParsePort(tt.raw), "ParsePort(%q)", tt.raw)
	}
}

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile("")
	require.NoError(t, err)
	assert.Equal(t, ProfileServer, p)

	p, err = ParseProfile("Static")
	require.NoError(t, err)
	assert.Equal(t, ProfileStatic, p)

	_, err = ParseProfile("edge")
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestOrigin(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://example.com/blog", "https://example.com"},
		{"https://Example.COM:443/a?b=c#d", "https://example.com"},
		{"http://example.com:80", "http://example.com"},
		{"http://localhost:3000/", "http://localhost:3000"},
		{"HTTPS://example.com:8443/x", "https://example.com:8443"},
		{"http://[::1]:8080/", "http://[::1]:8080"},
		{"http://[::1]/", "http://[::1]"},
		{"https://example.com:0443/", "https://example.com"},
		{"http://example.com:080", "http://example.com"},
		{"http://example.com:08080/", "http://example.com:8080"},
		{"https://Bücher.example/", "https://xn--bcher-kva.example"},
		{"http://my_host.internal:3000", "http://my_host.internal:3000"},
	}
	for _, tt := range tests {
		got, err := Origin(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestOriginRejectsUnusableURLs(t *testing.T) {
	for _, raw := range []string{"example.com", "/relative", "mailto:me@example.com", "https://", "%zz", "ftp://example.com", "http://example.com:70000"} {
		_, err := Origin(raw)
		assert.ErrorIs(t, err, ErrInvalidSiteURL, raw)
	}
}

func TestLoadSiteRequiresURL(t *testing.T) {
	_, err := LoadSite(env.FromMap("prd", nil), t.TempDir())
	assert.ErrorIs(t, err, ErrSiteURLMissing)

	_, err = LoadSite(env.FromMap("prd", map[string]string{"SITE": "not a url"}), t.TempDir())
	assert.ErrorIs(t, err, ErrInvalidSiteURL)
}

func TestLoadSitePrefersSiteOverBaseURL(t *testing.T) {
	e := env.FromMap("prd", map[string]string{
		"SITE":     "https://site.example.com/x",
		"BASE_URL": "https://base.example.com",
	})
	site, err := LoadSite(e, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "https://site.example.com", site.URL)
	assert.Equal(t, DefaultTitle, site.Title)
	assert.Equal(t, DefaultDescription, site.Description)
	assert.Equal(t, DefaultAuthor, site.Author)
	assert.NotEmpty(t, site.Nav())
}

func TestLoadSiteReadsSiteFile(t *testing.T) {
	root := t.TempDir()
	body := "title: Notes\nauthor: Someone Else\nnav:\n  - label: Projects\n    href: /projects/\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, SiteFile), []byte(body), 0o644))

	site, err := LoadSite(env.FromMap("prd", map[string]string{"BASE_URL": "https://example.com"}), root)
	require.NoError(t, err)
	assert.Equal(t, "Notes", site.Title)
	assert.Equal(t, "Someone Else", site.Author)
	assert.Equal(t, DefaultDescription, site.Description)
	assert.Equal(t, []NavItem{{Label: "Projects", Href: "/projects/"}}, site.Nav())

	nav := site.Nav()
	nav[0].Label = "changed"
	assert.Equal(t, "Projects", site.Nav()[0].Label)
}

func TestLoadWithMissingEnvFile(t *testing.T) {
	root := t.TempDir()
	lookup := func(key string) (string, bool) {
		if key == "BASE_URL" {
			return "https://example.com/blog", true
		}
		return "", false
	}

	loaded, err := Load(root, ProfileServer, env.WithLookup(lookup))
	require.NoError(t, err)
	assert.False(t, loaded.Env.Loaded())
	assert.Equal(t, 3000, loaded.Settings.Port)
	assert.Equal(t, "https://example.com", loaded.Site.URL)
	assert.Equal(t, filepath.Join(root, "data/blog.db"), loaded.Runtime.DatabasePath)
	assert.Equal(t, 5*time.Minute, loaded.Runtime.PostCacheTTL)
	assert.False(t, loaded.Runtime.AdminEnabled())
}

func TestLoadFromStageFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "env"), 0o755))
	body := "BASE_URL=https://dev.example.com\nSERVER_PORT=4000\nADMIN_PASSWORD=pw\nADMIN_SESSION_SECRET=secret\nDATABASE_PATH=/tmp/x.db\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "env", ".env.dev"), []byte(body), 0o644))

	loaded, err := Load(root, ProfileServer, env.WithStage("dev"), env.WithLookup(noProcessEnv))
	require.NoError(t, err)
	assert.True(t, loaded.Env.Loaded())
	assert.Equal(t, 4000, loaded.Settings.Port)
	assert.Equal(t, "https://dev.example.com", loaded.Settings.Site)
	assert.True(t, loaded.Runtime.AdminEnabled())
	assert.Equal(t, "/tmp/x.db", loaded.Runtime.DatabasePath)
}
