package config

import (
	"path/filepath"
	"time"

	"github.com/cherbst/devblog/env"
)

// Runtime holds the operational settings read from the environment: file
// locations, admin credentials and cache timing.
type Runtime struct {
	Root                  string        `yaml:"root"`
	DatabasePath          string        `yaml:"database_path"`
	ContentDir            string        `yaml:"content_dir"`
	StaticDir             string        `yaml:"static_dir"`
	AdminPassword         string        `yaml:"-"`
	SessionSecret         string        `yaml:"-"`
	CookieSecure          bool          `yaml:"cookie_secure"`
	PostCacheTTL          time.Duration `yaml:"post_cache_ttl"`
	AnalyticsEnabled      bool          `yaml:"analytics_enabled"`
	AnalyticsDatabasePath string        `yaml:"analytics_database_path"`
	S3Bucket              string        `yaml:"s3_bucket,omitempty"`
	S3Prefix              string        `yaml:"s3_prefix,omitempty"`
	S3Endpoint            string        `yaml:"s3_endpoint,omitempty"`
	S3AccessKeyID         string        `yaml:"-"`
	S3SecretAccessKey     string        `yaml:"-"`
}

// AdminEnabled reports whether both admin credentials are configured.
func (r Runtime) AdminEnabled() bool {
	return r.AdminPassword != "" && r.SessionSecret != ""
}

// LoadRuntime reads Runtime from e. Relative paths are resolved against root.
func LoadRuntime(e *env.Environment, root string) Runtime {
	at := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(root, p)
	}
	return Runtime{
		Root:                  root,
		DatabasePath:          at(e.Or("DATABASE_PATH", "data/blog.db")),
		ContentDir:            at(e.Or("CONTENT_DIR", "content")),
		StaticDir:             at(e.Or("STATIC_DIR", "public")),
		AdminPassword:         e.Get("ADMIN_PASSWORD"),
		SessionSecret:         e.Get("ADMIN_SESSION_SECRET"),
		CookieSecure:          e.Bool("COOKIE_SECURE", false),
		PostCacheTTL:          e.Duration("POST_CACHE_TTL", 5*time.Minute),
		AnalyticsEnabled:      e.Bool("ANALYTICS", false),
		AnalyticsDatabasePath: at(e.Or("ANALYTICS_DATABASE_PATH", "data/analytics.db")),
		S3Bucket:              e.Get("S3_BUCKET"),
		S3Prefix:              e.Get("S3_PREFIX"),
		S3Endpoint:            e.Get("S3_ENDPOINT"),
		S3AccessKeyID:         e.Get("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:     e.Get("S3_SECRET_ACCESS_KEY"),
	}
}

// Loaded bundles everything resolved at startup.
type Loaded struct {
	Env      *env.Environment
	Site     Site
	Settings Settings
	Runtime  Runtime
}

// Load resolves the stage environment under root and builds all records.
// Only a missing or invalid site URL is fatal.
func Load(root string, profile Profile, opts ...env.Option) (*Loaded, error) {
	e, err := env.Load(append([]env.Option{env.WithRoot(root)}, opts...)...)
	if err != nil {
		return nil, err
	}
	site, err := LoadSite(e, root)
	if err != nil {
		return nil, err
	}
	return &Loaded{
		Env:      e,
		Site:     site,
		Settings: Build(e, profile),
		Runtime:  LoadRuntime(e, root),
	}, nil
}
