// Package views renders the blog's pages as templ components.
package views

import (
	"github.com/cherbst/devblog"
	"github.com/cherbst/devblog/config"
)

// Options selects what the layout includes.
type Options struct {
	Site     config.Site
	Settings config.Settings
	// LiveDrawer connects the drawer script to the websocket endpoint.
	LiveDrawer bool
	// SelfHostedAnalytics adds the /public/analytics.js beacon.
	SelfHostedAnalytics bool
}

// Renderer builds pages for one site.
type Renderer struct {
	opts Options
}

// New returns the ViewFuncs for opts.
func New(opts Options) devblog.ViewFuncs {
	r := &Renderer{opts: opts}
	return devblog.ViewFuncs{
		Home:           r.Home,
		Post:           r.Post,
		NotFound:       r.NotFound,
		ServerError:    r.ServerError,
		AdminLogin:     r.AdminLogin,
		AdminDashboard: r.AdminDashboard,
	}
}

// ForApp builds views matching a prepared App's configuration.
func ForApp(site config.Site, settings config.Settings, runtime config.Runtime) devblog.ViewFuncs {
	server := settings.Output == config.OutputServer
	return New(Options{
		Site:                site,
		Settings:            settings,
		LiveDrawer:          server,
		SelfHostedAnalytics: server && runtime.AnalyticsEnabled,
	})
}

func (r *Renderer) meta(title, description, path, ogType string) devblog.PageMeta {
	if description == "" {
		description = r.opts.Site.Description
	}
	full := r.opts.Site.Title
	if title != "" {
		full = title + " | " + r.opts.Site.Title
	}
	return devblog.PageMeta{
		Title:       full,
		Description: description,
		URL:         devblog.AbsoluteURL(devblog.BuildURL(r.opts.Site.URL), path),
		OGType:      ogType,
	}
}
