// Package deploy lays out exported sites for their hosting target and
// uploads them.
package deploy

import (
	"github.com/cherbst/devblog/config"
)

// Adapter shapes an export directory for a hosting platform.
type Adapter interface {
	// Name identifies the adapter in logs and config output.
	Name() string
	// OutputDir is where the static files go, given the export root.
	OutputDir(root string) string
	// Finalize writes any platform metadata once the files are in place.
	Finalize(root string) error
}

// ForSettings returns the adapter named by s, or Plain when none is set.
func ForSettings(s config.Settings) Adapter {
	if s.Adapter != nil && s.Adapter.Name == VercelName {
		return Vercel{}
	}
	return Plain{}
}

// Plain writes files straight into the export root.
type Plain struct{}

func (Plain) Name() string                 { return "plain" }
func (Plain) OutputDir(root string) string { return root }
func (Plain) Finalize(string) error        { return nil }
