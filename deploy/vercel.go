package deploy

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// VercelName is the adapter name in config.Adapter.
const VercelName = "vercel"

// Vercel writes the Build Output API (v3) layout:
// .vercel/output/static for files and .vercel/output/config.json for routing.
type Vercel struct{}

type vercelRoute struct {
	Handle   string            `json:"handle,omitempty"`
	Src      string            `json:"src,omitempty"`
	Dest     string            `json:"dest,omitempty"`
	Status   int               `json:"status,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
	Continue bool              `json:"continue,omitempty"`
}

type vercelConfig struct {
	Version int           `json:"version"`
	Routes  []vercelRoute `json:"routes"`
}

func (Vercel) Name() string { return VercelName }

func (Vercel) OutputDir(root string) string {
	return filepath.Join(root, ".vercel", "output", "static")
}

// Finalize writes config.json. Filesystem hits are served first; anything
// else gets the exported 404 page.
func (Vercel) Finalize(root string) error {
	cfg := vercelConfig{
		Version: 3,
		Routes: []vercelRoute{
			{Src: "^/public/(.*)$", Headers: map[string]string{"Cache-Control": "public, max-age=86400"}, Continue: true},
			{Handle: "filesystem"},
			{Src: "^/(.*)$", Dest: "/404.html", Status: 404},
		},
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(root, ".vercel", "output", "config.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("deploy: write vercel config: %w", err)
	}
	return nil
}
