package devblog

import (
	"embed"
	"io/fs"
	"sort"
)

// EmbeddedAssets contains the assets shipped with the engine: the drawer
// script, the site stylesheet, the optional base reset and the analytics
// beacon.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

// EmbeddedAssetNames lists the embedded files, sorted.
func EmbeddedAssetNames() []string {
	entries, _ := fs.ReadDir(EmbeddedAssets, "embedded")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}
