// Package content loads blog posts from markdown files with YAML front
// matter and renders them to HTML.
package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	goldmarkmeta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/anchor"
)

// DateLayout is the date format used in front matter and in the store.
const DateLayout = "2006-01-02"

// wordsPerMinute drives ReadingMinutes.
const wordsPerMinute = 200

// Document is one rendered post file.
type Document struct {
	Slug           string
	Title          string
	Description    string
	Date           time.Time
	Updated        time.Time
	Tags           []string
	Draft          bool
	HeroImage      string
	Source         string
	HTML           string
	ReadingMinutes int
	Modified       time.Time
}

// Loader parses and renders markdown posts.
type Loader struct {
	md     goldmark.Markdown
	logger *slog.Logger
}

// NewLoader builds a Loader with GFM, front matter, syntax highlighting and
// heading anchors. A nil logger uses slog.Default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			goldmarkmeta.Meta,
			highlighting.NewHighlighting(
				highlighting.WithStyle("github-dark"),
				highlighting.WithFormatOptions(html.WithClasses(true)),
			),
			&anchor.Extender{Position: anchor.After},
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(htmlrenderer.WithUnsafe()),
	)
	return &Loader{md: md, logger: logger.With("component", "content")}
}

// Parse renders src, taking the slug from the file name.
func (l *Loader) Parse(name string, src []byte) (Document, error) {
	ctx := parser.NewContext()
	var buf bytes.Buffer
	if err := l.md.Convert(src, &buf, parser.WithContext(ctx)); err != nil {
		return Document{}, fmt.Errorf("render %s: %w", name, err)
	}
	meta, err := goldmarkmeta.TryGet(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("front matter %s: %w", name, err)
	}

	doc := Document{
		Slug:   SlugFromPath(name),
		Source: string(src),
		HTML:   buf.String(),
	}
	words, firstPara := textStats(doc.HTML)
	doc.ReadingMinutes = readingMinutes(words)

	for k, v := range meta {
		switch strings.ToLower(k) {
		case "title":
			doc.Title, _ = toString(v)
		case "description", "summary":
			doc.Description, _ = toString(v)
		case "pubdate", "date":
			if doc.Date, err = toDate(v); err != nil {
				return Document{}, fmt.Errorf("%s: %s: %w", name, k, err)
			}
		case "updateddate", "updated":
			if doc.Updated, err = toDate(v); err != nil {
				return Document{}, fmt.Errorf("%s: %s: %w", name, k, err)
			}
		case "tags":
			doc.Tags = toStringSlice(v)
		case "draft":
			doc.Draft, _ = v.(bool)
		case "heroimage", "hero":
			doc.HeroImage, _ = toString(v)
		case "slug":
			if s, ok := toString(v); ok && s != "" {
				doc.Slug = s
			}
		}
	}
	if doc.Title == "" {
		doc.Title = doc.Slug
	}
	if doc.Description == "" {
		doc.Description = excerpt(firstPara)
	}
	return doc, nil
}

// LoadFile reads and renders one markdown file.
func (l *Loader) LoadFile(path string) (Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	doc, err := l.Parse(filepath.Base(path), src)
	if err != nil {
		return Document{}, err
	}
	if info, err := os.Stat(path); err == nil {
		doc.Modified = info.ModTime()
		if doc.Date.IsZero() {
			doc.Date = info.ModTime()
		}
	}
	return doc, nil
}

// LoadDir renders every *.md file under dir/blog, newest first. A missing
// directory yields no documents. Files that fail to parse are skipped and
// logged; duplicate slugs are an error.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]Document, error) {
	root := filepath.Join(dir, "blog")
	var docs []Document
	seen := map[string]string{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsMarkdown(path) {
			return nil
		}
		doc, err := l.LoadFile(path)
		if err != nil {
			l.logger.Warn("skipping post", "path", path, "error", err)
			return nil
		}
		if prev, ok := seen[doc.Slug]; ok {
			return fmt.Errorf("duplicate slug %q in %s and %s", doc.Slug, prev, path)
		}
		seen[doc.Slug] = path
		docs = append(docs, doc)
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Date.Equal(docs[j].Date) {
			return docs[i].Slug < docs[j].Slug
		}
		return docs[i].Date.After(docs[j].Date)
	})
	l.logger.Debug("loaded posts", "dir", root, "count", len(docs))
	return docs, nil
}

// IsMarkdown reports whether path names a markdown file.
func IsMarkdown(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".md" || ext == ".markdown"
}

// SlugFromPath derives a URL slug from a file name.
func SlugFromPath(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	var b strings.Builder
	prev := false
	for _, r := range strings.ToLower(base) {
		switch {
		case unicode.IsLetter(r) && r < unicode.MaxASCII, unicode.IsDigit(r) && r < unicode.MaxASCII:
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

func readingMinutes(words int) int {
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

func toString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return "", false
	}
}

func toStringSlice(v any) []string {
	var out []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	switch vv := v.(type) {
	case []any:
		for _, item := range vv {
			if s, ok := toString(item); ok {
				add(s)
			}
		}
	case []string:
		for _, s := range vv {
			add(s)
		}
	case string:
		for _, s := range strings.Split(vv, ",") {
			add(s)
		}
	}
	return out
}

func toDate(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case string:
		for _, layout := range []string{DateLayout, time.RFC3339, "Jan 02 2006", "January 2, 2006"} {
			if t, err := time.Parse(layout, strings.TrimSpace(val)); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognised date %q", val)
	default:
		return time.Time{}, fmt.Errorf("unrecognised date %v", v)
	}
}
