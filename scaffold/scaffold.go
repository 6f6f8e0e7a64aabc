// Package scaffold writes new blog projects and new post files from
// embedded text/template files.
package scaffold

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"
	"time"
	"unicode/utf8"

	"github.com/Masterminds/sprig/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cherbst/devblog"
	"github.com/cherbst/devblog/content"
	"github.com/cherbst/devblog/env"
)

// Templates contains all scaffold template files.
// Files use Go text/template syntax and have a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS

const projectRoot = "templates/project"

// ErrExists is returned when a scaffold target is already present.
var ErrExists = errors.New("scaffold: target already exists")

// funcs is sprig's text function map plus initial, the first letter of a
// name for the generated favicon.
var funcs = func() template.FuncMap {
	m := sprig.TxtFuncMap()
	m["initial"] = func(s string) string {
		r, _ := utf8.DecodeRuneInString(strings.TrimSpace(s))
		if r == utf8.RuneError {
			return "B"
		}
		return strings.ToUpper(string(r))
	}
	return m
}()

// Project holds the template variables for a new project.
type Project struct {
	Title       string
	Description string
	Author      string
	SiteURL     string
	Date        string
}

// NewProject creates dir and fills it with the project templates. It
// returns the created files relative to dir.
func NewProject(dir string, p Project) ([]string, error) {
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrExists, dir)
	}
	if p.Title == "" {
		p.Title = toTitle(filepath.Base(dir))
	}
	if p.Date == "" {
		p.Date = time.Now().Format(content.DateLayout)
	}
	p.SiteURL = strings.TrimSuffix(p.SiteURL, "/")

	var created []string
	err := fs.WalkDir(Templates, projectRoot, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(name, projectRoot), "/")
		out := filepath.Join(dir, filepath.FromSlash(outputName(rel)))
		if d.IsDir() {
			return os.MkdirAll(out, 0o755)
		}
		data, err := execute(name, p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("scaffold: write %s: %w", out, err)
		}
		created = append(created, filepath.FromSlash(outputName(rel)))
		return nil
	})
	return created, err
}

// outputName strips .tmpl and maps the placeholder names that cannot be
// embedded as dotfiles.
func outputName(rel string) string {
	rel = strings.TrimSuffix(rel, ".tmpl")
	dir, base := path.Split(rel)
	switch base {
	case "dotenv":
		// env.FilePath's layout for the default stage.
		base = filepath.Base(env.FilePath("", env.DefaultStage))
	case "dotkeep":
		base = ".gitkeep"
	}
	return dir + base
}

// Post is the front matter of a new post.
type Post struct {
	Title string
	Date  string
	Tags  []string
}

// NewPost writes a draft post named after its title slug into dir and
// returns the file path.
func NewPost(dir string, p Post) (string, error) {
	p.Title = strings.TrimSpace(p.Title)
	slug := devblog.Slugify(p.Title)
	if slug == "" {
		return "", fmt.Errorf("scaffold: title %q has no usable characters", p.Title)
	}
	if p.Date == "" {
		p.Date = time.Now().Format(content.DateLayout)
	}
	name := filepath.Join(dir, slug+".md")
	if _, err := os.Stat(name); err == nil {
		return "", fmt.Errorf("%w: %s", ErrExists, name)
	}
	data, err := execute("templates/post.md.tmpl", p)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		return "", fmt.Errorf("scaffold: write %s: %w", name, err)
	}
	return name, nil
}

func execute(name string, data any) ([]byte, error) {
	src, err := Templates.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("scaffold: read %s: %w", name, err)
	}
	tmpl, err := template.New(path.Base(name)).Funcs(funcs).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("scaffold: parse %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("scaffold: execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// toTitle converts a hyphenated name to title case: "my-blog" is "My Blog".
func toTitle(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	return cases.Title(language.English).String(strings.Join(parts, " "))
}
