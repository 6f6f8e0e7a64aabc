package content

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const samplePost = `---
title: Building with Go
description: Notes on a small server.
pubDate: 2024-03-02
tags: [go, web]
heroImage: /public/uploads/hero.jpg
---

# Intro

Some **bold** text.

` + "```go\nfunc main() {}\n```\n"

func writePost(t *testing.T, dir, name, body string) {
	t.Helper()
	blog := filepath.Join(dir, "blog")
	if err := os.MkdirAll(blog, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(blog, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestParseFrontMatter(t *testing.T) {
	l := NewLoader(nil)
	doc, err := l.Parse("building-with-go.md", []byte(samplePost))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.Slug != "building-with-go" {
		t.Errorf("Slug = %q", doc.Slug)
	}
	if doc.Title != "Building with Go" {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.Description != "Notes on a small server." {
		t.Errorf("Description = %q", doc.Description)
	}
	if got := doc.Date.Format(DateLayout); got != "2024-03-02" {
		t.Errorf("Date = %q", got)
	}
	if len(doc.Tags) != 2 || doc.Tags[0] != "go" || doc.Tags[1] != "web" {
		t.Errorf("Tags = %v", doc.Tags)
	}
	if doc.HeroImage != "/public/uploads/hero.jpg" {
		t.Errorf("HeroImage = %q", doc.HeroImage)
	}
	if doc.ReadingMinutes != 1 {
		t.Errorf("ReadingMinutes = %d", doc.ReadingMinutes)
	}
}

func TestParseRendersMarkdown(t *testing.T) {
	doc, err := NewLoader(nil).Parse("x.md", []byte(samplePost))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(doc.HTML, "<strong>bold</strong>") {
		t.Errorf("missing bold: %s", doc.HTML)
	}
	if !strings.Contains(doc.HTML, `id="intro"`) {
		t.Errorf("missing heading id: %s", doc.HTML)
	}
	if !strings.Contains(doc.HTML, "chroma") {
		t.Errorf("missing highlighted code: %s", doc.HTML)
	}
	if strings.Contains(doc.HTML, "pubDate") {
		t.Errorf("front matter leaked into HTML: %s", doc.HTML)
	}
}

func TestParseRejectsBadDate(t *testing.T) {
	_, err := NewLoader(nil).Parse("x.md", []byte("---\npubDate: someday\n---\nbody\n"))
	if err == nil {
		t.Fatal("expected date error")
	}
}

func TestParseTitleFallsBackToSlug(t *testing.T) {
	doc, err := NewLoader(nil).Parse("Hello World.md", []byte("just text"))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Slug != "hello-world" || doc.Title != "hello-world" {
		t.Errorf("Slug=%q Title=%q", doc.Slug, doc.Title)
	}
}

func TestLoadDirSortsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "old.md", "---\ntitle: Old\npubDate: 2023-01-01\n---\nold\n")
	writePost(t, dir, "new.md", "---\ntitle: New\npubDate: 2024-06-01\ndraft: true\n---\nnew\n")
	writePost(t, dir, "notes.txt", "ignored")
	writePost(t, dir, "broken.md", "---\npubDate: nope\n---\n")

	docs, err := NewLoader(nil).LoadDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d docs, want 2", len(docs))
	}
	if docs[0].Slug != "new" || docs[1].Slug != "old" {
		t.Errorf("order = %s, %s", docs[0].Slug, docs[1].Slug)
	}
	if !docs[0].Draft {
		t.Error("new should be a draft")
	}
	if docs[0].Modified.IsZero() || docs[0].Modified.After(time.Now().Add(time.Minute)) {
		t.Errorf("Modified = %v", docs[0].Modified)
	}
}

func TestLoadDirMissingDirectory(t *testing.T) {
	docs, err := NewLoader(nil).LoadDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("got %d docs", len(docs))
	}
}

func TestLoadDirDuplicateSlug(t *testing.T) {
	dir := t.TempDir()
	writePost(t, dir, "a.md", "---\nslug: same\n---\n")
	writePost(t, dir, "b.md", "---\nslug: same\n---\n")

	if _, err := NewLoader(nil).LoadDir(context.Background(), dir); err == nil {
		t.Fatal("expected duplicate slug error")
	}
}

func TestSlugFromPath(t *testing.T) {
	tests := map[string]string{
		"Hello World.md":         "hello-world",
		"dir/2024-01-02-post.md": "2024-01-02-post",
		"  --Weird__Name!!.md":   "weird-name",
		"café.md":                "caf",
	}
	for in, want := range tests {
		if got := SlugFromPath(in); got != want {
			t.Errorf("SlugFromPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDescriptionFallsBackToFirstParagraph(t *testing.T) {
	src := "---\ntitle: T\n---\n\n```\nignored code here\n```\n\nFirst *real* paragraph.\n\nSecond one.\n"
	doc, err := NewLoader(nil).Parse("t.md", []byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if doc.Description != "First real paragraph." {
		t.Errorf("Description = %q", doc.Description)
	}
}

func TestReadingMinutesCountsRenderedWords(t *testing.T) {
	body := strings.Repeat("word ", 450)
	doc, err := NewLoader(nil).Parse("long.md", []byte("---\ntitle: Long\n---\n"+body))
	if err != nil {
		t.Fatal(err)
	}
	if doc.ReadingMinutes != 3 {
		t.Errorf("ReadingMinutes = %d, want 3", doc.ReadingMinutes)
	}
}

func TestExcerpt(t *testing.T) {
	short := "A short line."
	if got := excerpt(short); got != short {
		t.Errorf("excerpt(short) = %q", got)
	}
	long := strings.Repeat("lorem ipsum, ", 30)
	got := excerpt(long)
	if n := len([]rune(got)); n > excerptLen+1 {
		t.Errorf("excerpt length %d", n)
	}
	if !strings.HasSuffix(got, "ipsum…") && !strings.HasSuffix(got, "lorem…") {
		t.Errorf("excerpt = %q", got)
	}
}
