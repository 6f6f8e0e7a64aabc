package devblog

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "blog.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func samplePosts() []BlogPost {
	return []BlogPost{
		{Slug: "first-post", Title: "First Post", Date: "2024-01-01", Tags: []string{"Go", "web"}, Summary: "First", Content: "# First", HTML: "<h1>First</h1>", Published: true},
		{Slug: "second-post", Title: "Second Post", Date: "2024-02-01", Tags: []string{"go"}, Summary: "Second", Content: "# Second", HTML: "<h1>Second</h1>", Published: true},
		{Slug: "draft-post", Title: "Draft", Date: "2024-03-01", Tags: []string{"rust"}, Content: "wip", Published: false},
	}
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	for _, p := range samplePosts() {
		if err := s.SavePost(context.Background(), p); err != nil {
			t.Fatalf("SavePost(%s) failed: %v", p.Slug, err)
		}
	}
}

func TestSaveAndGetPost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seed(t, s)

	got, err := s.GetPost(ctx, "first-post")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "First Post" || got.HTML != "<h1>First</h1>" {
		t.Errorf("unexpected post: %+v", got)
	}
	if got.Link != "/blog/first-post/" {
		t.Errorf("Link = %q", got.Link)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "go" {
		t.Errorf("tags not normalized: %v", got.Tags)
	}
	if got.ReadingMinutes != 1 {
		t.Errorf("ReadingMinutes = %d, want clamp to 1", got.ReadingMinutes)
	}
}

func TestGetPostHidesDrafts(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seed(t, s)

	if _, err := s.GetPost(ctx, "draft-post"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("GetPost(draft) err = %v, want ErrNoRows", err)
	}
	p, err := s.GetPostAny(ctx, "draft-post")
	if err != nil || p.Published {
		t.Fatalf("GetPostAny = %+v, %v", p, err)
	}
}

func TestListPostsOrderAndTagFilter(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seed(t, s)

	tests := []struct {
		tag  string
		want []string
	}{
		{"", []string{"second-post", "first-post"}},
		{"go", []string{"second-post", "first-post"}},
		{"GO", []string{"second-post", "first-post"}},
		{"web", []string{"first-post"}},
		{"rust", nil},
		{"missing", nil},
	}
	for _, tt := range tests {
		posts, err := s.ListPosts(ctx, tt.tag)
		if err != nil {
			t.Fatalf("ListPosts(%q) failed: %v", tt.tag, err)
		}
		var got []string
		for _, p := range posts {
			got = append(got, p.Slug)
		}
		if len(got) != len(tt.want) {
			t.Errorf("ListPosts(%q) = %v, want %v", tt.tag, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("ListPosts(%q) = %v, want %v", tt.tag, got, tt.want)
				break
			}
		}
	}
}

func TestListTagsSkipsDrafts(t *testing.T) {
	s := setupTestStore(t)
	seed(t, s)

	tags, err := s.ListTags(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(tags) != 2 || tags[0] != "go" || tags[1] != "web" {
		t.Errorf("ListTags = %v", tags)
	}
}

func TestSetPublished(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seed(t, s)

	if err := s.SetPublished(ctx, "draft-post", true); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetPost(ctx, "draft-post"); err != nil {
		t.Errorf("published draft not visible: %v", err)
	}
	if err := s.SetPublished(ctx, "nope", true); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("SetPublished(missing) err = %v", err)
	}
}

func TestSyncPostsReplacesContent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seed(t, s)

	next := []BlogPost{
		{Slug: "first-post", Title: "First (edited)", Date: "2024-01-01", Published: true},
		{Slug: "third-post", Title: "Third", Date: "2024-04-01", Published: true},
	}
	res, err := s.SyncPosts(ctx, next)
	if err != nil {
		t.Fatalf("SyncPosts failed: %v", err)
	}
	if res.Upserted != 2 || res.Removed != 2 {
		t.Errorf("SyncResult = %+v", res)
	}
	all, err := s.ListAllPosts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[0].Slug != "third-post" || all[1].Title != "First (edited)" {
		t.Errorf("after sync = %+v", all)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blog.db")
	s, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SavePost(context.Background(), samplePosts()[0]); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = NewStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	if _, err := s.GetPost(context.Background(), "first-post"); err != nil {
		t.Errorf("post lost after reopen: %v", err)
	}
}

func TestPostCache(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seed(t, s)
	c := NewPostCache(s, time.Hour)

	posts, err := c.ListPosts(ctx, "Web")
	if err != nil || len(posts) != 1 {
		t.Fatalf("ListPosts(Web) = %v, %v", posts, err)
	}
	counts, err := c.TagCounts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 2 || counts[0] != (TagCount{"go", 2}) {
		t.Errorf("TagCounts = %v", counts)
	}

	// Writes are invisible until Invalidate.
	if err := s.DeletePost(ctx, "first-post"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetPost(ctx, "first-post"); err != nil {
		t.Errorf("cached post missing before invalidate: %v", err)
	}
	c.Invalidate()
	if _, err := c.GetPost(ctx, "first-post"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPost after invalidate err = %v", err)
	}
}

func TestPostCacheRelated(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seed(t, s)
	if err := s.SavePost(ctx, BlogPost{Slug: "web-only", Title: "W", Date: "2024-05-01", Tags: []string{"web"}, Published: true}); err != nil {
		t.Fatal(err)
	}
	c := NewPostCache(s, time.Hour)

	first, err := c.GetPost(ctx, "first-post")
	if err != nil {
		t.Fatal(err)
	}
	related, err := c.Related(ctx, first, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(related) != 2 || related[0].Slug != "web-only" || related[1].Slug != "second-post" {
		t.Errorf("Related = %+v", related)
	}
}

func TestParseTags(t *testing.T) {
	tests := map[string][]string{
		"":           nil,
		",,":         nil,
		",go,":       {"go"},
		",go, web ,": {"go", "web"},
	}
	for in, want := range tests {
		got := ParseTags(in)
		if len(got) != len(want) {
			t.Errorf("ParseTags(%q) = %v, want %v", in, got, want)
			continue
		}
		for i := range got {
			if got[i] != want[i] {
				t.Errorf("ParseTags(%q) = %v, want %v", in, got, want)
			}
		}
	}
}
