package devblog

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = sql.ErrNoRows

// TagCount is a tag with the number of published posts carrying it.
type TagCount struct {
	Tag   string
	Count int
}

// PostCache is an in-memory cache of published posts with a TTL. Resync
// invalidates it explicitly, so the TTL only bounds staleness from writes
// made by other processes sharing the database.
type PostCache struct {
	mu      sync.RWMutex
	posts   []BlogPost
	bySlug  map[string]int
	tags    []TagCount
	fetched time.Time
	ttl     time.Duration
	store   *Store
}

// NewPostCache creates a PostCache backed by the given Store.
func NewPostCache(s *Store, ttl time.Duration) *PostCache {
	return &PostCache{store: s, ttl: ttl}
}

func (c *PostCache) valid() bool {
	return c.posts != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read reloads from the store.
func (c *PostCache) Invalidate() {
	c.mu.Lock()
	c.posts = nil
	c.bySlug = nil
	c.tags = nil
	c.mu.Unlock()
}

// load must be called with the write lock held.
func (c *PostCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	posts, err := c.store.ListPosts(ctx, "")
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []BlogPost{}
	}
	bySlug := make(map[string]int, len(posts))
	counts := map[string]int{}
	for i, p := range posts {
		bySlug[p.Slug] = i
		for _, t := range p.Tags {
			counts[t]++
		}
	}
	tags := make([]TagCount, 0, len(counts))
	for t, n := range counts {
		tags = append(tags, TagCount{Tag: t, Count: n})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Tag < tags[j].Tag })

	c.posts = posts
	c.bySlug = bySlug
	c.tags = tags
	c.fetched = time.Now()
	return nil
}

type snapshot struct {
	posts  []BlogPost
	bySlug map[string]int
	tags   []TagCount
}

// ensureLoaded tries a read lock first and only takes the write lock when
// a reload is needed.
func (c *PostCache) ensureLoaded(ctx context.Context) (snapshot, error) {
	c.mu.RLock()
	if c.valid() {
		s := snapshot{c.posts, c.bySlug, c.tags}
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return snapshot{}, err
	}
	return snapshot{c.posts, c.bySlug, c.tags}, nil
}

// ListPosts returns published posts, optionally filtered by tag.
func (c *PostCache) ListPosts(ctx context.Context, tag string) ([]BlogPost, error) {
	s, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return s.posts, nil
	}
	normalized := normalizeTag(tag)
	var filtered []BlogPost
	for _, p := range s.posts {
		for _, t := range p.Tags {
			if t == normalized {
				filtered = append(filtered, p)
				break
			}
		}
	}
	return filtered, nil
}

// ListTags returns the sorted tags of published posts.
func (c *PostCache) ListTags(ctx context.Context) ([]string, error) {
	s, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(s.tags))
	for i, t := range s.tags {
		out[i] = t.Tag
	}
	return out, nil
}

// TagCounts returns tags with their post counts, sorted by tag.
func (c *PostCache) TagCounts(ctx context.Context) ([]TagCount, error) {
	s, err := c.ensureLoaded(ctx)
	return s.tags, err
}

// GetPost returns a published post by slug.
func (c *PostCache) GetPost(ctx context.Context, slug string) (BlogPost, error) {
	s, err := c.ensureLoaded(ctx)
	if err != nil {
		return BlogPost{}, err
	}
	i, ok := s.bySlug[slug]
	if !ok {
		return BlogPost{}, ErrNotFound
	}
	return s.posts[i], nil
}

// Related returns up to n other published posts sharing the most tags with
// post, newest first among equals.
func (c *PostCache) Related(ctx context.Context, post BlogPost, n int) ([]BlogPost, error) {
	s, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	want := make(map[string]struct{}, len(post.Tags))
	for _, t := range post.Tags {
		want[t] = struct{}{}
	}
	type scored struct {
		post  BlogPost
		score int
		order int
	}
	var candidates []scored
	for i, p := range s.posts {
		if p.Slug == post.Slug {
			continue
		}
		score := 0
		for _, t := range p.Tags {
			if _, ok := want[t]; ok {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, scored{p, score, i})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].order < candidates[j].order
	})
	if len(candidates) > n {
		candidates = candidates[:n]
	}
	out := make([]BlogPost, len(candidates))
	for i, c := range candidates {
		out[i] = c.post
	}
	return out, nil
}
