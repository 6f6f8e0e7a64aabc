package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "analytics.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if err := InitSalt(context.Background(), s); err != nil {
		t.Fatalf("InitSalt failed: %v", err)
	}
	return s
}

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		ua                  string
		browser, os, device string
	}{
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36", "Chrome", "Windows", "Desktop"},
		{"Mozilla/5.0 (Windows NT 10.0) AppleWebKit/537.36 Chrome/120.0 Safari/537.36 Edg/120.0", "Edge", "Windows", "Desktop"},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Version/17.0 Mobile/15E148 Safari/604.1", "Safari", "iOS", "Mobile"},
		{"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) Mobile/15E148 Safari/604.1", "Safari", "iOS", "Tablet"},
		{"Mozilla/5.0 (Linux; Android 14) AppleWebKit/537.36 Chrome/120.0 Mobile Safari/537.36", "Chrome", "Android", "Mobile"},
		{"Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0", "Firefox", "Linux", "Desktop"},
		{"curl/8.0", "Other", "Other", "Desktop"},
	}
	for _, tt := range tests {
		b, o, d := ParseUserAgent(tt.ua)
		if b != tt.browser || o != tt.os || d != tt.device {
			t.Errorf("ParseUserAgent(%q) = %s/%s/%s, want %s/%s/%s", tt.ua, b, o, d, tt.browser, tt.os, tt.device)
		}
	}
}

func TestBotName(t *testing.T) {
	tests := map[string]string{
		"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)": "Googlebot",
		"Mozilla/5.0 (compatible; SomeCrawler/1.0)":                                "Other Bot",
		"": "Empty UA",
		"Mozilla/5.0 (X11; Linux x86_64) Firefox/121.0": "",
	}
	for ua, want := range tests {
		if got := BotName(ua); got != want {
			t.Errorf("BotName(%q) = %q, want %q", ua, got, want)
		}
	}
}

func TestCleanReferrer(t *testing.T) {
	tests := []struct {
		ref, self, want string
	}{
		{"", "blog.dev", "Direct"},
		{"https://www.google.com/search?q=go", "blog.dev", "Google"},
		{"https://news.ycombinator.com/item?id=1", "blog.dev", "news.ycombinator.com"},
		{"https://www.blog.dev/blog/x/", "blog.dev", "Direct"},
		{"not a url", "blog.dev", "Other"},
	}
	for _, tt := range tests {
		if got := CleanReferrer(tt.ref, tt.self); got != tt.want {
			t.Errorf("CleanReferrer(%q) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestSaltPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.db")
	s1, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := InitSalt(context.Background(), s1); err != nil {
		t.Fatal(err)
	}
	h1 := s1.HashIP("203.0.113.1")
	s1.Close()

	s2, err := NewStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if err := InitSalt(context.Background(), s2); err != nil {
		t.Fatal(err)
	}
	if h2 := s2.HashIP("203.0.113.1"); h1 != h2 {
		t.Errorf("hash changed across reopen: %s != %s", h1, h2)
	}
	if strings.Contains(h1, "203") || len(h1) != 16 {
		t.Errorf("unexpected hash %q", h1)
	}
}

func TestGetStats(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	visits := []Visit{
		{VisitorID: "a", Browser: "Chrome", OS: "Linux", Device: "Desktop", Path: "/", Referrer: "Direct", Timestamp: now, DurationSec: 30},
		{VisitorID: "a", Browser: "Chrome", OS: "Linux", Device: "Desktop", Path: "/blog/x/", Referrer: "Direct", Timestamp: now},
		{VisitorID: "b", Browser: "Firefox", OS: "macOS", Device: "Desktop", Path: "/blog/x/", Referrer: "Google", Timestamp: now, DurationSec: 90},
		{VisitorID: "c", Browser: "Safari", OS: "iOS", Device: "Mobile", Path: "/", Referrer: "Direct", Timestamp: now.AddDate(0, 0, -30)},
	}
	for _, v := range visits {
		if err := s.SaveVisit(ctx, v); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SaveBotVisit(ctx, BotVisit{BotName: "Googlebot", Path: "/", Timestamp: now}); err != nil {
		t.Fatal(err)
	}

	to := truncateDay(now).AddDate(0, 0, 1)
	stats, err := s.GetStats(ctx, to.AddDate(0, 0, -7), to)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalViews != 3 || stats.UniqueVisitors != 2 {
		t.Errorf("views=%d unique=%d", stats.TotalViews, stats.UniqueVisitors)
	}
	if stats.AvgDuration != 60 {
		t.Errorf("AvgDuration = %d, want 60", stats.AvgDuration)
	}
	if stats.BotVisits != 1 || len(stats.TopBots) != 1 || stats.TopBots[0].Name != "Googlebot" {
		t.Errorf("bots = %d %v", stats.BotVisits, stats.TopBots)
	}
	if len(stats.TopPages) == 0 || stats.TopPages[0] != (DimensionStat{"/blog/x/", 2}) {
		t.Errorf("TopPages = %v", stats.TopPages)
	}
	if len(stats.DailyViews) != 7 || stats.DailyViews[6].Views != 3 {
		t.Errorf("DailyViews = %v", stats.DailyViews)
	}
}

func TestCleanupOldVisits(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	old := time.Now().UTC().AddDate(-2, 0, 0)
	if err := s.SaveVisit(ctx, Visit{VisitorID: "x", Path: "/", Timestamp: old}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveVisit(ctx, Visit{VisitorID: "y", Path: "/", Timestamp: time.Now()}); err != nil {
		t.Fatal(err)
	}
	n, err := s.CleanupOldVisits(ctx, 365)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("deleted %d rows, want 1", n)
	}
}

func collect(t *testing.T, h *Handler, body string, headers map[string]string) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/analytics/collect", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	if err := h.Collect(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Collect returned error: %v", err)
	}
	return rec.Code
}

func TestCollect(t *testing.T) {
	s := setupStore(t)
	h := NewHandler(s, nil)
	t.Cleanup(h.Close)
	chrome := map[string]string{"User-Agent": "Mozilla/5.0 (X11; Linux x86_64) Chrome/120.0 Safari/537.36"}

	if code := collect(t, h, `{"path":"/blog/x/","referrer":"https://google.com/","screen_width":1280,"duration_ms":4200}`, chrome); code != http.StatusNoContent {
		t.Fatalf("status = %d", code)
	}
	if code := collect(t, h, `{"path":"relative"}`, chrome); code != http.StatusBadRequest {
		t.Errorf("relative path status = %d", code)
	}
	dnt := map[string]string{"User-Agent": chrome["User-Agent"], "DNT": "1"}
	if code := collect(t, h, `{"path":"/"}`, dnt); code != http.StatusNoContent {
		t.Errorf("DNT status = %d", code)
	}
	bot := map[string]string{"User-Agent": "Googlebot/2.1"}
	if code := collect(t, h, `{"path":"/"}`, bot); code != http.StatusNoContent {
		t.Errorf("bot status = %d", code)
	}

	now := time.Now().UTC()
	stats, err := s.GetStats(context.Background(), now.Add(-time.Hour), now.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalViews != 1 || stats.BotVisits != 1 {
		t.Errorf("views=%d bots=%d, want 1/1", stats.TotalViews, stats.BotVisits)
	}
	if stats.Referrers[0].Name != "Google" || stats.AvgDuration != 4 {
		t.Errorf("referrers=%v avg=%d", stats.Referrers, stats.AvgDuration)
	}
}

func TestStatsEndpoint(t *testing.T) {
	s := setupStore(t)
	h := NewHandler(s, nil)
	t.Cleanup(h.Close)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/admin/analytics/stats?days=3", nil)
	rec := httptest.NewRecorder()
	if err := h.Stats(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.DailyViews) != 3 {
		t.Errorf("DailyViews len = %d, want 3", len(got.DailyViews))
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/analytics/stats?days=0", nil)
	rec = httptest.NewRecorder()
	if err := h.Stats(e.NewContext(req, rec)); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("days=0 status = %d", rec.Code)
	}
}
