package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Yasuno-5555/investidabh/internal/entity"
	"go.uber.org/zap"
)

const rssFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example News</title>
  <item>
    <title>First</title>
    <link>https://example.com/1</link>
    <description>one</description>
    <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    <author>alice@example.com (Alice)</author>
  </item>
  <item>
    <title>Second</title>
    <link>https://example.com/2</link>
  </item>
</channel>
</rss>`

func TestFeedCollector(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rssFeed))
	}))
	defer srv.Close()

	c := NewFeedCollector(srv.Client(), zap.NewNop())
	result, err := c.Collect(context.Background(), entity.Target{Kind: entity.SourceFeed, Query: srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SourceType != "rss" || result.FeedTitle != "Example News" {
		t.Errorf("result header = %q/%q", result.SourceType, result.FeedTitle)
	}
	if len(result.Data) != 2 {
		t.Fatalf("got %d items, expected 2", len(result.Data))
	}
	first := result.Data[0].(entity.FeedItem)
	if first.Title != "First" || first.Link != "https://example.com/1" || first.Summary != "one" {
		t.Errorf("first item = %+v", first)
	}
}

func TestFeedCollectorRejectsGarbage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a feed"))
	}))
	defer srv.Close()

	c := NewFeedCollector(srv.Client(), zap.NewNop())
	if _, err := c.Collect(context.Background(), entity.Target{Query: srv.URL}); err == nil {
		t.Error("expected an error")
	}
}

func TestSocialCollector(t *testing.T) {
	t.Parallel()

	t.Run("no token yields a note, not a failure", func(t *testing.T) {
		t.Parallel()
		c := NewSocialCollector(http.DefaultClient, "https://mastodon.example", "", zap.NewNop())
		result, err := c.Collect(context.Background(), entity.Target{Kind: entity.SourceSocial, Query: "osint"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Data) != 0 || result.Note == "" || result.Platform != PlatformMastodon {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("twitter is a stub", func(t *testing.T) {
		t.Parallel()
		c := NewSocialCollector(http.DefaultClient, "", "token", zap.NewNop())
		result, err := c.Collect(context.Background(), entity.Target{Query: "osint", Platform: PlatformTwitter})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Note == "" || len(result.Data) != 0 {
			t.Errorf("result = %+v", result)
		}
	})

	t.Run("mastodon search", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasSuffix(r.URL.Path, "/search") {
				http.NotFound(w, r)
				return
			}
			if r.Header.Get("Authorization") != "Bearer token" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"accounts":[],"hashtags":[],"statuses":[{
				"id":"1","content":"<p>hello</p>","url":"https://mastodon.example/@bob/1",
				"created_at":"2024-05-01T10:00:00.000Z",
				"account":{"id":"9","username":"bob","display_name":"Bob","url":"https://mastodon.example/@bob"}
			}]}`))
		}))
		defer srv.Close()

		c := NewSocialCollector(srv.Client(), srv.URL, "token", zap.NewNop())
		result, err := c.Collect(context.Background(), entity.Target{Query: "hello", Platform: PlatformMastodon})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Data) != 1 {
			t.Fatalf("got %d posts, expected 1", len(result.Data))
		}
		post := result.Data[0].(entity.SocialPost)
		if post.Account.Username != "bob" || post.CreatedAt != "2024-05-01T10:00:00Z" {
			t.Errorf("post = %+v", post)
		}
	})
}

func TestCodeHostCollector(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/search/users", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("per_page") != "5" {
			t.Errorf("per_page = %q", r.URL.Query().Get("per_page"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total_count":2,"items":[{"login":"octo"},{"login":"ghost"}]}`))
	})
	mux.HandleFunc("/users/octo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"login":"octo","name":"Octo Cat","company":"GitHub","public_repos":8,"html_url":"https://github.com/octo"}`))
	})
	mux.HandleFunc("/users/ghost", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := NewCodeHostCollector(srv.Client(), "", srv.URL, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	result, err := c.Collect(context.Background(), entity.Target{Kind: entity.SourceCodeHost, Query: "octo"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SourceType != "git" || len(result.Data) != 2 {
		t.Fatalf("result = %+v", result)
	}
	octo := result.Data[0].(entity.CodeHostProfile)
	if octo.Name != "Octo Cat" || octo.PublicRepos != 8 || octo.URL != "https://github.com/octo" {
		t.Errorf("profile = %+v", octo)
	}
	if ghost := result.Data[1].(entity.CodeHostProfile); ghost.Login != "ghost" {
		t.Errorf("fallback profile = %+v", ghost)
	}
}
