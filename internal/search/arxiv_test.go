// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/library-index/pkg/types"
)

const arxivFeedSample = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.07041v2</id>
    <title>Attention Is Not All You Need</title>
    <summary>  We revisit the transformer.  </summary>
    <published>2023-01-17T12:00:00Z</published>
    <author><name>A. Author</name></author>
    <author><name>B. Author</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2405.00123v1</id>
    <title>Second Paper</title>
    <summary>Another abstract.</summary>
    <published>2024-05-01T00:00:00Z</published>
    <author><name>C. Author</name></author>
  </entry>
</feed>`

func arxivTestClient(t *testing.T, handler http.HandlerFunc) *ArxivClient {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	c, err := New(types.SearchConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "test/0.1"},
		Provider:   types.SearchArxiv,
		BaseURL:    ts.URL,
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return c.(*ArxivClient)
}

func TestArxivSearchMetadata(t *testing.T) {
	var gotQuery string
	c := arxivTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		fmt.Fprint(w, arxivFeedSample)
	})

	results, err := c.SearchMetadata(context.Background(), "transformer attention", 5)
	if err != nil {
		t.Fatalf("SearchMetadata() error: %v", err)
	}

	if gotQuery != "all:transformer+attention" {
		t.Errorf("search_query = %q, want normalized all: clause", gotQuery)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	first := results[0]
	if first.ID != "2301.07041" {
		t.Errorf("ID = %q, want version-stripped arXiv id", first.ID)
	}
	if first.Title != "Attention Is Not All You Need" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.Abstract != "We revisit the transformer." {
		t.Errorf("Abstract = %q, want trimmed summary", first.Abstract)
	}
	if len(first.Authors) != 2 || first.Authors[0] != "A. Author" {
		t.Errorf("Authors = %v", first.Authors)
	}
	if first.Source != "arxiv" {
		t.Errorf("Source = %q", first.Source)
	}
	if first.PDFURL != "https://arxiv.org/pdf/2301.07041" {
		t.Errorf("PDFURL = %q", first.PDFURL)
	}
	if first.Date.Year() != 2023 {
		t.Errorf("Date = %v", first.Date)
	}
}

func TestArxivSearchMetadataErrors(t *testing.T) {
	c := arxivTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	if _, err := c.SearchMetadata(context.Background(), "q", 5); err == nil {
		t.Error("SearchMetadata() succeeded on HTTP 502, want error")
	}
	if _, err := c.SearchMetadata(context.Background(), "   ", 5); err == nil {
		t.Error("SearchMetadata() accepted blank query, want error")
	}
}

func TestArxivFetchDocument(t *testing.T) {
	pdf := bytes.Repeat([]byte("%PDF"), 16)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(pdf)
	}))
	defer ts.Close()

	c := &ArxivClient{client: ts.Client(), limiter: NewRateLimiter(0)}
	data, err := c.FetchDocument(context.Background(), types.PaperMeta{ID: "2301.07041", PDFURL: ts.URL + "/pdf"})
	if err != nil {
		t.Fatalf("FetchDocument() error: %v", err)
	}
	if !bytes.Equal(data, pdf) {
		t.Errorf("FetchDocument() returned %d bytes, want %d", len(data), len(pdf))
	}
}

func TestArxivFetchDocumentEmptyBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer ts.Close()

	c := &ArxivClient{client: ts.Client(), limiter: NewRateLimiter(0)}
	if _, err := c.FetchDocument(context.Background(), types.PaperMeta{PDFURL: ts.URL}); err == nil {
		t.Error("FetchDocument() accepted empty body, want error")
	}
}

func TestNormalizeArxivQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"bare text wrapped", "graph neural networks", "all:graph+neural+networks"},
		{"all prefix passes through", `all:"graph neural networks"`, `all:"graph neural networks"`},
		{"fielded query passes through", "ti:attention+AND+cat:cs.LG", "ti:attention+AND+cat:cs.LG"},
		{"abs prefix passes through", "abs:diffusion", "abs:diffusion"},
		{"whitespace trimmed", "  attention  ", "all:attention"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeArxivQuery(tt.query); got != tt.want {
				t.Errorf("normalizeArxivQuery(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"version stripped", "http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"multi-digit version", "http://arxiv.org/abs/2301.07041v12", "2301.07041"},
		{"no version", "http://arxiv.org/abs/2301.07041", "2301.07041"},
		{"old-style id", "http://arxiv.org/abs/cs/0301001v1", "cs/0301001"},
		{"not an abs url", "http://example.com/paper", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractArxivID(tt.url); got != tt.want {
				t.Errorf("extractArxivID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
