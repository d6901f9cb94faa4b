// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/library-index/pkg/types"
)

const (
	arxivAPIBase = "https://export.arxiv.org/api/query"
	arxivPDFBase = "https://arxiv.org/pdf"
)

// maxDocumentBytes caps a single PDF download.
const maxDocumentBytes = 64 << 20

// ArxivClient queries the arXiv API.
type ArxivClient struct {
	client  *http.Client
	cfg     types.SearchConfig
	limiter *RateLimiter
}

// Name returns the provider identifier.
func (c *ArxivClient) Name() string { return "arxiv" }

// SearchMetadata runs one query string against the arXiv API. The query is
// either a prebuilt search_query expression (e.g. `all:"graph neural
// networks"+AND+cat:cs.LG`) from the planner or free text, which is wrapped
// in an all: clause.
func (c *ArxivClient) SearchMetadata(ctx context.Context, query string, max int) ([]types.PaperMeta, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	base := c.cfg.BaseURL
	if base == "" {
		base = arxivAPIBase
	}
	if max <= 0 {
		max = 2
	}

	reqURL := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		base, url.QueryEscape(normalizeArxivQuery(query)), max)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var results []types.PaperMeta
	for _, entry := range feed.Entries {
		id := extractArxivID(entry.ID)
		if id == "" {
			continue
		}

		m := types.PaperMeta{
			ID:       id,
			Title:    strings.TrimSpace(entry.Title),
			Abstract: strings.TrimSpace(entry.Summary),
			Source:   "arxiv",
			PDFURL:   fmt.Sprintf("%s/%s", arxivPDFBase, id),
		}
		for _, a := range entry.Authors {
			m.Authors = append(m.Authors, strings.TrimSpace(a.Name))
		}
		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			m.Date = t
		}

		results = append(results, m)
	}
	return results, nil
}

// FetchDocument downloads the PDF for an arXiv result.
func (c *ArxivClient) FetchDocument(ctx context.Context, meta types.PaperMeta) ([]byte, error) {
	pdfURL := meta.PDFURL
	if pdfURL == "" {
		if meta.ID == "" {
			return nil, fmt.Errorf("no PDF location for paper")
		}
		pdfURL = fmt.Sprintf("%s/%s", arxivPDFBase, meta.ID)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", pdfURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download of %s returned HTTP %d", pdfURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", pdfURL, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document from %s", pdfURL)
	}
	return data, nil
}

// normalizeArxivQuery wraps bare free text in an all: clause. Queries that
// already carry a field prefix (all:, ti:, au:, cat:) pass through.
func normalizeArxivQuery(query string) string {
	q := strings.TrimSpace(query)
	for _, prefix := range []string{"all:", "ti:", "au:", "abs:", "cat:"} {
		if strings.Contains(q, prefix) {
			return q
		}
	}
	return "all:" + strings.Join(strings.Fields(q), "+")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
