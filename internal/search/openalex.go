// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/library-index/pkg/types"
)

const openAlexSearchBase = "https://api.openalex.org/works"

// OpenAlexClient queries the OpenAlex Works API.
type OpenAlexClient struct {
	client  *http.Client
	cfg     types.SearchConfig
	limiter *RateLimiter
}

// Name returns the provider identifier.
func (c *OpenAlexClient) Name() string { return "openalex" }

// SearchMetadata runs one free-text query against OpenAlex and returns up
// to max results. Results arrive relevance-sorted from the API.
func (c *OpenAlexClient) SearchMetadata(ctx context.Context, query string, max int) ([]types.PaperMeta, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty OpenAlex query")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	base := c.cfg.BaseURL
	if base == "" {
		base = openAlexSearchBase
	}
	if max <= 0 {
		max = 2
	}
	if max > 200 {
		max = 200
	}

	params := url.Values{
		"search":   {query},
		"per_page": {fmt.Sprintf("%d", max)},
		"page":     {"1"},
	}
	if c.cfg.OpenAlexEmail != "" {
		params.Set("mailto", c.cfg.OpenAlexEmail)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex API returned HTTP %d", resp.StatusCode)
	}

	var oar openAlexResponse
	if err := json.NewDecoder(resp.Body).Decode(&oar); err != nil {
		return nil, fmt.Errorf("parsing OpenAlex response: %w", err)
	}

	var results []types.PaperMeta
	for _, work := range oar.Results {
		m := types.PaperMeta{
			Title:    work.Title,
			Abstract: reconstructAbstract(work.AbstractInvertedIndex),
			Source:   "openalex",
			PDFURL:   work.OpenAccess.OAURL,
		}

		// Prefer DOI as identifier since OpenAlex is DOI-centric.
		if work.DOI != "" {
			m.ID = strings.TrimPrefix(work.DOI, "https://doi.org/")
		} else if work.ID != "" {
			m.ID = work.ID
		} else {
			continue
		}

		for _, authorship := range work.Authorships {
			if authorship.Author.DisplayName != "" {
				m.Authors = append(m.Authors, authorship.Author.DisplayName)
			}
		}

		if work.PublicationDate != "" {
			if t, parseErr := time.Parse("2006-01-02", work.PublicationDate); parseErr == nil {
				m.Date = t
			}
		} else if work.PublicationYear > 0 {
			m.Date = time.Date(work.PublicationYear, 1, 1, 0, 0, 0, 0, time.UTC)
		}

		results = append(results, m)
	}
	return results, nil
}

// FetchDocument downloads the open-access PDF for an OpenAlex result.
// Works without an open-access location cannot be fetched.
func (c *OpenAlexClient) FetchDocument(ctx context.Context, meta types.PaperMeta) ([]byte, error) {
	if meta.PDFURL == "" {
		return nil, fmt.Errorf("no open-access document for %s", meta.ID)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, meta.PDFURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", meta.PDFURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download of %s returned HTTP %d", meta.PDFURL, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", meta.PDFURL, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document from %s", meta.PDFURL)
	}
	return data, nil
}

// reconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. The inverted index maps each word to a list of positions
// where that word appears.
func reconstructAbstract(invertedIndex map[string][]int) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range invertedIndex {
		for _, pos := range positions {
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i].pos < pairs[j].pos
	})

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}

// OpenAlex API JSON structures.
type openAlexResponse struct {
	Results []openAlexWork `json:"results"`
}

type openAlexWork struct {
	ID                    string               `json:"id"`
	Title                 string               `json:"title"`
	DOI                   string               `json:"doi"`
	PublicationDate       string               `json:"publication_date"`
	PublicationYear       int                  `json:"publication_year"`
	Authorships           []openAlexAuthorship `json:"authorships"`
	AbstractInvertedIndex map[string][]int     `json:"abstract_inverted_index"`
	OpenAccess            openAlexOpenAccess   `json:"open_access"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

type openAlexOpenAccess struct {
	IsOA     bool   `json:"is_oa"`
	OAStatus string `json:"oa_status"`
	OAURL    string `json:"oa_url"`
}
