// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures and configuration for the
// library-index research engine. See docs/ARCHITECTURE.md § Data Structures.
package types

import (
	"strings"
	"time"
)

// PaperStatus tracks how far a candidate paper has progressed through the
// analysis pipeline. Status only moves forward: pending → fetched →
// analyzed, or → failed from any non-terminal point.
type PaperStatus string

const (
	PaperPending  PaperStatus = "pending"
	PaperFetched  PaperStatus = "fetched"
	PaperAnalyzed PaperStatus = "analyzed"
	PaperFailed   PaperStatus = "failed"
)

// statusRank orders statuses so a record can never regress.
var statusRank = map[PaperStatus]int{
	PaperPending:  0,
	PaperFetched:  1,
	PaperAnalyzed: 2,
	PaperFailed:   2,
}

// Advances reports whether moving from s to next is a forward transition.
func (s PaperStatus) Advances(next PaperStatus) bool {
	return statusRank[next] > statusRank[s]
}

// PaperMeta holds the metadata an academic index returns for one paper.
type PaperMeta struct {
	// ID is the canonical identifier from the source (arXiv ID, OpenAlex ID).
	// It is the dedup key across search rounds.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Date is the publication or preprint date.
	Date time.Time `json:"date" yaml:"date"`

	// Source identifies which index found this paper (e.g. "arxiv", "openalex").
	Source string `json:"source" yaml:"source"`

	// PDFURL is the location of the full-text document, when the source
	// provides one.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`
}

// MergeFrom fills empty fields of m from other. Both sides describe the same
// identifier; nothing already present is overwritten.
func (m *PaperMeta) MergeFrom(other PaperMeta) {
	if m.Title == "" {
		m.Title = other.Title
	}
	if len(m.Authors) == 0 {
		m.Authors = other.Authors
	}
	if m.Abstract == "" {
		m.Abstract = other.Abstract
	}
	if m.Date.IsZero() {
		m.Date = other.Date
	}
	if m.PDFURL == "" {
		m.PDFURL = other.PDFURL
	}
	// Keep both source names for diagnostics.
	switch {
	case m.Source == "":
		m.Source = other.Source
	case other.Source != "" && !strings.Contains(m.Source, other.Source):
		m.Source = m.Source + "," + other.Source
	}
}
