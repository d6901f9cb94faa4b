// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/library-index/pkg/types"
)

// PaperRecord tracks one candidate paper through the analysis pipeline.
// After dispatch it is mutated only by the analyzer that owns it.
type PaperRecord struct {
	ID       string
	Meta     types.PaperMeta
	Status   types.PaperStatus
	Analysis string
	Err      error
}

// Record is one append-only history entry. Queries carries the query
// strings a planning or search step touched; the planner dedups against
// them to avoid repeating an identical external call.
type Record struct {
	Time    time.Time
	State   State
	Action  string
	Summary string
	Queries []string
}

// Metrics counts paper yield and analysis outcomes for one session.
type Metrics struct {
	PapersFound int `json:"papers_found"`
	Processed   int `json:"processed"`
	Succeeded   int `json:"succeeded"`
	Failed      int `json:"failed"`
}

// SuccessRate returns the fraction of processed papers analyzed
// successfully, in [0,1].
func (m Metrics) SuccessRate() float64 {
	if m.Processed == 0 {
		return 0
	}
	return float64(m.Succeeded) / float64(m.Processed)
}

// Session is the exclusively-owned context of one research request. The
// orchestrator owns it for the session lifetime; the mutex covers the
// fields concurrent analyzers touch (history, partial results, metrics).
type Session struct {
	ID    string
	Query string
	State State

	// Keywords is the current search vocabulary, replaced on refinement.
	Keywords string

	// SearchAttempts counts planning/search cycles. The orchestrator is
	// the sole mutator; it never exceeds the configured ceiling.
	SearchAttempts int

	// Papers maps paper id to its record, deduplicated across rounds.
	Papers map[string]*PaperRecord

	// pendingQueries holds the query strings planned for the next search
	// round.
	pendingQueries []string

	mu             sync.Mutex
	history        []Record
	partialResults []string
	metrics        Metrics
}

// NewSession creates the context for one research request.
func NewSession(query string) *Session {
	return &Session{
		ID:     uuid.NewString(),
		Query:  query,
		State:  StateInitializing,
		Papers: make(map[string]*PaperRecord),
	}
}

// AddRecord appends one history entry. History is append-only and
// monotonically non-decreasing in length.
func (s *Session) AddRecord(action, summary string, queries ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, Record{
		Time:    time.Now(),
		State:   s.State,
		Action:  action,
		Summary: summary,
		Queries: queries,
	})
}

// History returns a copy of the history log.
func (s *Session) History() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.history))
	copy(out, s.history)
	return out
}

// PastQueries returns every query string recorded in history.
func (s *Session) PastQueries() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	for _, r := range s.history {
		for _, q := range r.Queries {
			seen[q] = true
		}
	}
	return seen
}

// SummarizeHistory renders the most recent history entries for a
// refinement prompt.
func (s *Session) SummarizeHistory(n int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return "no prior activity"
	}
	start := len(s.history) - n
	if start < 0 {
		start = 0
	}
	var b strings.Builder
	for _, r := range s.history[start:] {
		fmt.Fprintf(&b, "- %s: %s\n", r.Action, r.Summary)
	}
	return strings.TrimRight(b.String(), "\n")
}

// MergePaper adds meta to the candidate set, or merges metadata into the
// existing record without duplicating it or regressing its status.
// It reports whether the id was new.
func (s *Session) MergePaper(meta types.PaperMeta) bool {
	if rec, ok := s.Papers[meta.ID]; ok {
		rec.Meta.MergeFrom(meta)
		return false
	}
	s.Papers[meta.ID] = &PaperRecord{
		ID:     meta.ID,
		Meta:   meta,
		Status: types.PaperPending,
	}
	return true
}

// PendingPapers returns the records not yet dispatched to an analyzer.
func (s *Session) PendingPapers() []*PaperRecord {
	var out []*PaperRecord
	for _, rec := range s.Papers {
		if rec.Status == types.PaperPending {
			out = append(out, rec)
		}
	}
	return out
}

// AppendResult records one completed analysis text.
func (s *Session) AppendResult(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partialResults = append(s.partialResults, text)
}

// DrainResults removes and returns the accumulated analysis texts. The
// merger consumes them destructively each synthesis round.
func (s *Session) DrainResults() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.partialResults
	s.partialResults = nil
	return out
}

// AddMetrics accumulates quality counters.
func (s *Session) AddMetrics(delta Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics.PapersFound += delta.PapersFound
	s.metrics.Processed += delta.Processed
	s.metrics.Succeeded += delta.Succeeded
	s.metrics.Failed += delta.Failed
}

// Metrics returns a snapshot of the quality counters.
func (s *Session) Metrics() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}
