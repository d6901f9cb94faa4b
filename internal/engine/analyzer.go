// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/library-index/internal/convert"
	"github.com/pdiddy/library-index/internal/llm"
	"github.com/pdiddy/library-index/internal/memory"
	"github.com/pdiddy/library-index/internal/search"
	"github.com/pdiddy/library-index/pkg/types"
)

// Analyzer processes candidate papers: cache lookup first, then the
// fetch → convert → analyze → relate path on a miss. Instances are shared
// across the session; each dispatched unit owns exactly one PaperRecord.
type Analyzer struct {
	search    search.Client
	converter convert.Converter
	cache     memory.Cache
	analysis  llm.Client
	relevance llm.Client
	log       *zap.Logger

	workers int
	timeout time.Duration
}

// NewAnalyzer wires the analyzer's collaborators.
func NewAnalyzer(sc search.Client, cv convert.Converter, cache memory.Cache, analysis, relevance llm.Client, workers int, timeout time.Duration, log *zap.Logger) *Analyzer {
	return &Analyzer{
		search:    sc,
		converter: cv,
		cache:     cache,
		analysis:  analysis,
		relevance: relevance,
		log:       log,
		workers:   workers,
		timeout:   timeout,
	}
}

// AnalyzeAll fans the pending records out to a bounded worker pool and
// blocks until every unit completes or fails. A failing
// unit marks only its own record; siblings are unaffected. By the time
// AnalyzeAll returns, every record passed in is analyzed or failed.
func (a *Analyzer) AnalyzeAll(ctx context.Context, sess *Session, records []*PaperRecord) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			unitCtx, cancel := context.WithTimeout(gctx, a.timeout)
			defer cancel()

			if err := a.analyzeOne(unitCtx, sess, rec); err != nil {
				rec.Status = types.PaperFailed
				rec.Err = err
				sess.AddMetrics(Metrics{Processed: 1, Failed: 1})
				sess.AddRecord("paper_analysis", fmt.Sprintf("analysis failed (id: %s): %v", rec.ID, err))
				a.log.Warn("paper analysis failed", zap.String("paper", rec.ID), zap.Error(err))
				return nil // unit failures never abort the round
			}

			sess.AddMetrics(Metrics{Processed: 1, Succeeded: 1})
			a.log.Info("paper analyzed", zap.String("paper", rec.ID))
			return nil
		})
	}

	g.Wait()
}

// analyzeOne runs the full path for one record. The cache is consulted
// first: a hit skips the document and model work entirely.
func (a *Analyzer) analyzeOne(ctx context.Context, sess *Session, rec *PaperRecord) error {
	cached, ok, err := a.cache.Lookup(ctx, rec.ID)
	if err != nil {
		a.log.Warn("cache lookup failed, analyzing from source", zap.String("paper", rec.ID), zap.Error(err))
	}
	if ok {
		rec.Status = types.PaperAnalyzed
		rec.Analysis = cached
		sess.AppendResult(cached)
		a.log.Debug("cache hit", zap.String("paper", rec.ID))
		return nil
	}

	raw, err := a.search.FetchDocument(ctx, rec.Meta)
	if err != nil {
		return fmt.Errorf("fetching document: %w", err)
	}
	rec.Status = types.PaperFetched

	text, err := a.converter.ToText(ctx, raw)
	if err != nil {
		return fmt.Errorf("structuring document: %w", err)
	}
	if len(text) > maxAnalyzableChars {
		text = text[:maxAnalyzableChars]
	}

	structured, err := a.analysis.Complete(ctx, []llm.Message{
		llm.System(analysisSystemPrompt),
		llm.User(text),
	}, llm.Options{Temperature: 0.3})
	if err != nil {
		return fmt.Errorf("structural analysis: %w", err)
	}

	related, err := a.relevance.Complete(ctx, []llm.Message{
		llm.System(relevanceSystemPrompt),
		llm.User(fmt.Sprintf("User query: %s\n\nTask: assess how the article relates to the query following the four sections above.\n\nArticle:\n%s", sess.Query, structured)),
	}, llm.Options{Temperature: 0.3})
	if err != nil {
		return fmt.Errorf("relevance analysis: %w", err)
	}

	if err := a.cache.Store(ctx, rec.ID, related); err != nil {
		// A write failure costs a future cache hit, nothing else.
		a.log.Warn("cache store failed", zap.String("paper", rec.ID), zap.Error(err))
	}

	rec.Status = types.PaperAnalyzed
	rec.Analysis = related
	sess.AppendResult(related)
	return nil
}

// maxAnalyzableChars bounds how much converted text one analysis call may
// carry, keeping the model context in range for long papers.
const maxAnalyzableChars = 20000
