// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine drives the adaptive research loop: a state machine that
// plans searches, fans paper analysis out to a bounded worker pool, and
// collapses the partial analyses into one report through a binary-tree
// merge, refining its search strategy when results are insufficient.
// See docs/ARCHITECTURE.md § Orchestrator.
package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/library-index/internal/convert"
	"github.com/pdiddy/library-index/internal/llm"
	"github.com/pdiddy/library-index/internal/memory"
	"github.com/pdiddy/library-index/internal/search"
	"github.com/pdiddy/library-index/pkg/types"
)

// Result is what one research session returns. The engine always returns
// something: a synthesized report, or a failure detail alongside whatever
// partial report exists.
type Result struct {
	SessionID string
	State     State
	Report    string
	Metrics   Metrics
	History   []Record
	Err       error
}

// Orchestrator owns one session and drives it through the state machine.
// The loop itself is single-goroutine; parallelism exists only inside the
// analysis fan-out and the merge rounds.
type Orchestrator struct {
	cfg  types.EngineConfig
	sess *Session
	log  *zap.Logger

	// Collaborators. Nil fields are built from cfg during Initializing;
	// tests inject fakes before Run.
	queryLLM     llm.Client
	analysisLLM  llm.Client
	relevanceLLM llm.Client
	searcher     search.Client
	converter    convert.Converter
	cache        memory.Cache

	planner  *Planner
	analyzer *Analyzer
	merger   *Merger

	// ownsCache marks whether Close should release the cache.
	ownsCache bool
}

// New creates an orchestrator for one research request. cfg defaults are
// applied here so callers can pass a sparse config.
func New(query string, cfg types.EngineConfig, log *zap.Logger) *Orchestrator {
	cfg.ApplyDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	sess := NewSession(query)
	return &Orchestrator{
		cfg:  cfg,
		sess: sess,
		log:  log.With(zap.String("session", sess.ID)),
	}
}

// Run executes the research loop to a terminal state. Cancellation is
// honored at every state boundary and moves
// the session to Failed with the context error.
func Run(ctx context.Context, query string, cfg types.EngineConfig, log *zap.Logger) *Result {
	return New(query, cfg, log).Run(ctx)
}

// Run drives the session until Completed or Failed and returns the result.
func (o *Orchestrator) Run(ctx context.Context) *Result {
	defer o.close()

	var failure error
	for !o.sess.State.Terminal() {
		if err := ctx.Err(); err != nil {
			failure = fmt.Errorf("research cancelled: %w", err)
			o.transition(StateFailed)
			break
		}

		next, err := o.step(ctx)
		if err != nil {
			failure = err
			o.log.Error("session failed", zap.String("state", string(o.sess.State)), zap.Error(err))
			o.sess.AddRecord("failure", err.Error())
			next = StateFailed
		}
		o.transition(next)
	}

	res := &Result{
		SessionID: o.sess.ID,
		State:     o.sess.State,
		Metrics:   o.sess.Metrics(),
		History:   o.sess.History(),
		Err:       failure,
	}
	res.Report = renderReport(o.sess, failure)
	return res
}

// step dispatches the active state to its handler.
func (o *Orchestrator) step(ctx context.Context) (State, error) {
	switch o.sess.State {
	case StateInitializing:
		return o.handleInitializing(ctx)
	case StateAnalyzingQuery:
		return o.handleAnalyzingQuery(ctx)
	case StatePlanningSearch:
		return o.handlePlanningSearch(ctx)
	case StateExecutingSearch:
		return o.handleExecutingSearch(ctx)
	case StateProcessingResults:
		return o.handleProcessingResults(ctx)
	case StateEvaluatingResults:
		return o.handleEvaluatingResults(ctx)
	case StateRefiningStrategy:
		return o.handleRefiningStrategy(ctx)
	case StateSynthesizing:
		return o.handleSynthesizing(ctx)
	default:
		return StateFailed, fmt.Errorf("no handler for state %q", o.sess.State)
	}
}

// transition moves the session to the next state with logging.
func (o *Orchestrator) transition(next State) {
	old := o.sess.State
	o.sess.State = next
	o.log.Info("state transition", zap.String("from", string(old)), zap.String("to", string(next)))
}

// handleInitializing builds the collaborators this session needs and
// verifies the cache is reachable. Any setup failure is a permanent
// collaborator error and fails the session.
func (o *Orchestrator) handleInitializing(ctx context.Context) (State, error) {
	var err error

	if o.queryLLM == nil {
		if o.queryLLM, err = llm.New(o.cfg.QueryLLM); err != nil {
			return StateFailed, fmt.Errorf("query model setup: %w", err)
		}
	}
	if o.analysisLLM == nil {
		if o.analysisLLM, err = llm.New(o.cfg.AnalysisLLM); err != nil {
			return StateFailed, fmt.Errorf("analysis model setup: %w", err)
		}
	}
	if o.relevanceLLM == nil {
		if o.relevanceLLM, err = llm.New(o.cfg.RelevanceLLM); err != nil {
			return StateFailed, fmt.Errorf("relevance model setup: %w", err)
		}
	}
	if o.searcher == nil {
		if o.searcher, err = search.New(o.cfg.Search); err != nil {
			return StateFailed, fmt.Errorf("search client setup: %w", err)
		}
	}
	if o.converter == nil {
		if o.converter, err = convert.New(o.cfg.Conversion); err != nil {
			return StateFailed, fmt.Errorf("converter setup: %w", err)
		}
	}
	if o.cache == nil {
		if o.cache, err = memory.New(ctx, o.cfg.Cache); err != nil {
			return StateFailed, fmt.Errorf("cache setup: %w", err)
		}
		o.ownsCache = true
	}

	if err := o.cache.HealthCheck(ctx); err != nil {
		return StateFailed, fmt.Errorf("cache unavailable: %w", err)
	}

	o.planner = NewPlanner(o.queryLLM, o.log)
	o.analyzer = NewAnalyzer(o.searcher, o.converter, o.cache, o.analysisLLM, o.relevanceLLM,
		o.cfg.MaxWorkers, o.cfg.UnitTimeout, o.log)
	o.merger = NewMerger(o.analysisLLM, o.cfg.MaxWorkers, o.cfg.UnitTimeout, o.log)

	o.sess.AddRecord("initialization", "collaborators ready")
	return StateAnalyzingQuery, nil
}

// handleAnalyzingQuery extracts search keywords from the raw query. A
// degenerate extraction is not fatal; the raw query stands in verbatim.
func (o *Orchestrator) handleAnalyzingQuery(ctx context.Context) (State, error) {
	keywords, err := o.queryLLM.Complete(ctx, []llm.Message{
		llm.System(keywordSystemPrompt),
		llm.User(o.sess.Query),
	}, llm.Options{Temperature: 0.7})
	if err != nil {
		if llm.IsPermanent(err) {
			return StateFailed, fmt.Errorf("keyword extraction: %w", err)
		}
		o.log.Warn("keyword extraction failed, using raw query", zap.Error(err))
		keywords = ""
	}

	keywords = strings.TrimSpace(keywords)
	if keywords == "" {
		keywords = o.sess.Query
	}
	o.sess.Keywords = keywords

	o.sess.AddRecord("keyword_generation", fmt.Sprintf("keywords: %s", keywords))
	return StatePlanningSearch, nil
}

// handlePlanningSearch turns the keywords into index query strings. At
// least one is required; searching with nothing is not possible.
func (o *Orchestrator) handlePlanningSearch(ctx context.Context) (State, error) {
	queries, err := o.planner.Plan(ctx, o.sess.Keywords, o.sess.PastQueries())
	if err != nil {
		return StateFailed, fmt.Errorf("search planning: %w", err)
	}

	o.sess.pendingQueries = queries
	o.sess.AddRecord("search_planning", fmt.Sprintf("planned %d queries", len(queries)), queries...)
	return StateExecutingSearch, nil
}

// handleExecutingSearch fetches metadata for each planned query string and
// merges it into the candidate set, deduplicated by id. A failing query is
// logged and skipped; zero total results still proceeds to evaluation so
// refinement can react.
func (o *Orchestrator) handleExecutingSearch(ctx context.Context) (State, error) {
	found := 0
	for i, q := range o.sess.pendingQueries {
		metas, err := o.searcher.SearchMetadata(ctx, q, o.cfg.Search.MaxResultsPerQuery)
		if err != nil {
			o.log.Warn("search query failed",
				zap.Int("query_index", i), zap.String("query", q), zap.Error(err))
			o.sess.AddRecord("search_execution", fmt.Sprintf("query failed: %v", err))
			continue
		}
		for _, m := range metas {
			if m.ID == "" {
				continue
			}
			found++
			if o.sess.MergePaper(m) {
				o.log.Info("candidate paper", zap.String("paper", m.ID), zap.String("title", m.Title))
			}
		}
	}
	o.sess.pendingQueries = nil

	o.sess.AddMetrics(Metrics{PapersFound: found})
	o.sess.AddRecord("search_execution", fmt.Sprintf("found %d results (attempt %d)", found, o.sess.SearchAttempts+1))

	if found == 0 {
		// Nothing new to process; evaluation decides refine-vs-finish.
		return StateEvaluatingResults, nil
	}
	return StateProcessingResults, nil
}

// handleProcessingResults dispatches every pending paper to the bounded
// analyzer pool and blocks on the round barrier.
func (o *Orchestrator) handleProcessingResults(ctx context.Context) (State, error) {
	pending := o.sess.PendingPapers()
	if len(pending) > 0 {
		o.log.Info("analyzing papers", zap.Int("count", len(pending)))
		o.analyzer.AnalyzeAll(ctx, o.sess, pending)
	}

	m := o.sess.Metrics()
	o.sess.AddRecord("result_processing",
		fmt.Sprintf("processed %d papers, %d succeeded, %d failed", m.Processed, m.Succeeded, m.Failed))
	return StateEvaluatingResults, nil
}

// handleEvaluatingResults scores the session and decides refine-vs-finish.
// Reaching the attempt ceiling always forces synthesis; the engine
// terminates with whatever it has.
func (o *Orchestrator) handleEvaluatingResults(ctx context.Context) (State, error) {
	m := o.sess.Metrics()
	rate := o.planner.Score(m)

	needsRefinement := false
	switch {
	case m.PapersFound == 0:
		needsRefinement = true
	case rate < o.cfg.MinSuccessRate:
		needsRefinement = true
	case m.PapersFound < o.cfg.MinPapers:
		needsRefinement = true
	}

	o.sess.AddRecord("result_evaluation",
		fmt.Sprintf("papers=%d success_rate=%.2f refine=%t attempts=%d", m.PapersFound, rate, needsRefinement, o.sess.SearchAttempts))

	if needsRefinement && o.sess.SearchAttempts < o.cfg.MaxSearchRetries {
		return StateRefiningStrategy, nil
	}
	return StateSynthesizing, nil
}

// handleRefiningStrategy asks the query model for a better vocabulary
// based on the history summary, then loops back to planning. Refinement
// is the sole place the attempt counter advances, which keeps the loop
// bound exact: at most MaxSearchRetries+1 planning rounds.
func (o *Orchestrator) handleRefiningStrategy(ctx context.Context) (State, error) {
	m := o.sess.Metrics()
	prompt := fmt.Sprintf(
		"Original query: %s\nCurrent keywords: %s\nSearch attempts: %d\nPapers found: %d\nAnalysis success rate: %.2f\n\nExecution history:\n%s",
		o.sess.Query, o.sess.Keywords, o.sess.SearchAttempts, m.PapersFound, m.SuccessRate(),
		o.sess.SummarizeHistory(4))

	refined, err := o.queryLLM.Complete(ctx, []llm.Message{
		llm.System(refineSystemPrompt),
		llm.User(prompt),
	}, llm.Options{Temperature: 0.3})
	if err != nil {
		if llm.IsPermanent(err) {
			return StateFailed, fmt.Errorf("strategy refinement: %w", err)
		}
		// Transient refinement failure: keep current keywords; the
		// planner's history dedup still forces different queries.
		o.log.Warn("refinement model failed, keeping keywords", zap.Error(err))
		refined = o.sess.Keywords
	}

	old := o.sess.Keywords
	if strings.TrimSpace(refined) != "" {
		o.sess.Keywords = strings.TrimSpace(refined)
	}
	o.sess.SearchAttempts++

	o.sess.AddRecord("strategy_refinement",
		fmt.Sprintf("keywords %q → %q (attempt %d)", old, o.sess.Keywords, o.sess.SearchAttempts))
	return StatePlanningSearch, nil
}

// handleSynthesizing merges the partial results into the final report
// body. The merge always yields a defined string, so this state always
// completes.
func (o *Orchestrator) handleSynthesizing(ctx context.Context) (State, error) {
	results := o.sess.DrainResults()
	o.log.Info("synthesizing", zap.Int("partial_results", len(results)))

	merged := o.merger.Merge(ctx, o.sess.Query, results)
	o.sess.AppendResult(merged)

	o.sess.AddRecord("synthesis", fmt.Sprintf("merged %d partial results", len(results)))
	return StateCompleted, nil
}

// close releases collaborators the orchestrator built itself.
func (o *Orchestrator) close() {
	if o.ownsCache && o.cache != nil {
		if err := o.cache.Close(); err != nil {
			o.log.Warn("closing cache", zap.Error(err))
		}
	}
}
