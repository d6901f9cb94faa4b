// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/library-index/internal/llm"
)

// Planner turns the session's keyword vocabulary into index query strings
// and scores result quality for the evaluation transition.
type Planner struct {
	llm llm.Client
	log *zap.Logger
}

// NewPlanner returns a planner backed by the query-analysis model.
func NewPlanner(client llm.Client, log *zap.Logger) *Planner {
	return &Planner{llm: client, log: log}
}

// Plan produces query strings for keywords. It never returns a string
// byte-identical to one already recorded in the session history; that is a
// hard contract, independent of whatever the model suggests. When the
// model yields nothing usable, the keywords themselves become the single
// fallback query. An empty plan is an error: the engine cannot search with
// nothing.
func (p *Planner) Plan(ctx context.Context, keywords string, past map[string]bool) ([]string, error) {
	candidates, err := p.propose(ctx, keywords)
	if err != nil {
		p.log.Warn("query planning model failed, using keyword fallback", zap.Error(err))
	}

	seen := make(map[string]bool)
	var queries []string
	for _, q := range candidates {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] || past[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
	}

	if len(queries) == 0 {
		fallback := strings.TrimSpace(keywords)
		if fallback != "" && !past[fallback] {
			queries = append(queries, fallback)
		}
	}

	if len(queries) == 0 {
		return nil, fmt.Errorf("no new query strings for keywords %q (all candidates already tried)", keywords)
	}
	return queries, nil
}

// propose asks the model for query expressions, one per line.
func (p *Planner) propose(ctx context.Context, keywords string) ([]string, error) {
	if p.llm == nil {
		return nil, fmt.Errorf("no query model configured")
	}

	out, err := p.llm.Complete(ctx, []llm.Message{
		llm.System(planSystemPrompt),
		llm.User(keywords),
	}, llm.Options{Temperature: 0.3})
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "- "))
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// Score returns the quality signal the evaluation transition consumes:
// the analysis success ratio in [0,1].
func (p *Planner) Score(m Metrics) float64 {
	return m.SuccessRate()
}
