// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/library-index/internal/llm"
)

// EmptySynthesis is the defined report body when there is nothing to merge.
const EmptySynthesis = "no content to synthesize"

const (
	mergeBaseTokens  = 1000
	mergeTokensStep  = 500
	mergeTokensCap   = 4000
	minUsefulContent = 50
)

// Merger reduces many partial analyses to one synthesis through pairwise
// binary-tree merging: ceil(log2 N) rounds, each pair merged by one model
// call under a per-level token budget, pairs running concurrently under
// the engine's worker bound.
type Merger struct {
	llm     llm.Client
	log     *zap.Logger
	workers int
	timeout time.Duration
}

// NewMerger returns a merger backed by the synthesis model.
func NewMerger(client llm.Client, workers int, timeout time.Duration, log *zap.Logger) *Merger {
	return &Merger{llm: client, workers: workers, timeout: timeout, log: log}
}

// Merge collapses texts to one string. Degenerate entries are dropped
// first; an empty remainder yields EmptySynthesis and a single survivor is
// returned unchanged. A failed pair merge falls back to the pair's first
// element, so a failure never aborts the round.
func (m *Merger) Merge(ctx context.Context, userQuery string, texts []string) string {
	var level0 []string
	for _, t := range texts {
		if filtered := filterInvalidContent(t); filtered != "" {
			level0 = append(level0, filtered)
		}
	}

	if len(level0) == 0 {
		return EmptySynthesis
	}
	if len(level0) == 1 {
		return level0[0]
	}

	current := level0
	for level := 1; len(current) > 1; level++ {
		// Budget grows with the level: fewer, denser passages higher up
		// the tree, so total token usage stays bounded for any width.
		budget := mergeBaseTokens + level*mergeTokensStep
		if budget > mergeTokensCap {
			budget = mergeTokensCap
		}

		m.log.Debug("merge round",
			zap.Int("level", level),
			zap.Int("fragments", len(current)),
			zap.Int("token_budget", budget))

		next := make([]string, (len(current)+1)/2)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(m.workers)

		for i := 0; i < len(current); i += 2 {
			slot := i / 2
			if i+1 >= len(current) {
				// Odd leftover carries through unmerged.
				next[slot] = current[i]
				continue
			}
			a, b := current[i], current[i+1]
			g.Go(func() error {
				mergeCtx, cancel := context.WithTimeout(gctx, m.timeout)
				defer cancel()
				next[slot] = m.mergePair(mergeCtx, userQuery, a, b, budget, level)
				return nil
			})
		}
		g.Wait()

		// Compact out pairs that merged to nothing.
		compacted := next[:0]
		for _, s := range next {
			if strings.TrimSpace(s) != "" {
				compacted = append(compacted, s)
			}
		}
		if len(compacted) == 0 {
			return level0[0]
		}
		current = compacted
	}

	return current[0]
}

// mergePair merges two passages with one model call. On any failure the
// first passage survives so the synthesis loses at most half a pair.
func (m *Merger) mergePair(ctx context.Context, userQuery, a, b string, budget, level int) string {
	merged, err := m.llm.Complete(ctx, []llm.Message{
		llm.System(fmt.Sprintf(mergeSystemPromptFmt, budget)),
		llm.User(fmt.Sprintf(mergeUserPromptFmt, userQuery, a, b)),
	}, llm.Options{Temperature: 0.3, MaxTokens: budget})
	if err != nil {
		m.log.Warn("pair merge failed, keeping first passage",
			zap.Int("level", level), zap.Error(err))
		return a
	}

	if filtered := filterInvalidContent(merged); filtered != "" {
		return filtered
	}
	return a
}

// noRelevancePatterns match the boilerplate a relevance model emits when a
// paper has nothing to do with the query. Passages dominated by these add
// noise and tokens to every merge above them.
var noRelevancePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)not\s+found.*?(connection|link|relation|association)`),
	regexp.MustCompile(`(?i)unable\s+to\s+find.*?(connection|link|relation|association)`),
	regexp.MustCompile(`(?i)cannot\s+(establish|create|make).*?(connection|link|relation|association)`),
	regexp.MustCompile(`(?i)lacks?\s+.*?(relevance|relevancy|relation|association)`),
	regexp.MustCompile(`(?i)no\s+.*?direct\s+(relation|link|connection)`),
	regexp.MustCompile(`(?i)no\s+related.*?(information|content|data)`),
	regexp.MustCompile(`(?i)cannot\s+determine.*?(relation|association|connection)`),
	regexp.MustCompile(`(?i)(sorry|apologies).*?(no|not\s+found|unable)`),
}

var (
	sentenceSplit = regexp.MustCompile(`[.!?\n]`)
	blankLines    = regexp.MustCompile(`\n\s*\n+`)
)

// filterInvalidContent drops passages that are mostly no-relevance
// boilerplate and strips matching sentences from the rest. Returns ""
// when nothing useful remains.
func filterInvalidContent(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	invalid := 0
	for _, p := range noRelevancePatterns {
		if p.MatchString(content) {
			invalid++
		}
	}
	sentences := len(sentenceSplit.Split(content, -1))
	if sentences > 0 && float64(invalid) > float64(sentences)*0.5 {
		return ""
	}

	filtered := content
	for _, p := range noRelevancePatterns {
		filtered = p.ReplaceAllString(filtered, "")
	}
	filtered = blankLines.ReplaceAllString(strings.TrimSpace(filtered), "\n")

	if len(strings.TrimSpace(filtered)) < minUsefulContent {
		return ""
	}
	return strings.TrimSpace(filtered)
}
