// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

// passage pads text to survive the minimum-content filter.
func passage(text string) string {
	return text + strings.Repeat(" The study reports detailed experimental findings", 3) + "."
}

func newTestMerger(fn func(system, user string) (string, error)) (*Merger, *fakeLLM) {
	f := &fakeLLM{fn: fn}
	return NewMerger(f, 4, time.Minute, zap.NewNop()), f
}

func TestMergeEmptyInput(t *testing.T) {
	m, _ := newTestMerger(nil)
	if got := m.Merge(context.Background(), "q", nil); got != EmptySynthesis {
		t.Errorf("Merge(nil) = %q, want %q", got, EmptySynthesis)
	}
	if got := m.Merge(context.Background(), "q", []string{"", "   "}); got != EmptySynthesis {
		t.Errorf("Merge(blank) = %q, want %q", got, EmptySynthesis)
	}
}

func TestMergeSingleSurvivorUnchanged(t *testing.T) {
	m, f := newTestMerger(nil)
	only := passage("Solo finding.")
	if got := m.Merge(context.Background(), "q", []string{only}); got != only {
		t.Errorf("Merge(single) = %q, want passage unchanged", got)
	}
	if len(f.calls) != 0 {
		t.Errorf("model called %d times for a single passage, want 0", len(f.calls))
	}
}

func TestMergeFourPassagesTwoRounds(t *testing.T) {
	merged := passage("Combined synthesis.")
	m, f := newTestMerger(func(_, _ string) (string, error) {
		return merged, nil
	})

	texts := []string{passage("A."), passage("B."), passage("C."), passage("D.")}
	got := m.Merge(context.Background(), "q", texts)
	if got != merged {
		t.Errorf("Merge() = %q, want final merged passage", got)
	}

	// Four passages need two rounds: two pair merges, then one.
	if len(f.calls) != 3 {
		t.Fatalf("model called %d times, want 3", len(f.calls))
	}
	if n := f.callCount(fmt.Sprintf(mergeSystemPromptFmt, 1500)); n != 2 {
		t.Errorf("first-round calls with 1500-token budget = %d, want 2", n)
	}
	if n := f.callCount(fmt.Sprintf(mergeSystemPromptFmt, 2000)); n != 1 {
		t.Errorf("second-round calls with 2000-token budget = %d, want 1", n)
	}
}

func TestMergeOddLeftoverCarries(t *testing.T) {
	var users []string
	m, _ := newTestMerger(func(_, user string) (string, error) {
		users = append(users, user)
		return passage("Merged pair."), nil
	})

	a, b, c := passage("A."), passage("B."), passage("C.")
	m.Merge(context.Background(), "q", []string{a, b, c})

	// Round one merges A+B; C carries through and meets the result in
	// round two.
	if len(users) != 2 {
		t.Fatalf("model called %d times, want 2", len(users))
	}
	if !strings.Contains(users[0], a) || !strings.Contains(users[0], b) {
		t.Errorf("first merge did not pair A and B: %q", users[0])
	}
	if !strings.Contains(users[1], c) {
		t.Errorf("second merge did not include the carried passage: %q", users[1])
	}
}

func TestMergeFailedPairKeepsFirstPassage(t *testing.T) {
	m, _ := newTestMerger(func(_, _ string) (string, error) {
		return "", fmt.Errorf("model unavailable")
	})

	a, b := passage("First."), passage("Second.")
	got := m.Merge(context.Background(), "q", []string{a, b})
	if got != a {
		t.Errorf("Merge() after pair failure = %q, want first passage", got)
	}
}

func TestMergeTokenBudgetIsCapped(t *testing.T) {
	m, f := newTestMerger(func(_, _ string) (string, error) {
		return passage("Merged."), nil
	})

	// Nine passages force four rounds; rounds past the sixth level would
	// exceed the cap, so the deepest observed budget must be 4000 or less.
	texts := make([]string, 9)
	for i := range texts {
		texts[i] = passage(fmt.Sprintf("Passage %d.", i))
	}
	m.Merge(context.Background(), "q", texts)

	for _, sys := range f.calls {
		var budget int
		if _, err := fmt.Sscanf(sys[strings.LastIndex(sys, "within ")+len("within "):], "%d", &budget); err != nil {
			t.Fatalf("could not parse budget from prompt: %v", err)
		}
		if budget > 4000 {
			t.Errorf("token budget %d exceeds cap", budget)
		}
		if budget < 1500 {
			t.Errorf("token budget %d below first-round budget", budget)
		}
	}
}

func TestFilterInvalidContent(t *testing.T) {
	useful := passage("The model achieves state of the art accuracy on the benchmark.")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "  \n ", ""},
		{"too short", "Too short.", ""},
		{"useful passage unchanged", useful, useful},
		{
			"mostly boilerplate dropped",
			"Unable to find any connection. Sorry, no relation.",
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filterInvalidContent(tt.in); got != tt.want {
				t.Errorf("filterInvalidContent(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFilterInvalidContentStripsBoilerplateSentence(t *testing.T) {
	in := useful2() + " Unable to find a connection."
	got := filterInvalidContent(in)
	if got == "" {
		t.Fatal("filterInvalidContent() dropped a mostly-useful passage")
	}
	if strings.Contains(got, "Unable to find") {
		t.Errorf("boilerplate survived filtering: %q", got)
	}
	if !strings.Contains(got, "ablation") {
		t.Errorf("useful content lost: %q", got)
	}
}

func useful2() string {
	return "The paper presents a thorough ablation over model depth. Results hold across three datasets and two architectures."
}
