// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package engine

// State identifies one step of the research loop. Exactly one state is
// active at a time; handlers return the next state.
type State string

const (
	StateInitializing      State = "initializing"
	StateAnalyzingQuery    State = "analyzing_query"
	StatePlanningSearch    State = "planning_search"
	StateExecutingSearch   State = "executing_search"
	StateProcessingResults State = "processing_results"
	StateEvaluatingResults State = "evaluating_results"
	StateRefiningStrategy  State = "refining_strategy"
	StateSynthesizing      State = "synthesizing"
	StateCompleted         State = "completed"
	StateFailed            State = "failed"
)

// Terminal reports whether no further work is scheduled in this state.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}
