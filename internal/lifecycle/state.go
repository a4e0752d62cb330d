// Package lifecycle implements the fixed governance state machine.
//
// Repository changes move through an ordered lifecycle:
//
//	NEW_IDEA → DISCOVERY_RUNNING → EVOLUTION_COMPLETE → BUILD_RUNNING
//	         → VALIDATION → APPROVAL → RELEASED
//
// The graph is hardcoded: each state has exactly one legal successor and
// RELEASED is terminal. Validating a transition and advancing the state
// document are two distinct operations; validation never mutates the
// state document, it only appends to the transition history.
package lifecycle

import (
	"errors"
	"fmt"
)

// State is one node in the governance lifecycle graph.
type State string

// The fixed lifecycle states, in order.
const (
	NewIdea           State = "NEW_IDEA"
	DiscoveryRunning  State = "DISCOVERY_RUNNING"
	EvolutionComplete State = "EVOLUTION_COMPLETE"
	BuildRunning      State = "BUILD_RUNNING"
	Validation        State = "VALIDATION"
	Approval          State = "APPROVAL"
	Released          State = "RELEASED"
)

// successors is the fixed adjacency table. RELEASED is terminal: its
// successor set is empty and every transition out of it is illegal.
var successors = map[State][]State{
	NewIdea:           {DiscoveryRunning},
	DiscoveryRunning:  {EvolutionComplete},
	EvolutionComplete: {BuildRunning},
	BuildRunning:      {Validation},
	Validation:        {Approval},
	Approval:          {Released},
	Released:          {},
}

// States returns all lifecycle states in graph order.
func States() []State {
	return []State{NewIdea, DiscoveryRunning, EvolutionComplete, BuildRunning, Validation, Approval, Released}
}

// Known reports whether s is a member of the lifecycle enumeration.
func Known(s State) bool {
	_, ok := successors[s]
	return ok
}

// Errors for transition validation. ErrMissingCurrent and ErrUnknownState
// mean the state document itself is malformed; they are fatal, unlike
// ErrIllegalTransition which is an ordinary check failure.
var (
	ErrMissingCurrent    = errors.New("'current' field is missing from state document")
	ErrUnknownState      = errors.New("unknown lifecycle state")
	ErrIllegalTransition = errors.New("illegal state transition")
)

// Decision reports the outcome of validating a requested transition.
type Decision int

const (
	// NoTransition means next was empty: nothing requested, not an error.
	NoTransition Decision = iota
	// Legal means the requested edge exists in the lifecycle graph.
	Legal
)

// Validate checks whether the transition current → next is legal.
//
// An empty next yields NoTransition with no error. An empty or unknown
// current is a fatal document problem. An edge outside the adjacency
// table yields ErrIllegalTransition naming the attempted edge and the
// full allowed-successor set.
func Validate(current, next State) (Decision, error) {
	if current == "" {
		return NoTransition, ErrMissingCurrent
	}
	if !Known(current) {
		return NoTransition, fmt.Errorf("%w: %q", ErrUnknownState, current)
	}
	allowed := successors[current]
	if next == "" {
		return NoTransition, nil
	}

	for _, s := range allowed {
		if s == next {
			return Legal, nil
		}
	}
	return NoTransition, fmt.Errorf("%w: %s → %s (allowed: %v)", ErrIllegalTransition, current, next, allowed)
}
