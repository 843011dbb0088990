// Package planner runs the multi-agent planning conversation: architect,
// critic, rebuttal and integrator turns cycle until the round limit or the
// cost ceiling ends the session.
package planner

// Phase is a step in the planning cycle.
type Phase string

const (
	PhaseArchitect  Phase = "architect"
	PhaseCritic     Phase = "critic"
	PhaseRebuttal   Phase = "rebuttal"
	PhaseIntegrator Phase = "integrator"
)

// SessionStatus tracks where a session is in its lifecycle.
type SessionStatus string

const (
	StatusInProgress       SessionStatus = "in_progress"
	StatusAwaitingFeedback SessionStatus = "awaiting_feedback"
	StatusCompleted        SessionStatus = "completed"
	StatusAborted          SessionStatus = "aborted"
)

// nextPhase returns the phase that follows current, or "" when the session
// is complete. After the integrator a new round starts only while rounds
// remain.
func nextPhase(current Phase, currentRound, maxRounds int) Phase {
	switch current {
	case PhaseArchitect:
		return PhaseCritic
	case PhaseCritic:
		return PhaseRebuttal
	case PhaseRebuttal:
		return PhaseIntegrator
	case PhaseIntegrator:
		if currentRound < maxRounds {
			return PhaseArchitect
		}
		return ""
	}
	return ""
}
