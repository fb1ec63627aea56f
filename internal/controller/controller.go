// Package controller holds the per-screen state machines that sit
// between the transport layer and a presentation surface (the CLI
// here). Each controller owns its filter state, runs the idle, loading,
// then success-or-error lifecycle on every dependency change, and re-fetches the
// authoritative window after any mutation instead of patching local
// state. Loads carry a sequence token; a response that is no longer
// the latest issued is discarded so a stale slow fetch can never
// overwrite fresher state.
package controller

import "sync/atomic"

// Phase is the lifecycle of one screen's data.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

// loadGate hands out monotonically increasing sequence tokens. Only
// the holder of the latest token may commit its result.
type loadGate struct {
	seq atomic.Uint64
}

func (g *loadGate) begin() uint64 {
	return g.seq.Add(1)
}

func (g *loadGate) latest(token uint64) bool {
	return g.seq.Load() == token
}
