// Simulation drivers. Run executes a full simulation synchronously; the
// Runner is the pull-based animated protocol: one frame per round, no
// timers, no goroutines, cancellation by simply not calling Next again.
// Run drains a Runner, so instant and animated runs are equivalent by
// construction.
package engine

import (
	"fmt"
	"log/slog"
)

// RunState tracks the driver's lifecycle. There is no cancelled state:
// cancellation is abandoning the Runner, which simply stays Running with
// nobody left to observe it.
type RunState uint8

const (
	StateConfigured RunState = iota // created, no round executed yet
	StateRunning                    // at least one frame produced
	StateCompleted                  // terminal frame delivered
)

// Runner advances a simulation one round per Next call. It holds no
// resources beyond in-memory state; abandoning it at any frame boundary
// is a complete cancellation.
type Runner struct {
	soc   *Society
	state RunState

	epoch, round int // next round to execute

	// lastEpochInteractions is the bounded buffer of the most recently
	// completed epoch, captured before the per-epoch reset.
	lastEpochInteractions []Interaction
}

// NewRunner validates the configuration and spawns the population. It
// fails fast: an invalid config never executes a round.
func NewRunner(cfg Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	return &Runner{soc: NewSociety(cfg)}, nil
}

// State returns the driver's lifecycle state.
func (r *Runner) State() RunState { return r.state }

// Events returns a copy of the cumulative event log so far.
func (r *Runner) Events() []Event {
	out := make([]Event, len(r.soc.events))
	copy(out, r.soc.events)
	return out
}

// Next executes one round and returns its frame. The terminal frame
// carries Done; afterwards Next returns nil. Frames are produced lazily,
// so any pacing between rounds belongs to the caller.
func (r *Runner) Next() *Frame {
	if r.state == StateCompleted {
		return nil
	}
	r.state = StateRunning

	cfg := r.soc.cfg
	epoch, round := r.epoch, r.round
	boundary := round == cfg.RoundsPerEpoch-1

	interactions, events := r.soc.runRound(epoch, round)

	frame := &Frame{
		Epoch:        epoch,
		Round:        round,
		Interactions: interactions,
		Events:       events,
	}

	if boundary {
		// Epoch-boundary processing, in a fixed order: isolation capture,
		// isolation deaths, coalition detection, metrics, event detection,
		// rebirths (reborn agents re-enter at the next round, after this
		// epoch's metrics are taken).
		isolated := r.soc.isolatedDefectors()
		frame.Events = append(frame.Events, r.soc.processIsolationDeaths(epoch, round)...)
		frame.Coalitions = r.soc.detectCoalitions()
		frame.Metrics = r.soc.computeMetrics(frame.Coalitions)
		frame.Events = append(frame.Events, r.soc.detectEpochEvents(epoch, round, frame.Metrics, frame.Coalitions, isolated)...)
		frame.Events = append(frame.Events, r.soc.processRebirths(epoch, round)...)

		r.lastEpochInteractions = r.soc.interactions
		r.soc.interactions = nil

		slog.Debug("epoch complete",
			"epoch", epoch,
			"alive", frame.Metrics.AliveCount,
			"avg_trust", fmt.Sprintf("%.3f", frame.Metrics.AverageTrust),
			"cooperation", fmt.Sprintf("%.3f", frame.Metrics.CooperationRate),
			"coalitions", frame.Metrics.NumCoalitions,
			"events", len(frame.Events),
		)
	} else {
		// Mid-epoch frames still carry coalitions and metrics-so-far.
		frame.Coalitions = r.soc.detectCoalitions()
		frame.Metrics = r.soc.computeMetrics(frame.Coalitions)
	}

	frame.Agents = r.soc.snapshotAgents(frame.Coalitions)

	r.round++
	if boundary {
		r.epoch++
		r.round = 0
	}
	if r.epoch == cfg.Epochs {
		frame.Done = true
		r.state = StateCompleted
	}
	return frame
}

// Run executes all configured epochs synchronously and returns the
// aggregate result.
func Run(cfg Config) (*Result, error) {
	r, err := NewRunner(cfg)
	if err != nil {
		return nil, err
	}

	result := &Result{Config: cfg}
	var epochEvents []Event

	for f := r.Next(); f != nil; f = r.Next() {
		epochEvents = append(epochEvents, f.Events...)
		if f.Round == cfg.RoundsPerEpoch-1 {
			result.Epochs = append(result.Epochs, EpochSnapshot{
				Epoch:        f.Epoch,
				Agents:       f.Agents,
				Coalitions:   f.Coalitions,
				Metrics:      f.Metrics,
				Interactions: r.lastEpochInteractions,
				Events:       epochEvents,
			})
			epochEvents = nil
		}
	}

	result.Events = r.Events()
	return result, nil
}
