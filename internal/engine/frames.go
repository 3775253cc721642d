// Output data contracts — frames, epoch snapshots, and the full-run
// result handed to consumers. Consumers never mutate engine state; every
// snapshot is plain copied data.
package engine

import (
	"sort"

	"github.com/talgya/societysim/internal/agents"
)

// AgentSnapshot is one agent's externally visible state at a boundary.
type AgentSnapshot struct {
	ID            agents.AgentID     `json:"id"`
	Name          string             `json:"name"`
	Strategy      string             `json:"strategy"`
	ATP           float64            `json:"atp"`
	Reputation    float64            `json:"reputation"`
	Generation    int                `json:"generation"`
	Alive         bool               `json:"alive"`
	CoalitionSize int                `json:"coalition_size"` // same-coalition partners
	TrustEdges    []agents.TrustEdge `json:"trust_edges,omitempty"`
}

// Frame is one round's partial state in an animated run.
type Frame struct {
	Epoch        int             `json:"epoch"`
	Round        int             `json:"round"`
	Agents       []AgentSnapshot `json:"agents"`
	Coalitions   []Coalition     `json:"coalitions"`
	Metrics      SocietyMetrics  `json:"metrics"`
	Interactions []Interaction   `json:"interactions"` // this round only
	Events       []Event         `json:"events"`       // newly detected this round
	Done         bool            `json:"done"`
}

// EpochSnapshot is the full state at an epoch boundary.
type EpochSnapshot struct {
	Epoch        int             `json:"epoch"`
	Agents       []AgentSnapshot `json:"agents"`
	Coalitions   []Coalition     `json:"coalitions"`
	Metrics      SocietyMetrics  `json:"metrics"`
	Interactions []Interaction   `json:"interactions"` // bounded per-epoch buffer
	Events       []Event         `json:"events"`       // detected during this epoch
}

// Result is the aggregate of a completed run: every epoch's snapshot plus
// the cumulative, ordered event log.
type Result struct {
	Config Config          `json:"config"`
	Epochs []EpochSnapshot `json:"epochs"`
	Events []Event         `json:"events"`
}

// FinalMetrics returns the last epoch's metrics, or a zero value for an
// empty result.
func (r *Result) FinalMetrics() SocietyMetrics {
	if len(r.Epochs) == 0 {
		return SocietyMetrics{}
	}
	return r.Epochs[len(r.Epochs)-1].Metrics
}

// snapshotAgents copies the roster, dead slots included, refreshing
// reputation and coalition size as it goes.
func (s *Society) snapshotAgents(coalitions []Coalition) []AgentSnapshot {
	out := make([]AgentSnapshot, 0, len(s.roster))
	for _, a := range s.roster {
		snap := AgentSnapshot{
			ID:         a.ID,
			Name:       a.Name,
			Strategy:   a.Strategy.String(),
			ATP:        a.ATP,
			Generation: a.Generation,
			Alive:      a.Alive,
			TrustEdges: a.TrustEdges(),
		}
		if a.Alive {
			a.Reputation = s.incomingTrust(a.ID)
			snap.Reputation = a.Reputation
			for _, c := range coalitions {
				if c.contains(a.ID) {
					snap.CoalitionSize = c.Size() - 1
					break
				}
			}
		} else {
			snap.Reputation = a.FinalStanding
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
