// Package agents provides the agent data model, the strategy decision
// function, and the population spawner.
package agents

import (
	"fmt"
	"sort"
)

// AgentID is a unique identifier for an agent slot. Slots survive death:
// a reborn agent keeps its id with Generation incremented, but is a
// logically new agent.
type AgentID uint64

// Action is one participant's realized choice in a pairwise interaction.
type Action uint8

const (
	ActionCooperate Action = 0
	ActionDefect    Action = 1
)

// String returns the lowercase action name.
func (a Action) String() string {
	if a == ActionCooperate {
		return "cooperate"
	}
	return "defect"
}

// Strategy is the fixed behavioral rule an agent uses to decide
// cooperate/defect each interaction. Immutable per agent-life.
type Strategy uint8

const (
	StrategyCooperator   Strategy = iota // Always cooperates
	StrategyDefector                     // Always defects
	StrategyReciprocator                 // Mirrors the opponent's previous action
	StrategyCautious                     // Cooperates only above a trust threshold
	StrategyAdaptive                     // Cooperates with probability equal to trust
	StrategyHuman                        // Action injected externally, never computed

	// NumStrategies is the number of strategy variants.
	NumStrategies = 6
)

var strategyNames = [NumStrategies]string{
	"cooperator", "defector", "reciprocator", "cautious", "adaptive", "human",
}

// String returns the lowercase strategy name.
func (s Strategy) String() string {
	if int(s) < len(strategyNames) {
		return strategyNames[s]
	}
	return fmt.Sprintf("strategy(%d)", uint8(s))
}

// Valid reports whether s is a known strategy variant.
func (s Strategy) Valid() bool {
	return int(s) < NumStrategies
}

// ParseStrategy converts a strategy name to its variant.
func ParseStrategy(name string) (Strategy, error) {
	for i, n := range strategyNames {
		if n == name {
			return Strategy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q", name)
}

// TrustEdge is one agent's directional trust toward a specific target.
// Trust is asymmetric: A's trust in B need not equal B's trust in A.
type TrustEdge struct {
	TargetID AgentID `json:"target_id"`
	Trust    float64 `json:"trust"`
}

// Agent is the core entity representing a participant in the society.
type Agent struct {
	ID       AgentID  `json:"id"`
	Name     string   `json:"name"`
	Strategy Strategy `json:"strategy"`

	// ATP is the agent's energy balance. Never negative at snapshot
	// points; hitting zero triggers death by exhaustion.
	ATP float64 `json:"atp"`

	// Reputation is the mean trust others currently hold in this agent.
	// Recomputed at snapshot boundaries, not independently stored state.
	Reputation float64 `json:"reputation"`

	// Generation starts at 1 and increments on each rebirth of this slot.
	Generation int `json:"generation"`

	// Trust holds this agent's directional trust toward agents it has
	// interacted with. Exposed to consumers as a sorted TrustEdge slice.
	Trust map[AgentID]float64 `json:"-"`

	Alive     bool `json:"alive"`
	BornEpoch int  `json:"born_epoch"`
	DiedEpoch int  `json:"died_epoch,omitempty"`

	// FinalStanding is the mean incoming trust recorded at the moment of
	// death; it decides rebirth eligibility. FinalATP is the balance at
	// death, the base for karma carry-over.
	FinalStanding float64 `json:"-"`
	FinalATP      float64 `json:"-"`
}

// TrustEdges returns the agent's trust edges sorted by target id.
func (a *Agent) TrustEdges() []TrustEdge {
	edges := make([]TrustEdge, 0, len(a.Trust))
	for id, t := range a.Trust {
		edges = append(edges, TrustEdge{TargetID: id, Trust: t})
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].TargetID < edges[j].TargetID })
	return edges
}

// TrustToward returns this agent's trust in target, or the supplied
// default when the pair has never interacted.
func (a *Agent) TrustToward(target AgentID, initial float64) float64 {
	if t, ok := a.Trust[target]; ok {
		return t
	}
	return initial
}
