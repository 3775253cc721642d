// Trust update rule. Trust is directional: the update is always computed
// from the observer's perspective toward the observed opponent.
package engine

import (
	"fmt"

	"golang.org/x/exp/constraints"

	"github.com/talgya/societysim/internal/agents"
)

// UpdateTrust returns the observer's new trust in the opponent after one
// interaction, clamped to [0,1].
//
//   - Both cooperated: trust rises.
//   - Observer cooperated, opponent defected: the observer was exploited,
//     trust drops sharply.
//   - Observer defected, opponent cooperated: mild drop — defecting gives
//     the observer no reason to believe in the opponent, only suspicion of
//     an easy mark.
//   - Both defected: mild drop, no new information beyond mutual distrust.
func UpdateTrust(current float64, self, opponent agents.Action, d TrustDeltas) float64 {
	var delta float64
	switch {
	case self == agents.ActionCooperate && opponent == agents.ActionCooperate:
		delta = d.MutualCooperation
	case self == agents.ActionCooperate && opponent == agents.ActionDefect:
		delta = d.Exploited
	case self == agents.ActionDefect && opponent == agents.ActionCooperate:
		delta = d.SelfDefected
	default:
		delta = d.MutualDefection
	}
	return clamp(current+delta, 0, 1)
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// checkTrustBounds panics on a trust value outside [0,1]. Every update
// site clamps, so a violation here is an engine bug and should surface
// loudly during testing rather than be silently clamped again.
func checkTrustBounds(from, to agents.AgentID, trust float64) {
	if trust < 0 || trust > 1 {
		panic(fmt.Sprintf("engine: trust %g from %d toward %d outside [0,1]", trust, from, to))
	}
}
