// Society metrics — pure derivation from the current roster, trust graph,
// and this epoch's interactions. All degenerate cases fall back to zero,
// never NaN.
package engine

import (
	"sort"

	"github.com/talgya/societysim/internal/agents"
)

// SocietyMetrics is the per-epoch aggregate snapshot.
type SocietyMetrics struct {
	AverageTrust     float64        `json:"average_trust"`     // mean over directed live-to-live trust edges
	CooperationRate  float64        `json:"cooperation_rate"`  // cooperating actions / total actions this epoch
	NumCoalitions    int            `json:"num_coalitions"`
	LargestCoalition int            `json:"largest_coalition"`
	AliveCount       int            `json:"alive_count"`
	GiniCoefficient  float64        `json:"gini_coefficient"` // inequality of the live ATP distribution
	NetworkDensity   float64        `json:"network_density"`  // active directed edges / n(n-1)
	StrategyCounts   map[string]int `json:"strategy_distribution"`
	TotalGenerations int            `json:"total_generations"` // sum of rebirths across all slots
}

// computeMetrics derives the epoch snapshot.
func (s *Society) computeMetrics(coalitions []Coalition) SocietyMetrics {
	live := s.alive()
	m := SocietyMetrics{
		NumCoalitions:  len(coalitions),
		AliveCount:     len(live),
		StrategyCounts: make(map[string]int, agents.NumStrategies),
	}
	for _, c := range coalitions {
		if c.Size() > m.LargestCoalition {
			m.LargestCoalition = c.Size()
		}
	}

	liveSet := make(map[agents.AgentID]bool, len(live))
	for _, a := range live {
		liveSet[a.ID] = true
		m.StrategyCounts[a.Strategy.String()]++
	}

	// Trust edges among living agents only. Iterate the sorted edge view,
	// not the map, so float accumulation order is reproducible.
	trustSum, trustEdges, activeEdges := 0.0, 0, 0
	for _, a := range live {
		for _, edge := range a.TrustEdges() {
			if !liveSet[edge.TargetID] {
				continue
			}
			trustSum += edge.Trust
			trustEdges++
			if edge.Trust > s.cfg.ActiveTrust {
				activeEdges++
			}
		}
	}
	if trustEdges > 0 {
		m.AverageTrust = trustSum / float64(trustEdges)
	}
	if n := len(live); n > 1 {
		m.NetworkDensity = float64(activeEdges) / float64(n*(n-1))
	}

	coop, total := 0, 0
	for _, in := range s.interactions {
		total += 2
		if in.ActionA == agents.ActionCooperate {
			coop++
		}
		if in.ActionB == agents.ActionCooperate {
			coop++
		}
	}
	if total > 0 {
		m.CooperationRate = float64(coop) / float64(total)
	}

	atp := make([]float64, len(live))
	for i, a := range live {
		atp[i] = a.ATP
	}
	m.GiniCoefficient = gini(atp)

	for _, a := range s.roster {
		m.TotalGenerations += a.Generation - 1
	}
	return m
}

// gini computes the standard Gini coefficient of a distribution. Zero
// population, single agent, or an all-zero distribution all yield 0.
func gini(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum, weighted float64
	for i, v := range sorted {
		sum += v
		weighted += float64(i+1) * v
	}
	if sum == 0 {
		return 0
	}
	return (2*weighted)/(float64(n)*sum) - float64(n+1)/float64(n)
}
