// Coalition detection — connected components of the mutual-trust graph.
package engine

import (
	"sort"

	"github.com/talgya/societysim/internal/agents"
)

// Coalition is an emergent cluster of mutually high-trust agents. It is
// recomputed fresh each epoch; identity across epochs exists only for the
// formed/continuing/dissolved comparison in the event detector.
type Coalition struct {
	Members []agents.AgentID `json:"members"` // ascending
}

// Size returns the member count.
func (c Coalition) Size() int { return len(c.Members) }

// contains reports membership via binary search (Members is sorted).
func (c Coalition) contains(id agents.AgentID) bool {
	i := sort.Search(len(c.Members), func(i int) bool { return c.Members[i] >= id })
	return i < len(c.Members) && c.Members[i] == id
}

// detectCoalitions thresholds both directions of trust for every live
// pair, then extracts connected components. Only edges that exist count:
// a pair that has never interacted shares no trust, whatever the default
// would be. Components below the minimum size are not coalitions. The
// result is ordered by size descending, then by smallest member id.
func (s *Society) detectCoalitions() []Coalition {
	live := s.alive()
	n := len(live)
	if n < 2 {
		return nil
	}

	// Union-find over roster positions.
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := live[i], live[j]
			ab, okAB := a.Trust[b.ID]
			ba, okBA := b.Trust[a.ID]
			if okAB && okBA && ab >= s.cfg.CoalitionTrust && ba >= s.cfg.CoalitionTrust {
				parent[find(i)] = find(j)
			}
		}
	}

	groups := make(map[int][]agents.AgentID)
	for i, a := range live {
		root := find(i)
		groups[root] = append(groups[root], a.ID)
	}

	var coalitions []Coalition
	for _, members := range groups {
		if len(members) < s.cfg.CoalitionMinSize {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		coalitions = append(coalitions, Coalition{Members: members})
	}

	sort.Slice(coalitions, func(i, j int) bool {
		if coalitions[i].Size() != coalitions[j].Size() {
			return coalitions[i].Size() > coalitions[j].Size()
		}
		return coalitions[i].Members[0] < coalitions[j].Members[0]
	})
	return coalitions
}

// sharesMajority reports whether a and b share at least half of the
// smaller coalition's members — the continuity test between epochs.
func sharesMajority(a, b Coalition) bool {
	shared := 0
	for _, id := range a.Members {
		if b.contains(id) {
			shared++
		}
	}
	smaller := min(a.Size(), b.Size())
	return shared*2 >= smaller
}
