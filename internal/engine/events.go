// Event detection — comparison of this epoch's metrics and coalition set
// against the previous epoch's. Events are append-only, immutable history,
// emitted in a deterministic order.
package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/talgya/societysim/internal/agents"
)

// EventType tags a notable occurrence.
type EventType string

const (
	EventCoalitionFormed       EventType = "coalition_formed"
	EventCoalitionDissolved    EventType = "coalition_dissolved"
	EventAgentDeath            EventType = "agent_death"
	EventAgentRebirth          EventType = "agent_rebirth"
	EventDefectorIsolated      EventType = "defector_isolated"
	EventTrustNetworkConnected EventType = "trust_network_connected"
	EventCooperationSurge      EventType = "cooperation_surge"
	EventTrustCollapse         EventType = "trust_collapse"
	EventStrategyShift         EventType = "strategy_shift"
	EventSocietyStable         EventType = "society_stable"
)

// Significance grades how notable an event is.
type Significance string

const (
	SignificanceLow    Significance = "low"
	SignificanceMedium Significance = "medium"
	SignificanceHigh   Significance = "high"
)

// Event is a discrete notable occurrence. Once emitted it is immutable.
type Event struct {
	Epoch        int              `json:"epoch"`
	Round        int              `json:"round"`
	Type         EventType        `json:"type"`
	Significance Significance     `json:"significance"`
	Message      string           `json:"message"`
	AgentIDs     []agents.AgentID `json:"agent_ids,omitempty"`
}

// detectEpochEvents compares the current epoch against the previous one
// and returns the newly raised events, already appended to the log. The
// isolated set is captured by the driver before isolation deaths run, so
// a defector can be reported isolated in the same epoch it is cast out.
func (s *Society) detectEpochEvents(epoch, round int, cur SocietyMetrics, coalitions []Coalition, isolated map[agents.AgentID]bool) []Event {
	record := epochRecord{
		metrics:    cur,
		coalitions: coalitions,
		isolated:   isolated,
		connected:  s.networkConnected(),
	}
	record.dominant, record.hasDominant = dominantStrategy(cur.StrategyCounts)

	var events []Event
	add := func(e Event) {
		e.Epoch = epoch
		e.Round = round
		events = append(events, s.emitted(e))
	}

	// Coalitions: a cluster with no majority-overlap predecessor formed;
	// a predecessor with no majority-overlap successor dissolved.
	for _, c := range coalitions {
		if s.prev != nil && anyMajority(c, s.prev.coalitions) {
			continue
		}
		add(Event{
			Type:         EventCoalitionFormed,
			Significance: SignificanceMedium,
			Message:      fmt.Sprintf("a coalition of %d formed: %s", c.Size(), s.memberNames(c.Members)),
			AgentIDs:     c.Members,
		})
	}
	if s.prev != nil {
		for _, c := range s.prev.coalitions {
			if anyMajority(c, coalitions) {
				continue
			}
			add(Event{
				Type:         EventCoalitionDissolved,
				Significance: SignificanceMedium,
				Message:      fmt.Sprintf("a coalition of %d dissolved: %s", c.Size(), s.memberNames(c.Members)),
				AgentIDs:     c.Members,
			})
		}
	}

	// Defectors crossing below the isolation threshold.
	for _, id := range sortedIDs(record.isolated) {
		if s.prev != nil && s.prev.isolated[id] {
			continue
		}
		a := s.index[id]
		add(Event{
			Type:         EventDefectorIsolated,
			Significance: SignificanceMedium,
			Message:      fmt.Sprintf("%s the defector has been isolated: nobody trusts them", a.Name),
			AgentIDs:     []agents.AgentID{id},
		})
	}

	if record.connected && (s.prev == nil || !s.prev.connected) {
		add(Event{
			Type:         EventTrustNetworkConnected,
			Significance: SignificanceMedium,
			Message:      fmt.Sprintf("the trust network now connects all %d living agents", cur.AliveCount),
		})
	}

	if s.prev != nil {
		if drop := s.prev.metrics.AverageTrust - cur.AverageTrust; drop > s.cfg.TrustCollapseDelta {
			add(Event{
				Type:         EventTrustCollapse,
				Significance: SignificanceHigh,
				Message:      fmt.Sprintf("average trust collapsed from %.2f to %.2f", s.prev.metrics.AverageTrust, cur.AverageTrust),
			})
		}
		if rise := cur.CooperationRate - s.prev.metrics.CooperationRate; rise > s.cfg.CooperationSurgeDelta {
			add(Event{
				Type:         EventCooperationSurge,
				Significance: SignificanceMedium,
				Message:      fmt.Sprintf("cooperation surged from %.0f%% to %.0f%%", s.prev.metrics.CooperationRate*100, cur.CooperationRate*100),
			})
		}
		if s.prev.hasDominant && record.hasDominant && s.prev.dominant != record.dominant {
			add(Event{
				Type:         EventStrategyShift,
				Significance: SignificanceLow,
				Message:      fmt.Sprintf("the dominant strategy shifted from %s to %s", s.prev.dominant, record.dominant),
			})
		}
	}

	// Sustained high cooperation with low trust volatility.
	stable := cur.CooperationRate >= s.cfg.StableCooperation &&
		s.prev != nil &&
		math.Abs(cur.AverageTrust-s.prev.metrics.AverageTrust) <= s.cfg.StableVolatility
	if stable {
		s.stableStreak++
	} else {
		s.stableStreak = 0
		s.stableSince = false
	}
	if s.stableStreak >= s.cfg.StableEpochs && !s.stableSince {
		s.stableSince = true
		add(Event{
			Type:         EventSocietyStable,
			Significance: SignificanceHigh,
			Message:      fmt.Sprintf("the society has stabilized: %d epochs of high cooperation", s.stableStreak),
		})
	}

	s.prev = &record
	return events
}

// isolatedDefectors returns the live defector-strategy agents whose mean
// incoming trust is below the isolation threshold.
func (s *Society) isolatedDefectors() map[agents.AgentID]bool {
	isolated := make(map[agents.AgentID]bool)
	for _, a := range s.alive() {
		if a.Strategy != agents.StrategyDefector {
			continue
		}
		if s.hasIncomingEdges(a.ID) && s.incomingTrust(a.ID) < s.cfg.IsolationTrust {
			isolated[a.ID] = true
		}
	}
	return isolated
}

// networkConnected reports whether the mutual active-trust graph spans
// every living agent.
func (s *Society) networkConnected() bool {
	live := s.alive()
	n := len(live)
	if n < 2 {
		return false
	}

	adj := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := live[i], live[j]
			if a.Trust[b.ID] > s.cfg.ActiveTrust && b.Trust[a.ID] > s.cfg.ActiveTrust {
				adj[i] = append(adj[i], j)
				adj[j] = append(adj[j], i)
			}
		}
	}

	seen := make([]bool, n)
	stack := []int{0}
	seen[0] = true
	count := 1
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, j := range adj[i] {
			if !seen[j] {
				seen[j] = true
				count++
				stack = append(stack, j)
			}
		}
	}
	return count == n
}

// dominantStrategy returns the most common live strategy, ties broken by
// enum order.
func dominantStrategy(counts map[string]int) (agents.Strategy, bool) {
	best, bestCount, found := agents.Strategy(0), 0, false
	for s := agents.Strategy(0); s < agents.NumStrategies; s++ {
		if n := counts[s.String()]; n > bestCount {
			best, bestCount, found = s, n, true
		}
	}
	return best, found
}

func anyMajority(c Coalition, others []Coalition) bool {
	for _, o := range others {
		if sharesMajority(c, o) {
			return true
		}
	}
	return false
}

func sortedIDs(set map[agents.AgentID]bool) []agents.AgentID {
	ids := make([]agents.AgentID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// memberNames renders a coalition roster for event messages.
func (s *Society) memberNames(ids []agents.AgentID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = s.index[id].Name
	}
	return strings.Join(names, ", ")
}
