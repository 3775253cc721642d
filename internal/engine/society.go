// Society state — the roster, trust graph, pair histories, and event log
// for one simulation run. Each run owns its state exclusively; nothing is
// shared between concurrent runs.
package engine

import (
	"math/rand"
	"sort"

	"github.com/talgya/societysim/internal/agents"
)

// Interaction is one pairwise encounter within a round.
type Interaction struct {
	Epoch   int             `json:"epoch"`
	Round   int             `json:"round"`
	A       agents.AgentID  `json:"a"`
	B       agents.AgentID  `json:"b"`
	ActionA agents.Action   `json:"action_a"`
	ActionB agents.Action   `json:"action_b"`
	PayoffA float64         `json:"payoff_a"`
	PayoffB float64         `json:"payoff_b"`
}

// dirKey identifies a directed pair: the action From played against To.
type dirKey struct {
	From, To agents.AgentID
}

// epochRecord is the slice of the previous epoch the event detector
// compares against.
type epochRecord struct {
	metrics    SocietyMetrics
	coalitions []Coalition
	isolated   map[agents.AgentID]bool
	connected  bool
	dominant   agents.Strategy
	hasDominant bool
}

// Society holds the complete state of one run.
type Society struct {
	cfg     Config
	rng     *rand.Rand
	spawner *agents.Spawner

	roster []*agents.Agent
	index  map[agents.AgentID]*agents.Agent

	// lastMoves records, per directed pair, the most recent action From
	// played against To. Consulted by reciprocators; reset on rebirth.
	lastMoves map[dirKey]agents.Action

	// interactions is this epoch's bounded display buffer.
	interactions []Interaction

	events       []Event // cumulative, append-only
	prev         *epochRecord
	stableStreak int
	stableSince  bool // society_stable already emitted for the current streak
}

// NewSociety spawns the configured population. The config must already be
// validated.
func NewSociety(cfg Config) *Society {
	spawner := agents.NewSpawner(cfg.Seed)
	roster := spawner.SpawnPopulation(cfg.Mix(), cfg.InitialATP)

	index := make(map[agents.AgentID]*agents.Agent, len(roster))
	for _, a := range roster {
		index[a.ID] = a
	}

	return &Society{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		spawner:   spawner,
		roster:    roster,
		index:     index,
		lastMoves: make(map[dirKey]agents.Action),
	}
}

// alive returns the living agents in ascending id order.
func (s *Society) alive() []*agents.Agent {
	out := make([]*agents.Agent, 0, len(s.roster))
	for _, a := range s.roster {
		if a.Alive {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// incomingTrust returns the mean trust living agents hold toward id,
// counting only edges that exist. With no incoming edges the configured
// initial trust is returned: an agent nobody has met is neutral, not
// shunned.
func (s *Society) incomingTrust(id agents.AgentID) float64 {
	sum, n := 0.0, 0
	for _, other := range s.roster {
		if !other.Alive || other.ID == id {
			continue
		}
		if t, ok := other.Trust[id]; ok {
			sum += t
			n++
		}
	}
	if n == 0 {
		return s.cfg.InitialTrust
	}
	return sum / float64(n)
}

// hasIncomingEdges reports whether any living agent holds a trust edge
// toward id.
func (s *Society) hasIncomingEdges(id agents.AgentID) bool {
	for _, other := range s.roster {
		if other.Alive && other.ID != id {
			if _, ok := other.Trust[id]; ok {
				return true
			}
		}
	}
	return false
}

// recordInteraction appends to the bounded per-epoch display buffer.
// Overflow is dropped; trust and ATP effects were already applied.
func (s *Society) recordInteraction(in Interaction) {
	if len(s.interactions) < s.cfg.InteractionBuffer {
		s.interactions = append(s.interactions, in)
	}
}

// forgetPairHistory drops every pair history involving id, called on
// rebirth so the new life starts with a clean slate.
func (s *Society) forgetPairHistory(id agents.AgentID) {
	for k := range s.lastMoves {
		if k.From == id || k.To == id {
			delete(s.lastMoves, k)
		}
	}
}

// emit appends an event to the cumulative log.
func (s *Society) emit(e Event) {
	s.events = append(s.events, e)
}
