// Agent spawning — creates the initial population from a strategy mix and
// handles rebirth of dead agent slots.
package agents

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Spawner creates agents for a simulation run. All randomness is derived
// from the run seed so identical seeds produce identical populations.
type Spawner struct {
	rng    *rand.Rand
	noise  opensimplex.Noise
	nextID AgentID
}

// NewSpawner creates an agent spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng:    rand.New(rand.NewSource(seed + 300)),
		noise:  opensimplex.NewNormalized(seed + 301),
		nextID: 1,
	}
}

// SpawnPopulation creates the starting roster from per-strategy counts.
// Agents are issued ids in strategy-enum order so a given mix and seed
// always produce the same roster.
func (s *Spawner) SpawnPopulation(mix map[Strategy]int, initialATP float64) []*Agent {
	var roster []*Agent
	for strat := Strategy(0); strat < NumStrategies; strat++ {
		for i := 0; i < mix[strat]; i++ {
			roster = append(roster, s.spawnOne(strat, initialATP))
		}
	}
	return roster
}

func (s *Spawner) spawnOne(strat Strategy, initialATP float64) *Agent {
	id := s.nextID
	s.nextID++

	return &Agent{
		ID:         id,
		Name:       s.generateName(),
		Strategy:   strat,
		ATP:        s.dispositionATP(id, initialATP),
		Generation: 1,
		Trust:      make(map[AgentID]float64),
		Alive:      true,
		BornEpoch:  0,
		DiedEpoch:  -1,
	}
}

// dispositionATP varies starting ATP per agent with smooth simplex noise
// (±10% around the configured value) so the opening Gini is not exactly
// zero unless every agent shares one slot on the noise field.
func (s *Spawner) dispositionATP(id AgentID, initialATP float64) float64 {
	n := s.noise.Eval2(float64(id)*0.618, 0.5) // normalized to [0,1]
	return initialATP * (0.9 + 0.2*n)
}

// Respawn rebuilds a dead agent slot as a new life: generation increments,
// trust edges reset to fresh defaults, and the caller supplies the
// karma-carried ATP. The slot keeps its id and name lineage.
func (s *Spawner) Respawn(a *Agent, atp float64, epoch int, strat Strategy) {
	a.Strategy = strat
	a.ATP = atp
	a.Reputation = 0
	a.Generation++
	a.Trust = make(map[AgentID]float64)
	a.Alive = true
	a.BornEpoch = epoch
	a.DiedEpoch = -1
	a.FinalStanding = 0
}
