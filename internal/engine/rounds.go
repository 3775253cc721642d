// Interaction round execution — pair selection, strategy decisions,
// payoff application, and directional trust updates.
package engine

import (
	"fmt"

	"github.com/talgya/societysim/internal/agents"
)

// selectPairs chooses this round's interacting pairs from the live roster
// in ascending id order. Under the sampled topology a fixed number of
// distinct pairs is drawn from the run's seeded RNG.
func (s *Society) selectPairs() [][2]*agents.Agent {
	live := s.alive()
	if len(live) < 2 {
		return nil
	}

	var pairs [][2]*agents.Agent
	for i := 0; i < len(live); i++ {
		for j := i + 1; j < len(live); j++ {
			pairs = append(pairs, [2]*agents.Agent{live[i], live[j]})
		}
	}

	if s.cfg.Topology == TopologySampled && s.cfg.SampledPairs < len(pairs) {
		s.rng.Shuffle(len(pairs), func(i, j int) {
			pairs[i], pairs[j] = pairs[j], pairs[i]
		})
		pairs = pairs[:s.cfg.SampledPairs]
	}
	return pairs
}

// runRound resolves every selected pair, applies the metabolic cost, and
// performs the round-level exhaustion death check. It returns this
// round's interactions and any events raised at this boundary.
func (s *Society) runRound(epoch, round int) ([]Interaction, []Event) {
	var roundInteractions []Interaction

	for _, pair := range s.selectPairs() {
		a, b := pair[0], pair[1]
		if !a.Alive || !b.Alive {
			// Dead mid-round: skip the pair silently.
			continue
		}

		actA := s.decide(a, b)
		actB := s.decide(b, a)

		// ATP may go negative transiently; clamp before it persists.
		payA, payB := s.payoffs(actA, actB)
		a.ATP = max(a.ATP+payA, 0)
		b.ATP = max(b.ATP+payB, 0)

		// Two directional updates, each from the observer's perspective.
		newA := UpdateTrust(a.TrustToward(b.ID, s.cfg.InitialTrust), actA, actB, s.cfg.Trust)
		newB := UpdateTrust(b.TrustToward(a.ID, s.cfg.InitialTrust), actB, actA, s.cfg.Trust)
		checkTrustBounds(a.ID, b.ID, newA)
		checkTrustBounds(b.ID, a.ID, newB)
		a.Trust[b.ID] = newA
		b.Trust[a.ID] = newB

		s.lastMoves[dirKey{From: a.ID, To: b.ID}] = actA
		s.lastMoves[dirKey{From: b.ID, To: a.ID}] = actB

		in := Interaction{
			Epoch: epoch, Round: round,
			A: a.ID, B: b.ID,
			ActionA: actA, ActionB: actB,
			PayoffA: payA, PayoffB: payB,
		}
		roundInteractions = append(roundInteractions, in)
		s.recordInteraction(in)
	}

	// Passage of time: every living agent burns ATP each round.
	for _, a := range s.alive() {
		a.ATP = max(a.ATP-s.cfg.MetabolicCost, 0)
	}

	// Exhaustion deaths are checked every round; isolation deaths only at
	// epoch boundaries (see processIsolationDeaths).
	var events []Event
	for _, a := range s.alive() {
		if a.ATP > 0 {
			continue
		}
		s.kill(a, epoch)
		events = append(events, s.emitted(Event{
			Epoch:        epoch,
			Round:        round,
			Type:         EventAgentDeath,
			Significance: SignificanceHigh,
			Message:      fmt.Sprintf("%s ran out of ATP and died (generation %d)", a.Name, a.Generation),
			AgentIDs:     []agents.AgentID{a.ID},
		}))
	}

	return roundInteractions, events
}

// decide resolves one side of an interaction.
func (s *Society) decide(self, opponent *agents.Agent) agents.Action {
	ctx := agents.Decision{
		Trust:             self.TrustToward(opponent.ID, s.cfg.InitialTrust),
		CautiousThreshold: s.cfg.CautiousThreshold,
		Injected:          agents.ActionCooperate,
	}
	if last, ok := s.lastMoves[dirKey{From: opponent.ID, To: self.ID}]; ok {
		ctx.LastOpponent = last
		ctx.HasHistory = true
	}
	if self.Strategy == agents.StrategyAdaptive {
		ctx.Roll = s.rng.Float64()
	}
	if self.Strategy == agents.StrategyHuman && s.cfg.HumanAction != nil {
		ctx.Injected = s.cfg.HumanAction(self.ID, opponent.ID)
	}
	return agents.Decide(self.Strategy, ctx)
}

// payoffs maps a pair of actions to ATP deltas.
func (s *Society) payoffs(a, b agents.Action) (float64, float64) {
	p := s.cfg.Payoffs
	switch {
	case a == agents.ActionCooperate && b == agents.ActionCooperate:
		return p.Reward, p.Reward
	case a == agents.ActionCooperate && b == agents.ActionDefect:
		return p.Sucker, p.Temptation
	case a == agents.ActionDefect && b == agents.ActionCooperate:
		return p.Temptation, p.Sucker
	default:
		return p.Punishment, p.Punishment
	}
}

// kill marks an agent dead, recording its final standing for the rebirth
// eligibility check.
func (s *Society) kill(a *agents.Agent, epoch int) {
	a.FinalStanding = s.incomingTrust(a.ID)
	a.FinalATP = a.ATP
	a.Alive = false
	a.DiedEpoch = epoch
}

// emitted appends e to the cumulative log and returns it for inclusion in
// the current frame.
func (s *Society) emitted(e Event) Event {
	s.emit(e)
	return e
}
