// Population dynamics — epoch-boundary isolation deaths and rebirth of
// dead agent slots with karma carry-over.
package engine

import (
	"fmt"

	"github.com/talgya/societysim/internal/agents"
)

// processIsolationDeaths kills agents whose mean incoming trust has
// collapsed below the configured threshold. Evaluated only at epoch
// boundaries; exhaustion deaths are the round-level check. Agents nobody
// has interacted with yet are spared — isolation requires having been
// judged.
func (s *Society) processIsolationDeaths(epoch, round int) []Event {
	var events []Event
	for _, a := range s.alive() {
		if !s.hasIncomingEdges(a.ID) {
			continue
		}
		if s.incomingTrust(a.ID) >= s.cfg.CollapseTrust {
			continue
		}
		s.kill(a, epoch)
		events = append(events, s.emitted(Event{
			Epoch:        epoch,
			Round:        round,
			Type:         EventAgentDeath,
			Significance: SignificanceHigh,
			Message:      fmt.Sprintf("%s was cast out — trust in them collapsed to %.2f", a.Name, a.FinalStanding),
			AgentIDs:     []agents.AgentID{a.ID},
		}))
	}
	return events
}

// processRebirths re-enters eligible dead slots at the epoch boundary.
// Eligibility: final standing at death met the rebirth threshold. The new
// life keeps the id slot, increments generation, carries karma-fraction
// ATP, and starts with fresh trust edges. Ineligible slots stay dead for
// the rest of the run.
func (s *Society) processRebirths(epoch, round int) []Event {
	var events []Event
	for _, a := range s.roster {
		if a.Alive || a.DiedEpoch < 0 {
			continue
		}
		if a.FinalStanding < s.cfg.RebirthTrust {
			continue
		}

		atp := a.FinalATP * s.cfg.KarmaFraction
		if atp <= 0 {
			// Died broke: karma applies to the starting stake instead, so
			// a reborn agent is never stillborn.
			atp = s.cfg.InitialATP * s.cfg.KarmaFraction
		}

		strat := a.Strategy
		if s.cfg.RebirthStrategy != RebirthKeepStrategy {
			// Validated at config time; cannot fail here.
			parsed, err := agents.ParseStrategy(s.cfg.RebirthStrategy)
			if err != nil {
				panic(fmt.Sprintf("engine: unvalidated rebirth strategy: %v", err))
			}
			strat = parsed
		}

		s.spawner.Respawn(a, atp, epoch+1, strat)
		s.forgetPairHistory(a.ID)

		// Others' trust toward the previous life is history about someone
		// who no longer exists; drop those edges too.
		for _, other := range s.roster {
			delete(other.Trust, a.ID)
		}

		events = append(events, s.emitted(Event{
			Epoch:        epoch,
			Round:        round,
			Type:         EventAgentRebirth,
			Significance: SignificanceMedium,
			Message:      fmt.Sprintf("%s is reborn (generation %d) carrying %.0f ATP of karma", a.Name, a.Generation, atp),
			AgentIDs:     []agents.AgentID{a.ID},
		}))
	}
	return events
}
