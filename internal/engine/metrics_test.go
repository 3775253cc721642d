package engine

import (
	"math"
	"testing"

	"github.com/talgya/societysim/internal/agents"
)

func TestGini(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty population", nil, 0},
		{"single agent", []float64{50}, 0},
		{"all zero ATP", []float64{0, 0, 0}, 0},
		{"perfect equality", []float64{10, 10, 10, 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gini(tt.values)
			if math.IsNaN(got) {
				t.Fatal("gini returned NaN")
			}
			if got != tt.want {
				t.Errorf("gini(%v) = %g, want %g", tt.values, got, tt.want)
			}
		})
	}
}

func TestGiniInequalityOrdering(t *testing.T) {
	equalish := gini([]float64{45, 50, 55})
	skewed := gini([]float64{1, 1, 148})
	if equalish >= skewed {
		t.Errorf("mild spread gini %g should be below extreme spread gini %g", equalish, skewed)
	}
	if skewed <= 0 || skewed >= 1 {
		t.Errorf("gini %g should lie strictly within (0,1) for an unequal distribution", skewed)
	}
}

// newTestSociety builds a society with a hand-rolled roster, bypassing the
// spawner, for metric and coalition unit tests.
func newTestSociety(cfg Config, roster []*agents.Agent) *Society {
	index := make(map[agents.AgentID]*agents.Agent, len(roster))
	for _, a := range roster {
		index[a.ID] = a
	}
	return &Society{
		cfg:       cfg,
		roster:    roster,
		index:     index,
		lastMoves: make(map[dirKey]agents.Action),
	}
}

func testAgent(id agents.AgentID, strat agents.Strategy, atp float64) *agents.Agent {
	return &agents.Agent{
		ID:         id,
		Name:       "agent",
		Strategy:   strat,
		ATP:        atp,
		Generation: 1,
		Trust:      make(map[agents.AgentID]float64),
		Alive:      true,
		DiedEpoch:  -1,
	}
}

func TestComputeMetricsDegenerate(t *testing.T) {
	s := newTestSociety(DefaultConfig(), nil)
	m := s.computeMetrics(nil)

	for name, v := range map[string]float64{
		"average_trust":    m.AverageTrust,
		"cooperation_rate": m.CooperationRate,
		"gini":             m.GiniCoefficient,
		"network_density":  m.NetworkDensity,
	} {
		if math.IsNaN(v) {
			t.Errorf("%s is NaN with zero population", name)
		}
		if v != 0 {
			t.Errorf("%s = %g, want 0 with zero population", name, v)
		}
	}
	if m.AliveCount != 0 {
		t.Errorf("alive_count = %d, want 0", m.AliveCount)
	}
}

func TestComputeMetrics(t *testing.T) {
	cfg := DefaultConfig()
	a := testAgent(1, agents.StrategyCooperator, 10)
	b := testAgent(2, agents.StrategyCooperator, 30)
	c := testAgent(3, agents.StrategyDefector, 20)
	a.Trust[2] = 0.8
	b.Trust[1] = 0.6
	c.Trust[1] = 0.1 // below active threshold, excluded from density

	dead := testAgent(4, agents.StrategyDefector, 0)
	dead.Alive = false
	dead.Generation = 2
	a.Trust[4] = 0.9 // edge toward a dead agent must not count

	s := newTestSociety(cfg, []*agents.Agent{a, b, c, dead})
	s.interactions = []Interaction{
		{A: 1, B: 2, ActionA: agents.ActionCooperate, ActionB: agents.ActionCooperate},
		{A: 1, B: 3, ActionA: agents.ActionCooperate, ActionB: agents.ActionDefect},
	}

	m := s.computeMetrics(nil)

	if m.AliveCount != 3 {
		t.Errorf("alive_count = %d, want 3", m.AliveCount)
	}
	wantAvg := (0.8 + 0.6 + 0.1) / 3
	if math.Abs(m.AverageTrust-wantAvg) > 1e-9 {
		t.Errorf("average_trust = %g, want %g", m.AverageTrust, wantAvg)
	}
	// 3 of 4 actions cooperated.
	if math.Abs(m.CooperationRate-0.75) > 1e-9 {
		t.Errorf("cooperation_rate = %g, want 0.75", m.CooperationRate)
	}
	// 2 active edges of 3*2 possible.
	if math.Abs(m.NetworkDensity-2.0/6.0) > 1e-9 {
		t.Errorf("network_density = %g, want %g", m.NetworkDensity, 2.0/6.0)
	}
	if m.StrategyCounts["cooperator"] != 2 || m.StrategyCounts["defector"] != 1 {
		t.Errorf("strategy distribution wrong: %v", m.StrategyCounts)
	}
	// One rebirth across the roster (the dead generation-2 slot).
	if m.TotalGenerations != 1 {
		t.Errorf("total_generations = %d, want 1", m.TotalGenerations)
	}
}
