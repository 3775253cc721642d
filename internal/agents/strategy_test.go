package agents

import "testing"

func TestDecideFixedStrategies(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		ctx      Decision
		want     Action
	}{
		{"cooperator always cooperates", StrategyCooperator, Decision{Trust: 0}, ActionCooperate},
		{"cooperator ignores history", StrategyCooperator, Decision{LastOpponent: ActionDefect, HasHistory: true}, ActionCooperate},
		{"defector always defects", StrategyDefector, Decision{Trust: 1}, ActionDefect},
		{"reciprocator cooperates with no history", StrategyReciprocator, Decision{}, ActionCooperate},
		{"reciprocator mirrors cooperation", StrategyReciprocator, Decision{LastOpponent: ActionCooperate, HasHistory: true}, ActionCooperate},
		{"reciprocator mirrors defection", StrategyReciprocator, Decision{LastOpponent: ActionDefect, HasHistory: true}, ActionDefect},
		{"cautious cooperates above threshold", StrategyCautious, Decision{Trust: 0.7, CautiousThreshold: 0.5}, ActionCooperate},
		{"cautious cooperates at threshold", StrategyCautious, Decision{Trust: 0.5, CautiousThreshold: 0.5}, ActionCooperate},
		{"cautious defects below threshold", StrategyCautious, Decision{Trust: 0.3, CautiousThreshold: 0.5}, ActionDefect},
		{"adaptive cooperates on low roll", StrategyAdaptive, Decision{Trust: 0.8, Roll: 0.5}, ActionCooperate},
		{"adaptive defects on high roll", StrategyAdaptive, Decision{Trust: 0.3, Roll: 0.9}, ActionDefect},
		{"adaptive at zero trust always defects", StrategyAdaptive, Decision{Trust: 0, Roll: 0}, ActionDefect},
		{"human returns injected cooperate", StrategyHuman, Decision{Injected: ActionCooperate}, ActionCooperate},
		{"human returns injected defect", StrategyHuman, Decision{Injected: ActionDefect}, ActionDefect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.strategy, tt.ctx); got != tt.want {
				t.Errorf("Decide(%s) = %s, want %s", tt.strategy, got, tt.want)
			}
		})
	}
}

func TestAdaptiveCooperationScalesWithTrust(t *testing.T) {
	// Sweep the roll space at two trust levels: the higher-trust agent
	// must cooperate at least as often at every roll, and strictly more
	// often overall.
	lowCoop, highCoop := 0, 0
	for i := 0; i < 100; i++ {
		roll := float64(i) / 100.0
		if Decide(StrategyAdaptive, Decision{Trust: 0.2, Roll: roll}) == ActionCooperate {
			lowCoop++
		}
		if Decide(StrategyAdaptive, Decision{Trust: 0.8, Roll: roll}) == ActionCooperate {
			highCoop++
		}
	}
	if highCoop <= lowCoop {
		t.Errorf("adaptive cooperation should scale with trust: low=%d high=%d", lowCoop, highCoop)
	}
}

func TestDecideInvalidStrategyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on invalid strategy")
		}
	}()
	Decide(Strategy(99), Decision{})
}

func TestParseStrategy(t *testing.T) {
	for s := Strategy(0); s < NumStrategies; s++ {
		parsed, err := ParseStrategy(s.String())
		if err != nil {
			t.Fatalf("ParseStrategy(%q): %v", s.String(), err)
		}
		if parsed != s {
			t.Errorf("ParseStrategy(%q) = %v, want %v", s.String(), parsed, s)
		}
	}
	if _, err := ParseStrategy("nonsense"); err == nil {
		t.Error("expected error for unknown strategy name")
	}
}
