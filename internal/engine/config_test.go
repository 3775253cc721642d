package engine

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/talgya/societysim/internal/agents"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestMixExplicit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StrategyMix = map[string]int{"cooperator": 3, "defector": 2}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	mix := cfg.Mix()
	if mix[agents.StrategyCooperator] != 3 || mix[agents.StrategyDefector] != 2 {
		t.Errorf("mix = %v", mix)
	}
}

func TestMixDefaultWeightsCoverPopulation(t *testing.T) {
	for _, pop := range []int{1, 5, 12, 100} {
		cfg := DefaultConfig()
		cfg.PopulationSize = pop
		total := 0
		for _, n := range cfg.Mix() {
			total += n
		}
		if total != pop {
			t.Errorf("population %d: mix deals %d agents", pop, total)
		}
	}
}

func TestMixRemainderGoesToCooperators(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 12
	mix := cfg.Mix()
	// 12 * weights: cooperator 4, reciprocator 2, cautious 2, adaptive 1,
	// defector 1, leaving 2 undealt for the cooperators.
	if mix[agents.StrategyCooperator] != 6 {
		t.Errorf("cooperators = %d, want 6 after remainder", mix[agents.StrategyCooperator])
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{"negative population", func(c *Config) { c.PopulationSize = -1 }, "population_size"},
		{"zero epochs", func(c *Config) { c.Epochs = 0 }, "epochs"},
		{"zero rounds", func(c *Config) { c.RoundsPerEpoch = 0 }, "rounds_per_epoch"},
		{"zero starting ATP", func(c *Config) { c.InitialATP = 0 }, "initial_atp"},
		{"negative metabolic cost", func(c *Config) { c.MetabolicCost = -1 }, "metabolic_cost"},
		{"unknown topology", func(c *Config) { c.Topology = "mesh" }, "topology"},
		{"sampled without pair count", func(c *Config) { c.Topology = TopologySampled; c.SampledPairs = 0 }, "sampled_pairs"},
		{"trust out of range", func(c *Config) { c.InitialTrust = 1.5 }, "initial_trust"},
		{"karma out of range", func(c *Config) { c.KarmaFraction = -0.1 }, "karma_fraction"},
		{"coalition of one", func(c *Config) { c.CoalitionMinSize = 1 }, "coalition_min_size"},
		{"non-positive cooperation delta", func(c *Config) { c.Trust.MutualCooperation = 0 }, "mutual_cooperation"},
		{"non-negative exploited delta", func(c *Config) { c.Trust.Exploited = 0.1 }, "exploited"},
		{"unknown mix strategy", func(c *Config) { c.StrategyMix = map[string]int{"saint": 3} }, "strategy_mix"},
		{"negative mix count", func(c *Config) { c.StrategyMix = map[string]int{"cooperator": -2} }, "strategy_mix"},
		{"empty mix total", func(c *Config) { c.StrategyMix = map[string]int{"cooperator": 0} }, "strategy_mix"},
		{"unknown rebirth strategy", func(c *Config) { c.RebirthStrategy = "phoenix" }, "rebirth_strategy"},
		{"zero interaction buffer", func(c *Config) { c.InteractionBuffer = 0 }, "interaction_buffer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing config file must not be an error: %v", err)
	}
	if cfg.Seed != DefaultConfig().Seed {
		t.Errorf("seed = %d, want default %d", cfg.Seed, DefaultConfig().Seed)
	}
}

func TestLoadConfigOverlaysYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "societysim.yaml")
	doc := `
seed: 7
epochs: 20
strategy_mix:
  cooperator: 6
  defector: 2
payoffs:
  temptation: 9
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Seed != 7 || cfg.Epochs != 20 {
		t.Errorf("overrides not applied: seed=%d epochs=%d", cfg.Seed, cfg.Epochs)
	}
	if cfg.StrategyMix["cooperator"] != 6 || cfg.StrategyMix["defector"] != 2 {
		t.Errorf("strategy mix not applied: %v", cfg.StrategyMix)
	}
	if cfg.Payoffs.Temptation != 9 {
		t.Errorf("nested payoff override not applied: %g", cfg.Payoffs.Temptation)
	}
	// Untouched fields keep their defaults.
	if cfg.RoundsPerEpoch != DefaultConfig().RoundsPerEpoch {
		t.Errorf("rounds_per_epoch = %d, want default", cfg.RoundsPerEpoch)
	}
	if cfg.Payoffs.Reward != DefaultConfig().Payoffs.Reward {
		t.Errorf("payoffs.reward = %g, want default", cfg.Payoffs.Reward)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "societysim.yaml")
	if err := os.WriteFile(path, []byte("epochs: [not a number"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("malformed YAML must surface an error")
	}
}
