// Package engine implements the society simulation: trust updates,
// interaction rounds, population dynamics, coalition detection, metrics,
// event emission, and the instant/animated run drivers.
package engine

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/societysim/internal/agents"
)

// Topology names for pair selection each round.
const (
	TopologyAllPairs = "all_pairs" // every live pair interacts every round
	TopologySampled  = "sampled"   // a fixed number of random pairs per round
)

// RebirthKeepStrategy keeps a reborn agent on its previous strategy.
const RebirthKeepStrategy = "keep"

// PayoffMatrix holds the ATP deltas for the four interaction outcomes,
// classic prisoner's-dilemma shaped.
type PayoffMatrix struct {
	Reward     float64 `yaml:"reward" json:"reward"`         // both cooperate: each gains
	Temptation float64 `yaml:"temptation" json:"temptation"` // defect against a cooperator: defector gains
	Sucker     float64 `yaml:"sucker" json:"sucker"`         // cooperate against a defector: cooperator loses
	Punishment float64 `yaml:"punishment" json:"punishment"` // both defect: each loses
}

// TrustDeltas holds the per-outcome trust adjustments, always applied from
// the observer's perspective toward the observed.
type TrustDeltas struct {
	MutualCooperation float64 `yaml:"mutual_cooperation" json:"mutual_cooperation"` // positive
	Exploited         float64 `yaml:"exploited" json:"exploited"`                   // sharply negative
	SelfDefected      float64 `yaml:"self_defected" json:"self_defected"`           // mildly negative
	MutualDefection   float64 `yaml:"mutual_defection" json:"mutual_defection"`     // mildly negative
}

// HumanActionFunc supplies the action for a human-strategy agent. It must
// return immediately; any waiting on real input belongs to the caller's
// event loop, not the engine.
type HumanActionFunc func(self, opponent agents.AgentID) agents.Action

// Config holds every knob of a simulation run. Zero values are filled in
// from DefaultConfig by Normalize; Validate rejects contradictory settings
// before any round executes.
type Config struct {
	Seed int64 `yaml:"seed" json:"seed"`

	// Population. StrategyMix maps strategy name to agent count; when
	// empty, PopulationSize agents are dealt the default mix.
	PopulationSize int            `yaml:"population_size" json:"population_size"`
	StrategyMix    map[string]int `yaml:"strategy_mix" json:"strategy_mix,omitempty"`

	Epochs         int `yaml:"epochs" json:"epochs"`
	RoundsPerEpoch int `yaml:"rounds_per_epoch" json:"rounds_per_epoch"`

	InitialATP    float64 `yaml:"initial_atp" json:"initial_atp"`
	MetabolicCost float64 `yaml:"metabolic_cost" json:"metabolic_cost"` // ATP burned per agent per round
	InitialTrust  float64 `yaml:"initial_trust" json:"initial_trust"`   // first-interaction default

	Topology     string `yaml:"topology" json:"topology"`
	SampledPairs int    `yaml:"sampled_pairs" json:"sampled_pairs"` // pairs per round under TopologySampled

	Payoffs PayoffMatrix `yaml:"payoffs" json:"payoffs"`
	Trust   TrustDeltas  `yaml:"trust_deltas" json:"trust_deltas"`

	// Thresholds, all on the [0,1] trust scale.
	CautiousThreshold float64 `yaml:"cautious_threshold" json:"cautious_threshold"`
	CoalitionTrust    float64 `yaml:"coalition_trust" json:"coalition_trust"` // mutual trust for coalition membership
	CoalitionMinSize  int     `yaml:"coalition_min_size" json:"coalition_min_size"`
	ActiveTrust       float64 `yaml:"active_trust" json:"active_trust"`       // edge counts toward network density
	IsolationTrust    float64 `yaml:"isolation_trust" json:"isolation_trust"` // incoming mean below this isolates a defector
	CollapseTrust     float64 `yaml:"collapse_trust" json:"collapse_trust"`   // incoming mean below this kills at epoch end

	// Rebirth.
	RebirthTrust    float64 `yaml:"rebirth_trust" json:"rebirth_trust"` // minimum final standing to be reborn
	KarmaFraction   float64 `yaml:"karma_fraction" json:"karma_fraction"`
	RebirthStrategy string  `yaml:"rebirth_strategy" json:"rebirth_strategy"` // "keep" or a strategy name

	// Event detection.
	TrustCollapseDelta    float64 `yaml:"trust_collapse_delta" json:"trust_collapse_delta"`
	CooperationSurgeDelta float64 `yaml:"cooperation_surge_delta" json:"cooperation_surge_delta"`
	StableEpochs          int     `yaml:"stable_epochs" json:"stable_epochs"`
	StableCooperation     float64 `yaml:"stable_cooperation" json:"stable_cooperation"`
	StableVolatility      float64 `yaml:"stable_volatility" json:"stable_volatility"`

	// InteractionBuffer bounds how many interactions are retained per
	// epoch for display; rounds past the cap still update trust and ATP.
	InteractionBuffer int `yaml:"interaction_buffer" json:"interaction_buffer"`

	// HumanAction supplies actions for human-strategy agents. Nil means
	// human agents cooperate.
	HumanAction HumanActionFunc `yaml:"-" json:"-"`
}

// DefaultConfig returns the documented defaults for every field.
func DefaultConfig() Config {
	return Config{
		Seed:           42,
		PopulationSize: 12,
		Epochs:         10,
		RoundsPerEpoch: 5,
		InitialATP:     100,
		MetabolicCost:  1.0,
		InitialTrust:   0.5,
		Topology:       TopologyAllPairs,
		SampledPairs:   16,
		Payoffs: PayoffMatrix{
			Reward:     3,
			Temptation: 5,
			Sucker:     -2,
			Punishment: -1,
		},
		Trust: TrustDeltas{
			MutualCooperation: 0.08,
			Exploited:         -0.20,
			SelfDefected:      -0.02,
			MutualDefection:   -0.05,
		},
		CautiousThreshold:     0.5,
		CoalitionTrust:        0.65,
		CoalitionMinSize:      3,
		ActiveTrust:           0.3,
		IsolationTrust:        0.25,
		CollapseTrust:         0.12,
		RebirthTrust:          0.3,
		KarmaFraction:         0.5,
		RebirthStrategy:       RebirthKeepStrategy,
		TrustCollapseDelta:    0.15,
		CooperationSurgeDelta: 0.2,
		StableEpochs:          3,
		StableCooperation:     0.8,
		StableVolatility:      0.05,
		InteractionBuffer:     256,
	}
}

// defaultMixWeights deals PopulationSize agents across strategies when no
// explicit mix is configured. Remainder goes to cooperators.
var defaultMixWeights = map[agents.Strategy]float64{
	agents.StrategyCooperator:   0.4,
	agents.StrategyReciprocator: 0.2,
	agents.StrategyCautious:     0.2,
	agents.StrategyAdaptive:     0.1,
	agents.StrategyDefector:     0.1,
}

// Mix resolves the configured strategy distribution into per-strategy
// counts. Call only after Validate.
func (c *Config) Mix() map[agents.Strategy]int {
	mix := make(map[agents.Strategy]int, agents.NumStrategies)
	if len(c.StrategyMix) > 0 {
		for name, n := range c.StrategyMix {
			s, err := agents.ParseStrategy(name)
			if err != nil {
				panic(fmt.Sprintf("engine: unvalidated strategy mix: %v", err))
			}
			mix[s] = n
		}
		return mix
	}

	dealt := 0
	for s := agents.Strategy(0); s < agents.NumStrategies; s++ {
		w, ok := defaultMixWeights[s]
		if !ok {
			continue
		}
		n := int(float64(c.PopulationSize) * w)
		mix[s] = n
		dealt += n
	}
	mix[agents.StrategyCooperator] += c.PopulationSize - dealt
	return mix
}

// Validate checks the configuration before any round executes. It returns
// the first problem found.
func (c *Config) Validate() error {
	if len(c.StrategyMix) > 0 {
		total := 0
		for name, n := range c.StrategyMix {
			if _, err := agents.ParseStrategy(name); err != nil {
				return fmt.Errorf("strategy_mix: %w", err)
			}
			if n < 0 {
				return fmt.Errorf("strategy_mix: negative count %d for %q", n, name)
			}
			total += n
		}
		if total == 0 {
			return errors.New("strategy_mix: no agents configured")
		}
	} else if c.PopulationSize <= 0 {
		return fmt.Errorf("population_size must be positive, got %d", c.PopulationSize)
	}

	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be positive, got %d", c.Epochs)
	}
	if c.RoundsPerEpoch <= 0 {
		return fmt.Errorf("rounds_per_epoch must be positive, got %d", c.RoundsPerEpoch)
	}
	if c.InitialATP <= 0 {
		return fmt.Errorf("initial_atp must be positive, got %g", c.InitialATP)
	}
	if c.MetabolicCost < 0 {
		return fmt.Errorf("metabolic_cost must be non-negative, got %g", c.MetabolicCost)
	}

	switch c.Topology {
	case TopologyAllPairs:
	case TopologySampled:
		if c.SampledPairs <= 0 {
			return fmt.Errorf("sampled_pairs must be positive under %s topology, got %d", TopologySampled, c.SampledPairs)
		}
	default:
		return fmt.Errorf("unknown topology %q", c.Topology)
	}

	for _, t := range []struct {
		name string
		v    float64
	}{
		{"initial_trust", c.InitialTrust},
		{"cautious_threshold", c.CautiousThreshold},
		{"coalition_trust", c.CoalitionTrust},
		{"active_trust", c.ActiveTrust},
		{"isolation_trust", c.IsolationTrust},
		{"collapse_trust", c.CollapseTrust},
		{"rebirth_trust", c.RebirthTrust},
		{"karma_fraction", c.KarmaFraction},
		{"stable_cooperation", c.StableCooperation},
	} {
		if t.v < 0 || t.v > 1 {
			return fmt.Errorf("%s must be within [0,1], got %g", t.name, t.v)
		}
	}

	if c.CoalitionMinSize < 2 {
		return fmt.Errorf("coalition_min_size must be at least 2, got %d", c.CoalitionMinSize)
	}
	if c.Trust.MutualCooperation <= 0 {
		return fmt.Errorf("trust_deltas.mutual_cooperation must be positive, got %g", c.Trust.MutualCooperation)
	}
	if c.Trust.Exploited >= 0 {
		return fmt.Errorf("trust_deltas.exploited must be negative, got %g", c.Trust.Exploited)
	}
	if c.StableEpochs <= 0 {
		return fmt.Errorf("stable_epochs must be positive, got %d", c.StableEpochs)
	}
	if c.InteractionBuffer <= 0 {
		return fmt.Errorf("interaction_buffer must be positive, got %d", c.InteractionBuffer)
	}
	if c.RebirthStrategy != RebirthKeepStrategy {
		if _, err := agents.ParseStrategy(c.RebirthStrategy); err != nil {
			return fmt.Errorf("rebirth_strategy: %w", err)
		}
	}
	return nil
}

// LoadConfig returns a Config using the hierarchy: defaults < YAML.
// The YAML file is optional; a missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
