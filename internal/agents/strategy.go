// Strategy decisions — pure mapping from strategy variant plus interaction
// context to a cooperate/defect action.
package agents

import "fmt"

// Decision carries everything a strategy may consult when choosing an
// action. All randomness and external input arrive through this struct so
// Decide stays pure.
type Decision struct {
	// Trust is the deciding agent's trust toward the opponent.
	Trust float64

	// LastOpponent is the opponent's action in the immediately preceding
	// interaction between this pair; only meaningful when HasHistory.
	LastOpponent Action
	HasHistory   bool

	// Roll is a uniform [0,1) draw consumed by StrategyAdaptive.
	Roll float64

	// Injected is the externally supplied action for StrategyHuman.
	// Waiting for human input is the driver's job, never this module's.
	Injected Action

	// CautiousThreshold is the minimum trust at which StrategyCautious
	// cooperates.
	CautiousThreshold float64
}

// Decide maps a strategy and decision context to an action.
//
// An unknown strategy is a configuration bug, not a recoverable game
// state, and panics.
func Decide(s Strategy, ctx Decision) Action {
	switch s {
	case StrategyCooperator:
		return ActionCooperate
	case StrategyDefector:
		return ActionDefect
	case StrategyReciprocator:
		if !ctx.HasHistory {
			return ActionCooperate
		}
		return ctx.LastOpponent
	case StrategyCautious:
		if ctx.Trust >= ctx.CautiousThreshold {
			return ActionCooperate
		}
		return ActionDefect
	case StrategyAdaptive:
		// Expected cooperation rate scales monotonically with trust.
		if ctx.Roll < ctx.Trust {
			return ActionCooperate
		}
		return ActionDefect
	case StrategyHuman:
		return ctx.Injected
	}
	panic(fmt.Sprintf("agents: invalid strategy %d", uint8(s)))
}
