package agents

// Strategy is the closed set of trade decision policies. It governs how
// aggressively a person spends on needed skills each step.
type Strategy uint8

const (
	// StrategyConservative spends only with ample reserves (0.7x threshold).
	StrategyConservative Strategy = iota
	// StrategyBalanced is the default market-rate behavior (1.0x).
	StrategyBalanced
	// StrategyAggressive stretches for skills it wants (1.3x threshold).
	// Strict balance still caps actual spending at current money.
	StrategyAggressive
	// StrategyFrugal hoards and spends as little as possible (0.5x).
	StrategyFrugal
)

// NumStrategies is the size of the closed variant set.
const NumStrategies = 4

// SpendingMultiplier scales how much of their money a person is willing to
// put toward a single skill purchase.
func (s Strategy) SpendingMultiplier() float64 {
	switch s {
	case StrategyConservative:
		return 0.7
	case StrategyAggressive:
		return 1.3
	case StrategyFrugal:
		return 0.5
	default:
		return 1.0
	}
}

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyConservative:
		return "conservative"
	case StrategyBalanced:
		return "balanced"
	case StrategyAggressive:
		return "aggressive"
	case StrategyFrugal:
		return "frugal"
	default:
		return "unknown"
	}
}
