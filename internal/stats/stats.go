// Package stats turns final entity state into aggregate run statistics:
// trade volume, money distribution, and inequality metrics.
package stats

import (
	"math"
	"sort"

	"github.com/talgya/agora/internal/agents"
)

// TradeVolumeStats summarizes trading activity across the whole run.
type TradeVolumeStats struct {
	// TotalTrades counts each matched trade once, even though it is logged
	// symmetrically on both participants.
	TotalTrades  int     `json:"total_trades"`
	AveragePrice float64 `json:"average_price"` // 0 when no trades occurred
	TotalVolume  float64 `json:"total_volume"`
}

// MoneyStats describes the final money distribution over all entities,
// active and inactive. Inactive entities stay in the denominator so the
// figures are survivorship-aware.
type MoneyStats struct {
	Average         float64 `json:"average"`
	Median          float64 `json:"median"`
	Min             float64 `json:"min"`
	Max             float64 `json:"max"`
	StdDev          float64 `json:"std_dev"`
	GiniCoefficient float64 `json:"gini_coefficient"`
}

// InequalityMetrics holds the broader wealth inequality figures, computed
// over money plus owned skill value. This Gini is independent of the money
// one and the two are not assumed equal.
type InequalityMetrics struct {
	GiniCoefficient float64 `json:"gini_coefficient"`
	Top10Share      float64 `json:"top_10_percent_share"`
	Bottom50Share   float64 `json:"bottom_50_percent_share"`
}

// SimulationResult is produced once at run completion and immutable after.
type SimulationResult struct {
	Steps           int               `json:"steps"`
	ActiveEntities  int               `json:"active_entities"`
	TotalEntities   int               `json:"total_entities"`
	FeesCollected   float64           `json:"fees_collected"`
	TaxesCollected  float64           `json:"taxes_collected"`
	TradeVolume     TradeVolumeStats  `json:"trade_volume_statistics"`
	MoneyStatistics MoneyStats        `json:"money_statistics"`
	Inequality      InequalityMetrics `json:"inequality_metrics"`
}

// WealthSnapshot is one step's distribution summary, for time-series
// recording alongside the terminal result.
type WealthSnapshot struct {
	Step    int     `json:"step"`
	Average float64 `json:"average"`
	Gini    float64 `json:"gini"`
	Trades  int     `json:"trades"`
	Volume  float64 `json:"volume"`
}

// Aggregate computes the SimulationResult from the entity arena and the
// engine's run accumulators. It is a pure function of its inputs and never
// fails on well-formed state; degenerate cases yield defined sentinels.
func Aggregate(entities []*agents.Person, steps, totalTrades int, totalVolume, fees, taxes float64) SimulationResult {
	money := make([]float64, 0, len(entities))
	wealth := make([]float64, 0, len(entities))
	active := 0
	for _, p := range entities {
		money = append(money, p.Money)
		wealth = append(wealth, p.Wealth())
		if p.Active {
			active++
		}
	}

	avgPrice := 0.0
	if totalTrades > 0 {
		avgPrice = totalVolume / float64(totalTrades)
	}

	return SimulationResult{
		Steps:          steps,
		ActiveEntities: active,
		TotalEntities:  len(entities),
		FeesCollected:  fees,
		TaxesCollected: taxes,
		TradeVolume: TradeVolumeStats{
			TotalTrades:  totalTrades,
			AveragePrice: avgPrice,
			TotalVolume:  totalVolume,
		},
		MoneyStatistics: moneyStats(money),
		Inequality:      inequality(wealth),
	}
}

// Snapshot summarizes the current distribution for one step.
func Snapshot(entities []*agents.Person, step, trades int, volume float64) WealthSnapshot {
	money := make([]float64, 0, len(entities))
	for _, p := range entities {
		money = append(money, p.Money)
	}
	return WealthSnapshot{
		Step:    step,
		Average: mean(money),
		Gini:    Gini(money),
		Trades:  trades,
		Volume:  volume,
	}
}

func moneyStats(values []float64) MoneyStats {
	if len(values) == 0 {
		return MoneyStats{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	avg := mean(sorted)
	variance := 0.0
	for _, v := range sorted {
		d := v - avg
		variance += d * d
	}
	variance /= float64(len(sorted))

	return MoneyStats{
		Average:         avg,
		Median:          median(sorted),
		Min:             sorted[0],
		Max:             sorted[len(sorted)-1],
		StdDev:          math.Sqrt(variance),
		GiniCoefficient: Gini(sorted),
	}
}

func inequality(wealth []float64) InequalityMetrics {
	sorted := append([]float64(nil), wealth...)
	sort.Float64s(sorted)

	total := 0.0
	for _, v := range sorted {
		total += v
	}

	m := InequalityMetrics{GiniCoefficient: Gini(sorted)}
	if total <= 0 || len(sorted) == 0 {
		return m
	}

	top10 := len(sorted) / 10
	if top10 < 1 {
		top10 = 1
	}
	topSum := 0.0
	for _, v := range sorted[len(sorted)-top10:] {
		topSum += v
	}
	m.Top10Share = topSum / total

	bottomSum := 0.0
	for _, v := range sorted[:len(sorted)/2] {
		bottomSum += v
	}
	m.Bottom50Share = bottomSum / total
	return m
}

// Gini computes the discrete Gini coefficient of the distribution. Inputs
// need not be sorted. Degenerate inputs (fewer than two values or a
// non-positive sum) yield exactly 0.0, never NaN. Non-negative balances keep
// the result within [0, 1].
func Gini(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	weighted := 0.0
	for i, v := range sorted {
		sum += v
		weighted += float64(2*(i+1)-n-1) * v
	}
	if sum <= 0 {
		return 0
	}
	return weighted / (float64(n) * sum)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// median expects sorted input.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
