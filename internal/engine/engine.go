// Package engine drives the discrete-time market simulation: it owns the
// entity arena, advances state step by step, and hands the final state to
// the statistics aggregator.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/talgya/agora/internal/agents"
	"github.com/talgya/agora/internal/config"
	"github.com/talgya/agora/internal/economy"
	"github.com/talgya/agora/internal/metrics"
	"github.com/talgya/agora/internal/stats"
)

// State is the engine lifecycle phase. Step is legal in Populated and
// Stepping; Run ends in Completed and is rejected there until Reset.
type State uint8

const (
	StateUninitialized State = iota
	StatePopulated
	StateStepping
	StateCompleted
)

// String returns the state name for errors and logs.
func (s State) String() string {
	switch s {
	case StatePopulated:
		return "populated"
	case StateStepping:
		return "stepping"
	case StateCompleted:
		return "completed"
	default:
		return "uninitialized"
	}
}

// Engine owns the entity population and advances it through discrete time.
// Entities are held in an arena addressed by stable index; exits flip the
// Active flag and never remove a slot.
type Engine struct {
	cfg      config.EngineConfig
	entities []*agents.Person
	market   *economy.Market
	state    State
	step     int

	skillIDs []string // market skills in generation order

	totalTrades    int
	totalVolume    float64
	feesCollected  float64
	taxesCollected float64

	// OnStep, when set, receives a distribution snapshot after every
	// completed step. Used for recording and auto-checkpointing.
	OnStep func(stats.WealthSnapshot)
}

// New validates the configuration and builds the initial population. The
// engine starts in Populated, ready to step.
func New(cfg config.EngineConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg}
	e.populate()
	return e, nil
}

// Config returns the run configuration. It is immutable for the run.
func (e *Engine) Config() config.EngineConfig { return e.cfg }

// State returns the current lifecycle state.
func (e *Engine) State() State { return e.state }

// CurrentStep returns the number of completed steps.
func (e *Engine) CurrentStep() int { return e.step }

// Entities exposes the arena. Callers must not append to transaction logs
// or remove entries; the ledger belongs to the entities.
func (e *Engine) Entities() []*agents.Person { return e.entities }

// Market returns the shared skill market.
func (e *Engine) Market() *economy.Market { return e.market }

// TotalTrades counts matched trades so far, each counted once.
func (e *Engine) TotalTrades() int { return e.totalTrades }

// ActiveCount returns how many entities are still trading.
func (e *Engine) ActiveCount() int {
	n := 0
	for _, p := range e.entities {
		if p.Active {
			n++
		}
	}
	return n
}

// Step advances the simulation by one step: a read-only decision phase in
// which every active entity declares its needs against the market snapshot,
// followed by the serialized matching and application phase, which is the
// sole mutator of shared state.
func (e *Engine) Step() error {
	if e.state != StatePopulated && e.state != StateStepping {
		return fmt.Errorf("%w: step in %s", ErrInvalidState, e.state)
	}
	e.state = StateStepping

	// Per-step RNG derived from seed+step keeps every step reproducible in
	// isolation, which is what makes checkpoint resumption exact.
	rng := rand.New(rand.NewSource(e.cfg.Seed + int64(e.step)))

	needs := e.decide(rng)
	e.market.UpdatePrices(rng)
	trades, volume := e.match(needs)
	e.deactivateBroke()

	e.step++
	e.totalTrades += trades
	e.totalVolume += volume

	metrics.StepsTotal.Inc()
	metrics.TradesTotal.Add(float64(trades))
	metrics.ActiveEntities.Set(float64(e.ActiveCount()))

	if e.OnStep != nil {
		e.OnStep(stats.Snapshot(e.entities, e.step, trades, volume))
	}
	return nil
}

// Run advances steps times and aggregates the result, leaving the engine in
// Completed. The context is checked between steps; on cancellation the
// engine stays in Stepping, consistent and checkpointable.
func (e *Engine) Run(ctx context.Context, steps int) (stats.SimulationResult, error) {
	if e.state == StateCompleted || e.state == StateUninitialized {
		return stats.SimulationResult{}, fmt.Errorf("%w: run in %s", ErrInvalidState, e.state)
	}

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			slog.Info("run cancelled", "step", e.step)
			return stats.SimulationResult{}, ctx.Err()
		default:
		}
		if err := e.Step(); err != nil {
			return stats.SimulationResult{}, err
		}
	}

	e.state = StateCompleted
	result := stats.Aggregate(e.entities, e.step, e.totalTrades, e.totalVolume, e.feesCollected, e.taxesCollected)
	slog.Info("run completed",
		"steps", e.step,
		"trades", e.totalTrades,
		"active", result.ActiveEntities,
		"avg_money", fmt.Sprintf("%.2f", result.MoneyStatistics.Average),
		"gini", fmt.Sprintf("%.3f", result.MoneyStatistics.GiniCoefficient),
	)
	return result, nil
}

// Reset rebuilds the population from config and seed, discarding all run
// state. It is the only way to reuse a Completed engine.
func (e *Engine) Reset() {
	e.step = 0
	e.totalTrades = 0
	e.totalVolume = 0
	e.feesCollected = 0
	e.taxesCollected = 0
	e.populate()
}

// deactivateBroke flips the Active flag on entities whose money is fully
// depleted. Slots and ledgers are preserved.
func (e *Engine) deactivateBroke() {
	const epsilon = 1e-9
	for _, p := range e.entities {
		if p.Active && p.Money < epsilon {
			p.Deactivate()
			slog.Debug("entity deactivated", "id", p.ID, "step", e.step)
		}
	}
}
