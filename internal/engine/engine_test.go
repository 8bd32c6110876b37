package engine_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/talgya/agora/internal/agents"
	"github.com/talgya/agora/internal/config"
	"github.com/talgya/agora/internal/engine"
	"github.com/talgya/agora/internal/persistence"
	"github.com/talgya/agora/internal/stats"
)

func testConfig() config.EngineConfig {
	return config.EngineConfig{
		EntityCount:    10,
		TransactionFee: 0.01,
		TaxRate:        0.05,
		MinSkillPrice:  1.0,
		MaxSkillPrice:  100.0,
		InitialMoney:   100.0,
		BaseSkillPrice: 10.0,
		SkillCount:     5,
		Seed:           42,
	}
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := testConfig()
	cfg.TaxRate = 1.5
	if _, err := engine.New(cfg); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestNewBuildsPopulation(t *testing.T) {
	eng, err := engine.New(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	if eng.State() != engine.StatePopulated {
		t.Errorf("expected populated state, got %s", eng.State())
	}
	entities := eng.Entities()
	if len(entities) != 10 {
		t.Fatalf("expected 10 entities, got %d", len(entities))
	}

	seen := make(map[agents.PersonID]bool)
	for _, p := range entities {
		if seen[p.ID] {
			t.Errorf("duplicate entity id %d", p.ID)
		}
		seen[p.ID] = true
		if !p.Active {
			t.Errorf("entity %d not active at build time", p.ID)
		}
		if p.Money != 100 {
			t.Errorf("entity %d initial money %g", p.ID, p.Money)
		}
		if len(p.Skills) == 0 {
			t.Errorf("entity %d has no skills", p.ID)
		}
	}
}

func TestRunZeroSteps(t *testing.T) {
	eng, err := engine.New(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	result, err := eng.Run(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if result.TradeVolume.TotalTrades != 0 {
		t.Errorf("expected 0 trades, got %d", result.TradeVolume.TotalTrades)
	}
	if result.TradeVolume.AveragePrice != 0 {
		t.Errorf("expected zero-trade sentinel average price, got %g", result.TradeVolume.AveragePrice)
	}
	if eng.State() != engine.StateCompleted {
		t.Errorf("expected completed state, got %s", eng.State())
	}
}

func TestRunOnCompletedEngineFails(t *testing.T) {
	eng, err := engine.New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.Run(context.Background(), 1); err != nil {
		t.Fatal(err)
	}

	if _, err := eng.Run(context.Background(), 1); !errors.Is(err, engine.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if err := eng.Step(); !errors.Is(err, engine.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState from Step, got %v", err)
	}

	// Reset is the explicit way back into a runnable state.
	eng.Reset()
	if eng.State() != engine.StatePopulated {
		t.Fatalf("expected populated after reset, got %s", eng.State())
	}
	if _, err := eng.Run(context.Background(), 1); err != nil {
		t.Fatalf("run after reset: %v", err)
	}
}

func TestTradeCountingConvention(t *testing.T) {
	// One matched trade is logged on both participants; TotalTrades counts
	// it once, so ledger entries must always come to exactly twice that.
	eng, err := engine.New(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	check := func(step int) {
		logged := 0
		for _, p := range eng.Entities() {
			logged += len(p.Transactions)
		}
		if logged != 2*eng.TotalTrades() {
			t.Fatalf("step %d: %d ledger entries for %d trades", step, logged, eng.TotalTrades())
		}
	}

	check(0)
	for i := 1; i <= 25; i++ {
		if err := eng.Step(); err != nil {
			t.Fatal(err)
		}
		check(i)
	}
}

func TestStrictBalanceNeverNegative(t *testing.T) {
	cfg := testConfig()
	cfg.EntityCount = 30
	eng, err := engine.New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 50; i++ {
		if err := eng.Step(); err != nil {
			t.Fatal(err)
		}
		for _, p := range eng.Entities() {
			if p.Money < 0 {
				t.Fatalf("step %d: entity %d went negative: %g", i, p.ID, p.Money)
			}
		}
	}
}

func TestSkillPricesStayBounded(t *testing.T) {
	cfg := testConfig()
	eng, err := engine.New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 50; i++ {
		if err := eng.Step(); err != nil {
			t.Fatal(err)
		}
		for id, e := range eng.Market().Entries {
			if e.Price < cfg.MinSkillPrice || e.Price > cfg.MaxSkillPrice {
				t.Fatalf("step %d: %s price %g outside [%g,%g]", i, id, e.Price, cfg.MinSkillPrice, cfg.MaxSkillPrice)
			}
		}
	}
}

func TestScenarioRun(t *testing.T) {
	eng, err := engine.New(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	result, err := eng.Run(context.Background(), 50)
	if err != nil {
		t.Fatal(err)
	}

	if result.TradeVolume.TotalTrades < 0 {
		t.Errorf("negative trade count %d", result.TradeVolume.TotalTrades)
	}
	g := result.MoneyStatistics.GiniCoefficient
	if g < 0 || g > 1 {
		t.Errorf("money gini %g outside [0,1]", g)
	}
	if result.Steps != 50 {
		t.Errorf("expected 50 steps, got %d", result.Steps)
	}

	path := filepath.Join(t.TempDir(), "result.json")
	if err := persistence.SaveResult(path, result, false); err != nil {
		t.Fatalf("save result: %v", err)
	}
	loaded, err := persistence.LoadResult(path)
	if err != nil {
		t.Fatalf("load result: %v", err)
	}
	if !reflect.DeepEqual(result, loaded) {
		t.Errorf("result changed through save/load:\n%+v\n%+v", result, loaded)
	}
}

func TestDeterminismAcrossRuns(t *testing.T) {
	run := func() stats.SimulationResult {
		eng, err := engine.New(testConfig())
		if err != nil {
			t.Fatal(err)
		}
		result, err := eng.Run(context.Background(), 40)
		if err != nil {
			t.Fatal(err)
		}
		return result
	}

	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("identical seeds produced different results:\n%+v\n%+v", a, b)
	}
}

func TestRunCancellation(t *testing.T) {
	eng, err := engine.New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := eng.Step(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := eng.Run(ctx, 100); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if eng.State() != engine.StateStepping {
		t.Errorf("expected engine left in stepping state, got %s", eng.State())
	}

	// The engine must remain consistent and steppable after cancellation.
	if err := eng.Step(); err != nil {
		t.Fatalf("step after cancellation: %v", err)
	}
}

func TestOnStepCallback(t *testing.T) {
	eng, err := engine.New(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	var steps []int
	eng.OnStep = func(s stats.WealthSnapshot) {
		steps = append(steps, s.Step)
	}

	if _, err := eng.Run(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(steps, []int{1, 2, 3}) {
		t.Errorf("expected snapshots for steps 1..3, got %v", steps)
	}
}
