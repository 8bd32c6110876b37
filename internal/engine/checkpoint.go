package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/talgya/agora/internal/agents"
	"github.com/talgya/agora/internal/config"
	"github.com/talgya/agora/internal/economy"
)

// CheckpointVersion is the current snapshot format version. Restoration
// rejects any other version outright rather than attempting a partial load.
const CheckpointVersion = 1

type checkpoint struct {
	Version        int                 `json:"version"`
	Config         config.EngineConfig `json:"config"`
	Step           int                 `json:"step"`
	Entities       []*agents.Person    `json:"entities"`
	Market         *economy.Market     `json:"market"`
	SkillIDs       []string            `json:"skill_ids"`
	TotalTrades    int                 `json:"total_trades"`
	TotalVolume    float64             `json:"total_volume"`
	FeesCollected  float64             `json:"fees_collected"`
	TaxesCollected float64             `json:"taxes_collected"`
}

// SaveCheckpoint writes a full state snapshot to path. The engine remains
// valid and steppable whether or not the save succeeds.
func (e *Engine) SaveCheckpoint(path string) error {
	cp := checkpoint{
		Version:        CheckpointVersion,
		Config:         e.cfg,
		Step:           e.step,
		Entities:       e.entities,
		Market:         e.market,
		SkillIDs:       e.skillIDs,
		TotalTrades:    e.totalTrades,
		TotalVolume:    e.totalVolume,
		FeesCollected:  e.feesCollected,
		TaxesCollected: e.taxesCollected,
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create checkpoint: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync checkpoint: %w", err)
	}

	slog.Debug("checkpoint saved", "path", path, "step", e.step)
	return nil
}

// RestoreCheckpoint rebuilds an engine from a snapshot file. Step
// randomness derives from seed+step, so a restored engine reproduces the
// exact remaining steps of an uninterrupted run.
func RestoreCheckpoint(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}

	// Probe the version before decoding the full state.
	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parse checkpoint: %w", err)
	}
	if probe.Version != CheckpointVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, probe.Version, CheckpointVersion)
	}

	var cp checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("parse checkpoint: %w", err)
	}
	if err := cp.Config.Validate(); err != nil {
		return nil, fmt.Errorf("checkpoint config: %w", err)
	}

	e := &Engine{
		cfg:            cp.Config,
		entities:       cp.Entities,
		market:         cp.Market,
		skillIDs:       cp.SkillIDs,
		step:           cp.Step,
		totalTrades:    cp.TotalTrades,
		totalVolume:    cp.TotalVolume,
		feesCollected:  cp.FeesCollected,
		taxesCollected: cp.TaxesCollected,
	}
	if cp.Step > 0 {
		e.state = StateStepping
	} else {
		e.state = StatePopulated
	}

	slog.Info("checkpoint restored", "path", path, "step", cp.Step, "entities", len(cp.Entities))
	return e, nil
}
