package persistence

import (
	"github.com/talgya/agora/internal/config"
	"github.com/talgya/agora/internal/stats"
)

// NoopRecorder discards all run history. Used when no database is configured.
type NoopRecorder struct{}

func (NoopRecorder) StartRun(config.EngineConfig) error        { return nil }
func (NoopRecorder) RecordSnapshot(stats.WealthSnapshot) error { return nil }
func (NoopRecorder) FinishRun(stats.SimulationResult) error    { return nil }
func (NoopRecorder) Close() error                              { return nil }
