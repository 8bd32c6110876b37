// Command agorasim runs the agora skill-market simulation from a config
// file and persists the resulting statistics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"

	"github.com/talgya/agora/internal/config"
	"github.com/talgya/agora/internal/engine"
	"github.com/talgya/agora/internal/metrics"
	"github.com/talgya/agora/internal/persistence"
	"github.com/talgya/agora/internal/stats"
)

func main() {
	configPath := flag.String("config", "agora.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	slog.Info("agora — skill market simulation",
		"entities", cfg.Engine.EntityCount,
		"steps", cfg.Steps,
		"seed", cfg.Engine.Seed,
	)

	// ── Run recorder ──────────────────────────────────────────────────
	var recorder persistence.Recorder = persistence.NoopRecorder{}
	if cfg.Database.SQLitePath != "" {
		db, err := persistence.Open(cfg.Database.SQLitePath)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		recorder = db
		slog.Info("database opened", "path", cfg.Database.SQLitePath)
	}

	// ── Metrics ───────────────────────────────────────────────────────
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				slog.Error("metrics server stopped", "error", err)
			}
		}()
		slog.Info("metrics exposed", "addr", cfg.MetricsAddr)
	}

	// ── Engine ────────────────────────────────────────────────────────
	var eng *engine.Engine
	if cfg.Checkpoint.Resume && cfg.Checkpoint.Path != "" {
		eng, err = engine.RestoreCheckpoint(cfg.Checkpoint.Path)
		if err != nil {
			slog.Error("failed to restore checkpoint", "error", err)
			os.Exit(1)
		}
	} else {
		eng, err = engine.New(cfg.Engine)
		if err != nil {
			slog.Error("failed to build engine", "error", err)
			os.Exit(1)
		}
	}

	if err := recorder.StartRun(cfg.Engine); err != nil {
		slog.Error("failed to start run recording", "error", err)
		os.Exit(1)
	}

	eng.OnStep = func(s stats.WealthSnapshot) {
		if err := recorder.RecordSnapshot(s); err != nil {
			slog.Warn("snapshot recording failed", "step", s.Step, "error", err)
		}
		if cfg.Checkpoint.Interval > 0 && cfg.Checkpoint.Path != "" && s.Step%cfg.Checkpoint.Interval == 0 {
			if err := eng.SaveCheckpoint(cfg.Checkpoint.Path); err != nil {
				slog.Warn("auto-checkpoint failed", "step", s.Step, "error", err)
			}
		}
	}

	// ── Run ───────────────────────────────────────────────────────────
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	remaining := cfg.Steps - eng.CurrentStep()
	if remaining < 0 {
		remaining = 0
	}

	result, err := eng.Run(ctx, remaining)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Leave a resumable snapshot behind when interrupted.
			if cfg.Checkpoint.Path != "" {
				if cperr := eng.SaveCheckpoint(cfg.Checkpoint.Path); cperr != nil {
					slog.Error("shutdown checkpoint failed", "error", cperr)
				} else {
					slog.Info("shutdown checkpoint saved", "path", cfg.Checkpoint.Path, "step", eng.CurrentStep())
				}
			}
			os.Exit(0)
		}
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}

	if err := recorder.FinishRun(result); err != nil {
		slog.Warn("finishing run recording failed", "error", err)
	}

	// ── Persist result ────────────────────────────────────────────────
	if cfg.OutputPath != "" {
		if err := persistence.SaveResult(cfg.OutputPath, result, cfg.Compress); err != nil {
			slog.Error("failed to save result", "error", err)
			os.Exit(1)
		}
		slog.Info("result saved", "path", cfg.OutputPath, "compressed", cfg.Compress)
	}

	slog.Info("simulation summary",
		"steps", result.Steps,
		"trades", humanize.Comma(int64(result.TradeVolume.TotalTrades)),
		"volume", humanize.CommafWithDigits(result.TradeVolume.TotalVolume, 2),
		"active", result.ActiveEntities,
		"avg_money", fmt.Sprintf("%.2f", result.MoneyStatistics.Average),
		"money_gini", fmt.Sprintf("%.3f", result.MoneyStatistics.GiniCoefficient),
		"wealth_gini", fmt.Sprintf("%.3f", result.Inequality.GiniCoefficient),
	)
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
