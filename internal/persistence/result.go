// Package persistence stores completed-run output: the versioned result
// file (optionally gzip-compressed) and the SQLite run history database.
package persistence

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/talgya/agora/internal/stats"
)

// ResultVersion is the on-disk result format version.
const ResultVersion = 1

var (
	// ErrNonFinite is returned when a result contains NaN or Infinity.
	// Such values are rejected before anything is written.
	ErrNonFinite = errors.New("result contains non-finite value")

	// ErrVersionMismatch is returned when a result file's format version
	// is not the one this build writes.
	ErrVersionMismatch = errors.New("result version mismatch")
)

type resultFile struct {
	Version int                    `json:"version"`
	Result  stats.SimulationResult `json:"result"`
}

// gzipMagic is the two-byte gzip stream header.
var gzipMagic = []byte{0x1f, 0x8b}

// SaveResult serializes the result to path. With compress set, the JSON
// payload is gzip-encoded before writing. The file is flushed and closed on
// every exit path.
func SaveResult(path string, result stats.SimulationResult, compress bool) (err error) {
	if err := validateFinite(result); err != nil {
		return err
	}

	data, err := json.MarshalIndent(resultFile{Version: ResultVersion, Result: result}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close result file: %w", cerr)
		}
	}()

	var w io.Writer = f
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(f)
		w = gz
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return fmt.Errorf("flush gzip: %w", err)
		}
	}
	return nil
}

// LoadResult reads a result file written by SaveResult, transparently
// handling both compressed and uncompressed encodings.
func LoadResult(path string) (stats.SimulationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return stats.SimulationResult{}, fmt.Errorf("read result file: %w", err)
	}

	if bytes.HasPrefix(data, gzipMagic) {
		gr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return stats.SimulationResult{}, fmt.Errorf("open gzip: %w", err)
		}
		defer gr.Close()
		data, err = io.ReadAll(gr)
		if err != nil {
			return stats.SimulationResult{}, fmt.Errorf("decompress result: %w", err)
		}
	}

	var rf resultFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return stats.SimulationResult{}, fmt.Errorf("parse result: %w", err)
	}
	if rf.Version != ResultVersion {
		return stats.SimulationResult{}, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, rf.Version, ResultVersion)
	}
	return rf.Result, nil
}

// validateFinite rejects NaN and Infinity anywhere in the result, since the
// JSON format cannot represent them.
func validateFinite(r stats.SimulationResult) error {
	fields := map[string]float64{
		"fees_collected":              r.FeesCollected,
		"taxes_collected":             r.TaxesCollected,
		"trade_volume.average_price":  r.TradeVolume.AveragePrice,
		"trade_volume.total_volume":   r.TradeVolume.TotalVolume,
		"money.average":               r.MoneyStatistics.Average,
		"money.median":                r.MoneyStatistics.Median,
		"money.min":                   r.MoneyStatistics.Min,
		"money.max":                   r.MoneyStatistics.Max,
		"money.std_dev":               r.MoneyStatistics.StdDev,
		"money.gini_coefficient":      r.MoneyStatistics.GiniCoefficient,
		"inequality.gini_coefficient": r.Inequality.GiniCoefficient,
		"inequality.top_10_share":     r.Inequality.Top10Share,
		"inequality.bottom_50_share":  r.Inequality.Bottom50Share,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s = %v", ErrNonFinite, name, v)
		}
	}
	return nil
}
