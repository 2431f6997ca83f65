package workers

import (
	"context"
	"time"

	"augur/internal/adapters/config"
	"augur/internal/domain/market_data"
	"augur/internal/repository/redis"
	"augur/internal/services/signals"
	"augur/pkg/errors"
)

// SignalScannerWorker periodically generates signals for every configured
// symbol and publishes actionable ones to the signal cache
type SignalScannerWorker struct {
	*BaseWorker
	service   *signals.Service
	cache     *redis.SignalCache
	symbols   []string
	timeframe market_data.Timeframe
}

// NewSignalScannerWorker creates a new signal scanner worker
func NewSignalScannerWorker(service *signals.Service, cache *redis.SignalCache, engineCfg config.EngineConfig, workerCfg config.WorkerConfig) *SignalScannerWorker {
	return &SignalScannerWorker{
		BaseWorker: NewBaseWorker("signal_scanner", workerCfg.ScannerInterval, workerCfg.ScannerEnabled),
		service:    service,
		cache:      cache,
		symbols:    engineCfg.Symbols,
		timeframe:  market_data.Timeframe(engineCfg.DefaultTimeframe),
	}
}

// Run scans every configured symbol once. Hold predictions leave the
// previous cached signal to expire on its TTL.
func (w *SignalScannerWorker) Run(ctx context.Context) error {
	start := time.Now()
	var generated, failed int

	for _, symbol := range w.symbols {
		if err := ctx.Err(); err != nil {
			return err
		}

		sig, err := w.service.Generate(ctx, symbol, w.timeframe)
		if err != nil {
			failed++
			w.Log().Errorw("Signal generation failed", "symbol", symbol, "error", err)
			continue
		}
		if sig == nil {
			continue
		}

		if err := w.cache.Set(ctx, sig); err != nil {
			failed++
			w.Log().Errorw("Signal cache write failed", "symbol", symbol, "error", err)
			continue
		}

		generated++
	}

	duration := time.Since(start)
	if failed > 0 {
		err := errors.Wrapf(errors.ErrInternal, "%d of %d symbols failed scanning", failed, len(w.symbols))
		w.RecordError(err, duration)
		return err
	}

	w.RecordRun(duration)
	w.Log().Infow("Scan cycle completed",
		"symbols", len(w.symbols),
		"signals", generated,
		"duration", duration,
	)
	return nil
}
