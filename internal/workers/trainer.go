package workers

import (
	"context"
	"time"

	"augur/internal/adapters/config"
	"augur/internal/domain/market_data"
	"augur/internal/services/signals"
	"augur/pkg/errors"
)

// ModelTrainerWorker periodically retrains the signal model for every
// configured symbol, so inference always runs on recent history
type ModelTrainerWorker struct {
	*BaseWorker
	service   *signals.Service
	symbols   []string
	timeframe market_data.Timeframe
	timeout   time.Duration
}

// NewModelTrainerWorker creates a new model trainer worker
func NewModelTrainerWorker(service *signals.Service, engineCfg config.EngineConfig, workerCfg config.WorkerConfig) *ModelTrainerWorker {
	return &ModelTrainerWorker{
		BaseWorker: NewBaseWorker("model_trainer", workerCfg.TrainerInterval, workerCfg.TrainerEnabled),
		service:    service,
		symbols:    engineCfg.Symbols,
		timeframe:  market_data.Timeframe(engineCfg.DefaultTimeframe),
		timeout:    workerCfg.TrainTimeout,
	}
}

// Run retrains every configured symbol. A failing symbol does not block the
// rest; its previous model stays active.
func (w *ModelTrainerWorker) Run(ctx context.Context) error {
	start := time.Now()
	var failed int

	for _, symbol := range w.symbols {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := w.trainSymbol(ctx, symbol); err != nil {
			failed++
			w.Log().Errorw("Training failed",
				"symbol", symbol,
				"timeframe", w.timeframe,
				"error", err,
			)
		}
	}

	duration := time.Since(start)
	if failed > 0 {
		err := errors.Wrapf(errors.ErrInternal, "%d of %d symbols failed training", failed, len(w.symbols))
		w.RecordError(err, duration)
		return err
	}

	w.RecordRun(duration)
	w.Log().Infow("Training cycle completed", "symbols", len(w.symbols), "duration", duration)
	return nil
}

func (w *ModelTrainerWorker) trainSymbol(ctx context.Context, symbol string) error {
	trainCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	_, err := w.service.Train(trainCtx, symbol, w.timeframe)
	return err
}
