package signals

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"augur/internal/adapters/config"
	"augur/internal/domain/market_data"
	"augur/internal/domain/signal"
	"augur/internal/metrics"
	"augur/internal/ml"
	"augur/pkg/errors"
	"augur/pkg/logger"
)

const testFraction = 0.2

// Service is the signal engine: it trains per-(symbol, timeframe) models on
// historical bars, generates trade signals from the latest bar, aggregates
// multi-symbol sentiment and replays the model over history in backtests.
type Service struct {
	provider market_data.Provider
	store    *ModelStore
	cfg      config.EngineConfig
	log      *logger.Logger

	// Training is CPU-bound; one run at a time keeps memory bounded
	trainMu sync.Mutex
}

// NewService creates a new signal service
func NewService(
	provider market_data.Provider,
	cfg config.EngineConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		provider: provider,
		store:    NewModelStore(),
		cfg:      cfg,
		log:      log.With("service", "signals"),
	}
}

// Model returns the active trained model for a symbol and timeframe
func (s *Service) Model(symbol string, timeframe market_data.Timeframe) (*TrainedModel, bool) {
	return s.store.Get(symbol, timeframe)
}

// Train fetches history, fits a fresh model and atomically replaces the
// stored one for (symbol, timeframe). On failure the previous model stays
// active. Retraining on identical data reproduces the same model.
func (s *Service) Train(ctx context.Context, symbol string, timeframe market_data.Timeframe) (*TrainedModel, error) {
	s.trainMu.Lock()
	defer s.trainMu.Unlock()

	start := time.Now()
	model, err := s.train(ctx, symbol, timeframe)
	metrics.RecordTrainingRun(symbol, timeframe.String(), time.Since(start), err)
	if err != nil {
		return nil, errors.Wrapf(err, "train %s %s", symbol, timeframe)
	}

	s.store.Put(symbol, timeframe, model)
	metrics.SetModelAccuracy(symbol, timeframe.String(), model.TrainAccuracy, model.TestAccuracy)

	s.log.Infow("Model trained",
		"symbol", symbol,
		"timeframe", timeframe,
		"samples", humanize.Comma(int64(model.Samples)),
		"train_accuracy", model.TrainAccuracy,
		"test_accuracy", model.TestAccuracy,
		"duration", time.Since(start),
	)

	return model, nil
}

func (s *Service) train(ctx context.Context, symbol string, timeframe market_data.Timeframe) (*TrainedModel, error) {
	bars, err := s.provider.GetRates(ctx, symbol, timeframe, s.cfg.TrainingBars)
	if err != nil {
		return nil, err
	}

	rows, err := ComputeFeatures(bars)
	if err != nil {
		return nil, err
	}

	labeled, err := ApplyLabels(rows, s.cfg.Lookahead, s.cfg.LabelThreshold)
	if err != nil {
		return nil, err
	}

	if len(labeled) < s.cfg.MinTrainRows {
		return nil, errors.Wrapf(errors.ErrInsufficientHistory,
			"%d usable rows after labeling, need %d", len(labeled), s.cfg.MinTrainRows)
	}

	X := make([][]float64, len(labeled))
	y := make([]int, len(labeled))
	for i, row := range labeled {
		X[i] = row.Values
		y[i] = int(row.Label)
	}

	XTrain, XTest, yTrain, yTest := ml.StratifiedSplit(X, y, testFraction, s.cfg.Seed)

	// Scaler is fitted on the training split only; the test split is
	// transformed with the training statistics
	scaler := ml.NewStandardScaler()
	if err := scaler.Fit(XTrain); err != nil {
		return nil, err
	}

	XTrainScaled, err := scaler.Transform(XTrain)
	if err != nil {
		return nil, err
	}
	XTestScaled, err := scaler.Transform(XTest)
	if err != nil {
		return nil, err
	}

	forest, err := ml.FitForest(ctx, XTrainScaled, yTrain, ml.ForestConfig{
		Trees:    s.cfg.Trees,
		MaxDepth: s.cfg.MaxDepth,
		MinSplit: s.cfg.MinSplit,
		MinLeaf:  s.cfg.MinLeaf,
		Seed:     s.cfg.Seed,
	})
	if err != nil {
		return nil, err
	}

	return &TrainedModel{
		Forest:        forest,
		Scaler:        scaler,
		Columns:       FeatureColumns(),
		TrainAccuracy: forest.Score(XTrainScaled, yTrain),
		TestAccuracy:  forest.Score(XTestScaled, yTest),
		Samples:       len(labeled),
		TrainedAt:     time.Now().UTC(),
	}, nil
}

// Generate produces a trade signal from the latest bar, or nil when the
// model predicts hold. A missing model triggers one synchronous training
// run; if that fails the whole call fails.
func (s *Service) Generate(ctx context.Context, symbol string, timeframe market_data.Timeframe) (*signal.Signal, error) {
	model, ok := s.store.Get(symbol, timeframe)
	if !ok {
		var err error
		model, err = s.Train(ctx, symbol, timeframe)
		if err != nil {
			return nil, errors.Wrapf(err, "%v: training before first signal", errors.ErrModelNotTrained)
		}
	}

	bars, err := s.provider.GetRates(ctx, symbol, timeframe, s.cfg.RecentBars)
	if err != nil {
		return nil, err
	}

	rows, err := ComputeFeatures(bars)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		s.log.Warnw("No complete feature rows, no signal",
			"symbol", symbol, "timeframe", timeframe, "bars", len(bars))
		return nil, nil
	}

	last := rows[len(rows)-1]
	scaled, err := model.Scaler.TransformRow(last.Values)
	if err != nil {
		return nil, err
	}

	class, probs := model.Forest.Predict(scaled)
	label := Label(class)
	metrics.RecordSignal(symbol, label.String())

	if label == LabelHold {
		s.log.Debugw("Hold prediction, no signal", "symbol", symbol, "timeframe", timeframe)
		return nil, nil
	}

	confidence := classProbability(model.Forest.Classes(), probs, class)
	sig, err := composeSignal(symbol, timeframe, label, confidence, last, probabilityMap(model.Forest.Classes(), probs))
	if err != nil {
		return nil, err
	}

	metrics.ObserveSignalConfidence(symbol, sig.Confidence)

	s.log.Infow("Signal generated",
		"symbol", symbol,
		"type", sig.Type,
		"confidence", sig.Confidence,
		"entry", sig.EntryPrice,
		"stop_loss", sig.StopLoss,
		"take_profit", sig.TakeProfit,
	)

	return sig, nil
}

// AnalyzeSentiment generates a signal per symbol and aggregates the
// directions. Hold predictions and symbols that fail count as neutral.
func (s *Service) AnalyzeSentiment(ctx context.Context, symbols []string, timeframe market_data.Timeframe) (*signal.Sentiment, error) {
	sentiment := &signal.Sentiment{
		Symbols: make(map[string]*signal.Signal),
	}

	var confidenceSum float64

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		sig, err := s.Generate(ctx, symbol, timeframe)
		if err != nil {
			s.log.Warnw("Sentiment: symbol skipped", "symbol", symbol, "error", err)
			sentiment.Neutral++
			continue
		}
		if sig == nil {
			sentiment.Neutral++
			continue
		}

		sentiment.Symbols[symbol] = sig
		confidenceSum += sig.Confidence
		if sig.Type == signal.TypeBuy {
			sentiment.Bullish++
		} else {
			sentiment.Bearish++
		}
	}

	if actionable := sentiment.Bullish + sentiment.Bearish; actionable > 0 {
		sentiment.AverageConfidence = confidenceSum / float64(actionable)
	}
	sentiment.Overall = overallSentiment(sentiment.Bullish, sentiment.Bearish)

	return sentiment, nil
}

// overallSentiment labels the aggregate by the bullish share of actionable
// signals. A share above 0.6 is bullish, below 0.4 bearish, the band between
// (boundaries included) is neutral.
func overallSentiment(bullish, bearish int) string {
	actionable := bullish + bearish
	if actionable == 0 {
		return "neutral"
	}

	ratio := float64(bullish) / float64(actionable)
	switch {
	case ratio > 0.6:
		return "bullish"
	case ratio < 0.4:
		return "bearish"
	default:
		return "neutral"
	}
}

// composeSignal builds the actionable signal for a non-hold prediction.
// Stops sit 2 ATR away from entry, targets 3 ATR. A zero ATR makes the
// risk/reward ratio undefined and is rejected.
func composeSignal(
	symbol string,
	timeframe market_data.Timeframe,
	label Label,
	confidence float64,
	row FeatureRow,
	probabilities map[string]float64,
) (*signal.Signal, error) {
	atr := row.ATR()
	if atr <= 0 {
		return nil, errors.Wrapf(errors.ErrDegenerateRatio,
			"ATR is %g for %s, stop distance undefined", atr, symbol)
	}

	entry := row.Bar.Close

	var sigType signal.Type
	var stop, target float64
	switch label {
	case LabelBuy:
		sigType = signal.TypeBuy
		stop = entry - 2*atr
		target = entry + 3*atr
	case LabelSell:
		sigType = signal.TypeSell
		stop = entry + 2*atr
		target = entry - 3*atr
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "no signal for %s prediction", label)
	}

	return &signal.Signal{
		ID:          uuid.NewString(),
		Symbol:      symbol,
		Type:        sigType,
		Confidence:  confidence,
		EntryPrice:  entry,
		StopLoss:    stop,
		TakeProfit:  target,
		RiskReward:  math.Abs(target-entry) / math.Abs(entry-stop),
		Timeframe:   timeframe,
		GeneratedAt: time.Now().UTC(),
		Analysis: signal.Analysis{
			Probabilities: probabilities,
			ATR:           atr,
			RSI:           row.RSI(),
			MACD:          row.MACD(),
		},
	}, nil
}

func classProbability(classes []int, probs []float64, class int) float64 {
	for i, c := range classes {
		if c == class {
			return probs[i]
		}
	}
	return 0
}

func probabilityMap(classes []int, probs []float64) map[string]float64 {
	out := make(map[string]float64, len(classes))
	for i, c := range classes {
		out[Label(c).String()] = probs[i]
	}
	return out
}
