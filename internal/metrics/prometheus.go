package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Worker metrics
	WorkerExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "augur_worker_executions_total",
			Help: "Total number of worker executions",
		},
		[]string{"worker", "status"}, // status: success|error
	)

	WorkerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "augur_worker_duration_seconds",
			Help:    "Worker execution duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"worker"},
	)

	WorkerLastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "augur_worker_last_run_timestamp",
			Help: "Unix timestamp of last worker execution",
		},
		[]string{"worker"},
	)

	// Training metrics
	TrainingRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "augur_training_runs_total",
			Help: "Total number of model training runs",
		},
		[]string{"symbol", "timeframe", "status"}, // status: success|error
	)

	TrainingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "augur_training_duration_seconds",
			Help:    "Model training duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"symbol", "timeframe"},
	)

	ModelTrainAccuracy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "augur_model_train_accuracy",
			Help: "Training-set accuracy of the active model",
		},
		[]string{"symbol", "timeframe"},
	)

	ModelTestAccuracy = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "augur_model_test_accuracy",
			Help: "Held-out test-set accuracy of the active model",
		},
		[]string{"symbol", "timeframe"},
	)

	// Signal metrics
	SignalsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "augur_signals_generated_total",
			Help: "Total number of generated signals",
		},
		[]string{"symbol", "type"}, // type: buy|sell|hold
	)

	SignalConfidence = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "augur_signal_confidence",
			Help:    "Confidence of generated signals",
			Buckets: []float64{0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
		[]string{"symbol"},
	)

	// Backtest metrics
	BacktestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "augur_backtest_duration_seconds",
			Help:    "Backtest simulation duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"symbol"},
	)

	// Provider metrics
	ProviderFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "augur_provider_fetches_total",
			Help: "Total number of bar fetches from storage",
		},
		[]string{"symbol", "status"}, // status: success|empty|error
	)

	// Ingestion metrics
	BarsIngested = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "augur_bars_ingested_total",
			Help: "Total number of bars ingested from Kafka",
		},
		[]string{"symbol"},
	)

	KafkaMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "augur_kafka_messages_total",
			Help: "Total Kafka messages consumed",
		},
		[]string{"topic", "status"}, // status: success|error
	)
)

// Init registers all metrics with Prometheus
func Init() {
	prometheus.MustRegister(WorkerExecutions)
	prometheus.MustRegister(WorkerDuration)
	prometheus.MustRegister(WorkerLastRun)

	prometheus.MustRegister(TrainingRuns)
	prometheus.MustRegister(TrainingDuration)
	prometheus.MustRegister(ModelTrainAccuracy)
	prometheus.MustRegister(ModelTestAccuracy)

	prometheus.MustRegister(SignalsGenerated)
	prometheus.MustRegister(SignalConfidence)

	prometheus.MustRegister(BacktestDuration)
	prometheus.MustRegister(ProviderFetches)

	prometheus.MustRegister(BarsIngested)
	prometheus.MustRegister(KafkaMessages)
}

// Handler returns Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWorkerExecution records a worker execution
func RecordWorkerExecution(worker string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	WorkerExecutions.WithLabelValues(worker, status).Inc()
	WorkerDuration.WithLabelValues(worker).Observe(duration.Seconds())
	WorkerLastRun.WithLabelValues(worker).SetToCurrentTime()
}

// RecordTrainingRun records a model training run with its outcome
func RecordTrainingRun(symbol, timeframe string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	TrainingRuns.WithLabelValues(symbol, timeframe, status).Inc()
	TrainingDuration.WithLabelValues(symbol, timeframe).Observe(duration.Seconds())
}

// SetModelAccuracy publishes the accuracies of a freshly activated model
func SetModelAccuracy(symbol, timeframe string, train, test float64) {
	ModelTrainAccuracy.WithLabelValues(symbol, timeframe).Set(train)
	ModelTestAccuracy.WithLabelValues(symbol, timeframe).Set(test)
}

// RecordSignal records a prediction outcome. Hold predictions are counted
// even though they produce no signal.
func RecordSignal(symbol, signalType string) {
	SignalsGenerated.WithLabelValues(symbol, signalType).Inc()
}

// ObserveSignalConfidence records the confidence of a generated signal
func ObserveSignalConfidence(symbol string, confidence float64) {
	SignalConfidence.WithLabelValues(symbol).Observe(confidence)
}

// ObserveBacktestDuration records the wall time of a backtest run
func ObserveBacktestDuration(symbol string, duration time.Duration) {
	BacktestDuration.WithLabelValues(symbol).Observe(duration.Seconds())
}

// RecordProviderFetch records a bar fetch attempt
func RecordProviderFetch(symbol, status string) {
	ProviderFetches.WithLabelValues(symbol, status).Inc()
}

// RecordBarsIngested records bars accepted from the ingestion pipeline
func RecordBarsIngested(symbol string, count int) {
	BarsIngested.WithLabelValues(symbol).Add(float64(count))
}

// RecordKafkaMessage records one consumed Kafka message
func RecordKafkaMessage(topic string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	KafkaMessages.WithLabelValues(topic, status).Inc()
}
