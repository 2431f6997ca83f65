package consumers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	kafkaadapter "augur/internal/adapters/kafka"
	"augur/internal/domain/market_data"
	"augur/internal/metrics"
	"augur/pkg/errors"
	"augur/pkg/logger"
)

const (
	flushSize     = 500
	flushInterval = 5 * time.Second
	flushTimeout  = 10 * time.Second
)

// BarConsumer reads bar events from Kafka and writes them to ClickHouse in
// batches, decoupling ingestion throughput from storage latency
type BarConsumer struct {
	consumer *kafkaadapter.Consumer
	repo     market_data.Repository
	topic    string
	log      *logger.Logger

	buffer    []market_data.Bar
	lastFlush time.Time
}

// NewBarConsumer creates a new bar consumer
func NewBarConsumer(
	consumer *kafkaadapter.Consumer,
	repo market_data.Repository,
	topic string,
	log *logger.Logger,
) *BarConsumer {
	return &BarConsumer{
		consumer: consumer,
		repo:     repo,
		topic:    topic,
		log:      log.With("consumer", "bars"),
		buffer:   make([]market_data.Bar, 0, flushSize),
	}
}

// Start consumes bar events until the context is cancelled. The remaining
// buffer is flushed on exit so accepted bars are not lost on shutdown.
func (c *BarConsumer) Start(ctx context.Context) error {
	c.log.Info("Starting bar consumer...")
	c.lastFlush = time.Now()

	defer func() {
		if err := c.flush(context.Background()); err != nil {
			c.log.Errorw("Final flush failed", "error", err)
		}
		if err := c.consumer.Close(); err != nil {
			c.log.Errorw("Failed to close bar consumer", "error", err)
		}
	}()

	for {
		msg, err := c.consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.log.Info("Bar consumer stopping")
				return nil
			}
			c.log.Debugw("Failed to read bar event", "error", err)
			continue
		}

		err = c.handleMessage(ctx, msg)
		metrics.RecordKafkaMessage(c.topic, err)
		if err != nil {
			c.log.Errorw("Failed to handle bar event", "error", err)
		}

		if ctx.Err() != nil {
			c.log.Info("Bar consumer stopping after current message")
			return nil
		}
	}
}

func (c *BarConsumer) handleMessage(ctx context.Context, msg kafka.Message) error {
	var bar market_data.Bar
	if err := json.Unmarshal(msg.Value, &bar); err != nil {
		return errors.Wrap(err, "unmarshal bar event")
	}

	if err := validateBar(bar); err != nil {
		return err
	}

	c.buffer = append(c.buffer, bar)

	if len(c.buffer) >= flushSize || time.Since(c.lastFlush) >= flushInterval {
		flushCtx, cancel := context.WithTimeout(ctx, flushTimeout)
		defer cancel()
		return c.flush(flushCtx)
	}

	return nil
}

// flush writes the buffered bars to storage
func (c *BarConsumer) flush(ctx context.Context) error {
	if len(c.buffer) == 0 {
		return nil
	}

	if err := c.repo.InsertBars(ctx, c.buffer); err != nil {
		return errors.Wrapf(err, "flush %d bars", len(c.buffer))
	}

	for _, bar := range c.buffer {
		metrics.RecordBarsIngested(bar.Symbol, 1)
	}

	c.log.Debugw("Flushed bars", "count", len(c.buffer))
	c.buffer = c.buffer[:0]
	c.lastFlush = time.Now()
	return nil
}

func validateBar(bar market_data.Bar) error {
	if bar.Symbol == "" {
		return errors.Wrap(errors.ErrInvalidInput, "bar has no symbol")
	}
	if !market_data.Timeframe(bar.Timeframe).Valid() {
		return errors.Wrapf(errors.ErrInvalidTimeframe, "bar timeframe %q", bar.Timeframe)
	}
	if bar.OpenTime.IsZero() {
		return errors.Wrap(errors.ErrInvalidInput, "bar has no open time")
	}
	if bar.High < bar.Low {
		return errors.Wrapf(errors.ErrInvalidInput, "bar high %g below low %g", bar.High, bar.Low)
	}
	return nil
}
