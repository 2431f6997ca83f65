package consumers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"augur/internal/domain/market_data"
	"augur/pkg/errors"
	"augur/pkg/logger"
)

type fakeRepo struct {
	inserted []market_data.Bar
}

func (r *fakeRepo) InsertBars(_ context.Context, bars []market_data.Bar) error {
	r.inserted = append(r.inserted, bars...)
	return nil
}

func (r *fakeRepo) GetLatestBars(context.Context, string, market_data.Timeframe, int) ([]market_data.Bar, error) {
	return nil, nil
}

func (r *fakeRepo) GetBars(context.Context, market_data.Query) ([]market_data.Bar, error) {
	return nil, nil
}

func testBar(symbol string, t time.Time) market_data.Bar {
	return market_data.Bar{
		Symbol:    symbol,
		Timeframe: "H1",
		OpenTime:  t,
		Open:      1.1,
		High:      1.2,
		Low:       1.0,
		Close:     1.15,
		Volume:    100,
	}
}

func newTestConsumer(repo market_data.Repository) *BarConsumer {
	c := NewBarConsumer(nil, repo, "market.bars", logger.Get())
	c.lastFlush = time.Now()
	return c
}

func barMessage(t *testing.T, bar market_data.Bar) kafka.Message {
	t.Helper()
	data, err := json.Marshal(bar)
	require.NoError(t, err)
	return kafka.Message{Topic: "market.bars", Value: data}
}

func TestBarConsumer_BuffersUntilFlushSize(t *testing.T) {
	repo := &fakeRepo{}
	c := newTestConsumer(repo)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < flushSize-1; i++ {
		msg := barMessage(t, testBar("EURUSD", start.Add(time.Duration(i)*time.Hour)))
		require.NoError(t, c.handleMessage(context.Background(), msg))
	}
	assert.Empty(t, repo.inserted)

	msg := barMessage(t, testBar("EURUSD", start.Add(time.Duration(flushSize)*time.Hour)))
	require.NoError(t, c.handleMessage(context.Background(), msg))

	assert.Len(t, repo.inserted, flushSize)
	assert.Empty(t, c.buffer)
}

func TestBarConsumer_FlushOnAge(t *testing.T) {
	repo := &fakeRepo{}
	c := newTestConsumer(repo)
	c.lastFlush = time.Now().Add(-2 * flushInterval)

	msg := barMessage(t, testBar("EURUSD", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, c.handleMessage(context.Background(), msg))

	assert.Len(t, repo.inserted, 1)
}

func TestBarConsumer_RejectsInvalidBars(t *testing.T) {
	repo := &fakeRepo{}
	c := newTestConsumer(repo)

	bad := testBar("", time.Now())
	err := c.handleMessage(context.Background(), barMessage(t, bad))
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	badTf := testBar("EURUSD", time.Now())
	badTf.Timeframe = "H7"
	err = c.handleMessage(context.Background(), barMessage(t, badTf))
	assert.True(t, errors.Is(err, errors.ErrInvalidTimeframe))

	inverted := testBar("EURUSD", time.Now())
	inverted.High, inverted.Low = inverted.Low, inverted.High
	err = c.handleMessage(context.Background(), barMessage(t, inverted))
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))

	assert.Empty(t, c.buffer)
}

func TestBarConsumer_MalformedPayload(t *testing.T) {
	c := newTestConsumer(&fakeRepo{})

	err := c.handleMessage(context.Background(), kafka.Message{Value: []byte("{not json")})
	assert.Error(t, err)
}

func TestBarConsumer_FlushEmptyBufferIsNoop(t *testing.T) {
	repo := &fakeRepo{}
	c := newTestConsumer(repo)

	require.NoError(t, c.flush(context.Background()))
	assert.Empty(t, repo.inserted)
}
