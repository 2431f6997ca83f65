package clickhouse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"augur/internal/domain/market_data"
)

func TestReverseBars(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bars := []market_data.Bar{
		{OpenTime: start.Add(2 * time.Hour)},
		{OpenTime: start.Add(time.Hour)},
		{OpenTime: start},
	}

	reverseBars(bars)

	assert.Equal(t, start, bars[0].OpenTime)
	assert.Equal(t, start.Add(time.Hour), bars[1].OpenTime)
	assert.Equal(t, start.Add(2*time.Hour), bars[2].OpenTime)
}

func TestReverseBars_EvenAndEmpty(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bars := []market_data.Bar{
		{OpenTime: start.Add(time.Hour)},
		{OpenTime: start},
	}
	reverseBars(bars)
	assert.Equal(t, start, bars[0].OpenTime)

	var empty []market_data.Bar
	reverseBars(empty)
	assert.Empty(t, empty)
}
