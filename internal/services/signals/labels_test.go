package signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"augur/internal/domain/market_data"
	"augur/pkg/errors"
)

// rowsWithCloses builds bare feature rows whose bars carry the given closes
func rowsWithCloses(closes []float64) []FeatureRow {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := make([]FeatureRow, len(closes))
	for i, c := range closes {
		rows[i] = FeatureRow{
			Bar: market_data.Bar{
				Symbol:   "EURUSD",
				OpenTime: start.Add(time.Duration(i) * time.Hour),
				Close:    c,
			},
			Values: make([]float64, numFeatures),
		}
	}
	return rows
}

func TestApplyLabels_DropsTrailingRows(t *testing.T) {
	rows := rowsWithCloses([]float64{100, 101, 102, 103, 104, 105, 106, 107})

	labeled, err := ApplyLabels(rows, 5, 0.001)
	require.NoError(t, err)

	assert.Len(t, labeled, 3)
	assert.Equal(t, rows[2].Bar.OpenTime, labeled[2].Bar.OpenTime)
}

func TestApplyLabels_Directions(t *testing.T) {
	// Index 0 rises 2% over 2 bars, index 1 falls 2%
	rows := rowsWithCloses([]float64{100, 100, 102, 98})

	labeled, err := ApplyLabels(rows, 2, 0.001)
	require.NoError(t, err)
	require.Len(t, labeled, 2)

	assert.Equal(t, LabelBuy, labeled[0].Label)
	assert.Equal(t, LabelSell, labeled[1].Label)
}

func TestApplyLabels_BoundaryIsExclusive(t *testing.T) {
	// 125/100 - 1 is exactly 0.25 in binary floating point, so a return
	// exactly at the threshold must label HOLD
	rows := rowsWithCloses([]float64{100, 100, 125, 75})

	labeled, err := ApplyLabels(rows, 2, 0.25)
	require.NoError(t, err)
	require.Len(t, labeled, 2)

	assert.Equal(t, LabelHold, labeled[0].Label)
	assert.Equal(t, LabelHold, labeled[1].Label)
}

func TestApplyLabels_FlatSeriesIsHold(t *testing.T) {
	rows := rowsWithCloses([]float64{100, 100, 100, 100, 100, 100})

	labeled, err := ApplyLabels(rows, 5, 0.001)
	require.NoError(t, err)
	require.Len(t, labeled, 1)

	assert.Equal(t, LabelHold, labeled[0].Label)
}

func TestApplyLabels_InvalidLookahead(t *testing.T) {
	rows := rowsWithCloses([]float64{100, 101})

	_, err := ApplyLabels(rows, 0, 0.001)
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestApplyLabels_TooFewRows(t *testing.T) {
	rows := rowsWithCloses([]float64{100, 101, 102})

	_, err := ApplyLabels(rows, 5, 0.001)
	assert.True(t, errors.Is(err, errors.ErrInsufficientHistory))
}

func TestLabel_String(t *testing.T) {
	assert.Equal(t, "buy", LabelBuy.String())
	assert.Equal(t, "sell", LabelSell.String())
	assert.Equal(t, "hold", LabelHold.String())
}
