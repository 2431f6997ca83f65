package ml

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testForestConfig() ForestConfig {
	return ForestConfig{
		Trees:    25,
		MaxDepth: 10,
		MinSplit: 5,
		MinLeaf:  2,
		Seed:     42,
	}
}

// separableDataset builds three well-separated clusters labeled -1, 0, +1
func separableDataset(n int) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(1))
	var X [][]float64
	var y []int
	for i := 0; i < n; i++ {
		class := i%3 - 1
		center := float64(class) * 10
		X = append(X, []float64{
			center + rng.Float64(),
			-center + rng.Float64(),
		})
		y = append(y, class)
	}
	return X, y
}

func TestFitForest_SeparableData(t *testing.T) {
	X, y := separableDataset(300)

	forest, err := FitForest(context.Background(), X, y, testForestConfig())
	require.NoError(t, err)

	assert.Equal(t, []int{-1, 0, 1}, forest.Classes())
	assert.Greater(t, forest.Score(X, y), 0.95)
}

func TestFitForest_Deterministic(t *testing.T) {
	X, y := separableDataset(150)
	cfg := testForestConfig()

	f1, err := FitForest(context.Background(), X, y, cfg)
	require.NoError(t, err)
	f2, err := FitForest(context.Background(), X, y, cfg)
	require.NoError(t, err)

	assert.Equal(t, f1.Score(X, y), f2.Score(X, y))

	for _, row := range X {
		c1, p1 := f1.Predict(row)
		c2, p2 := f2.Predict(row)
		require.Equal(t, c1, c2)
		require.Equal(t, p1, p2)
	}
}

func TestForest_ProbabilitiesSumToOne(t *testing.T) {
	X, y := separableDataset(150)

	forest, err := FitForest(context.Background(), X, y, testForestConfig())
	require.NoError(t, err)

	for _, row := range X {
		probs := forest.PredictProba(row)
		sum := 0.0
		for _, p := range probs {
			require.GreaterOrEqual(t, p, 0.0)
			require.LessOrEqual(t, p, 1.0)
			sum += p
		}
		require.InDelta(t, 1.0, sum, 1e-9)
	}
}

func TestFitForest_CancelledContext(t *testing.T) {
	X, y := separableDataset(150)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FitForest(ctx, X, y, testForestConfig())
	assert.Error(t, err)
}

func TestFitForest_InvalidInput(t *testing.T) {
	_, err := FitForest(context.Background(), nil, nil, testForestConfig())
	assert.Error(t, err)

	_, err = FitForest(context.Background(), [][]float64{{1}}, []int{1, 0}, testForestConfig())
	assert.Error(t, err)
}
