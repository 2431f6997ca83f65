package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStratifiedSplit_Proportions(t *testing.T) {
	var X [][]float64
	var y []int

	// 100 samples of class 1, 50 of class 0, 50 of class -1
	for i := 0; i < 200; i++ {
		X = append(X, []float64{float64(i)})
		switch {
		case i < 100:
			y = append(y, 1)
		case i < 150:
			y = append(y, 0)
		default:
			y = append(y, -1)
		}
	}

	XTrain, XTest, yTrain, yTest := StratifiedSplit(X, y, 0.2, 42)

	require.Len(t, XTest, 40)
	require.Len(t, XTrain, 160)
	require.Len(t, yTest, 40)
	require.Len(t, yTrain, 160)

	countClass := func(labels []int, class int) int {
		n := 0
		for _, l := range labels {
			if l == class {
				n++
			}
		}
		return n
	}

	// Each class contributes 20% of its rows to the test split
	assert.Equal(t, 20, countClass(yTest, 1))
	assert.Equal(t, 10, countClass(yTest, 0))
	assert.Equal(t, 10, countClass(yTest, -1))
}

func TestStratifiedSplit_Deterministic(t *testing.T) {
	var X [][]float64
	var y []int
	for i := 0; i < 60; i++ {
		X = append(X, []float64{float64(i)})
		y = append(y, i%3-1)
	}

	_, XTest1, _, yTest1 := StratifiedSplit(X, y, 0.2, 7)
	_, XTest2, _, yTest2 := StratifiedSplit(X, y, 0.2, 7)

	assert.Equal(t, XTest1, XTest2)
	assert.Equal(t, yTest1, yTest2)
}
