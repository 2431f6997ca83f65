package ml

import (
	"math/rand"
	"sort"
)

// StratifiedSplit partitions (X, y) into train and test sets, preserving the
// class proportions of y in both sets. The shuffle is driven entirely by the
// seed, so a given input always yields the same partition.
func StratifiedSplit(X [][]float64, y []int, testFraction float64, seed int64) (XTrain, XTest [][]float64, yTrain, yTest []int) {
	rng := rand.New(rand.NewSource(seed))

	// Group row indices per class, iterating classes in a stable order
	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) {
			idx[i], idx[j] = idx[j], idx[i]
		})

		nTest := int(float64(len(idx)) * testFraction)
		for k, i := range idx {
			if k < nTest {
				XTest = append(XTest, X[i])
				yTest = append(yTest, y[i])
			} else {
				XTrain = append(XTrain, X[i])
				yTrain = append(yTrain, y[i])
			}
		}
	}

	return XTrain, XTest, yTrain, yTest
}
