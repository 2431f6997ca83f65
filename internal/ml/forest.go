package ml

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"augur/pkg/errors"
)

// ForestConfig holds the hyperparameters of a bagged classification forest
type ForestConfig struct {
	Trees    int
	MaxDepth int
	MinSplit int
	MinLeaf  int
	Seed     int64
}

// Forest is a bagged ensemble of CART trees over a fixed class set.
// Immutable after FitForest returns; safe for concurrent prediction.
type Forest struct {
	classes []int
	trees   []*treeNode
}

// ctxCheckEvery controls how often Fit polls for cancellation
const ctxCheckEvery = 8

// FitForest trains cfg.Trees CART trees on bootstrap samples of (X, y). Each
// tree draws its randomness from a source derived from cfg.Seed and the tree
// index, so identical inputs always produce an identical forest. Fit honors
// ctx cancellation between trees and returns without a partial model.
func FitForest(ctx context.Context, X [][]float64, y []int, cfg ForestConfig) (*Forest, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, errors.Wrapf(errors.ErrInvalidInput,
			"forest fit requires matching non-empty samples, got %d rows and %d labels", len(X), len(y))
	}

	classes := uniqueSorted(y)
	classIndex := make(map[int]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	nFeatures := len(X[0])
	maxFeatures := int(math.Sqrt(float64(nFeatures)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	treeCfg := treeConfig{
		maxDepth:    cfg.MaxDepth,
		minSplit:    cfg.MinSplit,
		minLeaf:     cfg.MinLeaf,
		maxFeatures: maxFeatures,
	}

	trees := make([]*treeNode, cfg.Trees)
	for t := 0; t < cfg.Trees; t++ {
		if t%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.Wrap(err, "forest fit aborted")
			}
		}

		rng := rand.New(rand.NewSource(cfg.Seed + int64(t)))

		// Bootstrap sample with replacement
		idx := make([]int, len(X))
		for i := range idx {
			idx[i] = rng.Intn(len(X))
		}

		trees[t] = growTree(X, y, idx, classIndex, treeCfg, rng, 0)
	}

	return &Forest{classes: classes, trees: trees}, nil
}

// Classes returns the fitted class labels in ascending order
func (f *Forest) Classes() []int {
	out := make([]int, len(f.classes))
	copy(out, f.classes)
	return out
}

// PredictProba returns the per-class probabilities for one feature vector,
// averaged over all trees, ordered as Classes()
func (f *Forest) PredictProba(row []float64) []float64 {
	probs := make([]float64, len(f.classes))
	for _, tree := range f.trees {
		leaf := tree.predict(row)
		for i, p := range leaf {
			probs[i] += p
		}
	}
	for i := range probs {
		probs[i] /= float64(len(f.trees))
	}
	return probs
}

// Predict returns the most probable class for one feature vector along with
// the full probability vector
func (f *Forest) Predict(row []float64) (int, []float64) {
	probs := f.PredictProba(row)
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return f.classes[best], probs
}

// Score returns classification accuracy over (X, y)
func (f *Forest) Score(X [][]float64, y []int) float64 {
	if len(X) == 0 {
		return 0
	}
	correct := 0
	for i, row := range X {
		if class, _ := f.Predict(row); class == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(X))
}

func uniqueSorted(y []int) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
