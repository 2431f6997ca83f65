package ml

import (
	"math/rand"
	"sort"
)

// treeConfig holds the growth limits for a single CART tree
type treeConfig struct {
	maxDepth    int
	minSplit    int
	minLeaf     int
	maxFeatures int
}

// treeNode is one node of a fitted decision tree. Leaves carry the class
// distribution of the training samples that reached them.
type treeNode struct {
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
	leaf      bool
	probs     []float64
}

// growTree fits a CART tree on the rows of X selected by idx, using Gini
// impurity and per-split random feature subsampling. classIndex maps a class
// label to its position in the probability vectors.
func growTree(X [][]float64, y []int, idx []int, classIndex map[int]int, cfg treeConfig, rng *rand.Rand, depth int) *treeNode {
	counts := classCounts(y, idx, classIndex)

	if depth >= cfg.maxDepth || len(idx) < cfg.minSplit || isPure(counts) {
		return leafNode(counts, len(idx))
	}

	feature, threshold, ok := bestSplit(X, y, idx, classIndex, cfg, rng)
	if !ok {
		return leafNode(counts, len(idx))
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if X[i][feature] <= threshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      growTree(X, y, leftIdx, classIndex, cfg, rng, depth+1),
		right:     growTree(X, y, rightIdx, classIndex, cfg, rng, depth+1),
	}
}

// bestSplit searches a random subset of features for the split with the
// lowest weighted Gini impurity that leaves at least minLeaf samples on each
// side. Uses a sorted sweep with incremental class counts per feature.
func bestSplit(X [][]float64, y []int, idx []int, classIndex map[int]int, cfg treeConfig, rng *rand.Rand) (int, float64, bool) {
	nFeatures := len(X[idx[0]])
	features := sampleFeatures(nFeatures, cfg.maxFeatures, rng)

	bestGini := gini(classCounts(y, idx, classIndex), len(idx))
	bestFeature, bestThreshold := -1, 0.0
	found := false

	order := make([]int, len(idx))
	for _, f := range features {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		leftCounts := make([]int, len(classIndex))
		rightCounts := classCounts(y, idx, classIndex)
		total := len(order)

		for i := 1; i < total; i++ {
			c := classIndex[y[order[i-1]]]
			leftCounts[c]++
			rightCounts[c]--

			// Cannot split between identical values
			if X[order[i]][f] == X[order[i-1]][f] {
				continue
			}
			if i < cfg.minLeaf || total-i < cfg.minLeaf {
				continue
			}

			weighted := (float64(i)*gini(leftCounts, i) + float64(total-i)*gini(rightCounts, total-i)) / float64(total)
			if weighted < bestGini {
				bestGini = weighted
				bestFeature = f
				bestThreshold = (X[order[i]][f] + X[order[i-1]][f]) / 2
				found = true
			}
		}
	}

	return bestFeature, bestThreshold, found
}

// sampleFeatures draws maxFeatures distinct feature indices without
// replacement
func sampleFeatures(nFeatures, maxFeatures int, rng *rand.Rand) []int {
	if maxFeatures >= nFeatures {
		all := make([]int, nFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	perm := rng.Perm(nFeatures)
	return perm[:maxFeatures]
}

func classCounts(y []int, idx []int, classIndex map[int]int) []int {
	counts := make([]int, len(classIndex))
	for _, i := range idx {
		counts[classIndex[y[i]]]++
	}
	return counts
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func gini(counts []int, total int) float64 {
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := float64(c) / float64(total)
		impurity -= p * p
	}
	return impurity
}

func leafNode(counts []int, total int) *treeNode {
	probs := make([]float64, len(counts))
	if total > 0 {
		for i, c := range counts {
			probs[i] = float64(c) / float64(total)
		}
	}
	return &treeNode{leaf: true, probs: probs}
}

// predict walks the tree and returns the leaf class distribution
func (n *treeNode) predict(row []float64) []float64 {
	node := n
	for !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.probs
}
