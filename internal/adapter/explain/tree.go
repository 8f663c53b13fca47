package explain

import "sort"

// node is one regression-tree node. Every node keeps the mean target of the
// samples that reached it, which is what the additive path attribution sums
// over.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	value     float64
	leaf      bool
}

// fitTree grows a depth-limited regression tree on rows[idx] by variance
// reduction. Splits scan candidate thresholds at midpoints between sorted
// distinct feature values; ties keep the lowest feature index and lowest
// threshold, so the tree is deterministic for a given batch.
func fitTree(rows [][]float64, targets []float64, idx []int, depth, maxDepth, minLeaf int) *node {
	n := &node{value: mean(targets, idx), leaf: true}
	if depth >= maxDepth || len(idx) < 2*minLeaf {
		return n
	}

	bestFeature := -1
	bestThreshold := 0.0
	bestGain := 0.0
	parentSSE := sse(targets, idx, n.value)

	if len(rows) == 0 {
		return n
	}
	numFeatures := len(rows[idx[0]])

	order := make([]int, len(idx))
	for f := 0; f < numFeatures; f++ {
		copy(order, idx)
		sort.SliceStable(order, func(a, b int) bool {
			return rows[order[a]][f] < rows[order[b]][f]
		})

		// Prefix sums over the sorted order make each split O(1).
		prefixSum := 0.0
		prefixSq := 0.0
		totalSum := 0.0
		totalSq := 0.0
		for _, i := range order {
			totalSum += targets[i]
			totalSq += targets[i] * targets[i]
		}

		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos]
			prefixSum += targets[i]
			prefixSq += targets[i] * targets[i]

			left := pos + 1
			right := len(order) - left
			if left < minLeaf || right < minLeaf {
				continue
			}
			// No valid threshold between equal values.
			if rows[order[pos]][f] == rows[order[pos+1]][f] {
				continue
			}

			leftSSE := prefixSq - prefixSum*prefixSum/float64(left)
			rightSum := totalSum - prefixSum
			rightSSE := (totalSq - prefixSq) - rightSum*rightSum/float64(right)
			gain := parentSSE - leftSSE - rightSSE

			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (rows[order[pos]][f] + rows[order[pos+1]][f]) / 2
			}
		}
	}

	if bestFeature < 0 {
		return n
	}

	var leftIdx, rightIdx []int
	for _, i := range idx {
		if rows[i][bestFeature] <= bestThreshold {
			leftIdx = append(leftIdx, i)
		} else {
			rightIdx = append(rightIdx, i)
		}
	}
	if len(leftIdx) == 0 || len(rightIdx) == 0 {
		return n
	}

	n.leaf = false
	n.feature = bestFeature
	n.threshold = bestThreshold
	n.left = fitTree(rows, targets, leftIdx, depth+1, maxDepth, minLeaf)
	n.right = fitTree(rows, targets, rightIdx, depth+1, maxDepth, minLeaf)
	return n
}

// predict returns the tree's output for one row.
func (n *node) predict(row []float64) float64 {
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// attribute walks the decision path for one row, adding each step's value
// change (child mean minus parent mean) to the split feature's contribution.
// The root value plus all steps equals predict(row) exactly.
func (n *node) attribute(row []float64, contribs []float64) float64 {
	root := n.value
	for !n.leaf {
		var child *node
		if row[n.feature] <= n.threshold {
			child = n.left
		} else {
			child = n.right
		}
		contribs[n.feature] += child.value - n.value
		n = child
	}
	return root
}

func mean(targets []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += targets[i]
	}
	return sum / float64(len(idx))
}

func sse(targets []float64, idx []int, m float64) float64 {
	total := 0.0
	for _, i := range idx {
		d := targets[i] - m
		total += d * d
	}
	return total
}
