package model

import (
	"math/rand"
	"sort"
)

// 回归树（CART，方差最小化分裂），是森林与 GBRT 的共享底座。
// 值为 math.NaN 的输入不做特判：特征流水线保证矩阵里没有缺失。

// TreeNode 是树的节点；Leaf 为 true 时只有 Value 有效。
// 字段导出以便 JSON 持久化。
type TreeNode struct {
	Leaf      bool      `json:"leaf"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Value     float64   `json:"value,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
}

// Predict 沿树下行到叶子。x <= threshold 走左子树。
func (n *TreeNode) Predict(x []float64) float64 {
	cur := n
	for !cur.Leaf {
		if x[cur.Feature] <= cur.Threshold {
			cur = cur.Left
		} else {
			cur = cur.Right
		}
	}
	return cur.Value
}

// treeParams 是一次建树的超参数。
type treeParams struct {
	maxDepth    int
	minLeaf     int
	maxFeatures int // 0 => 每次分裂考察全部特征
}

// buildRegTree 在 indices 指定的样本子集上递归建树。
// importances 按特征下标累计分裂的方差缩减（可为 nil）。
func buildRegTree(X [][]float64, y []float64, indices []int, depth int, p treeParams, rng *rand.Rand, importances []float64) *TreeNode {
	sum, sumSq := 0.0, 0.0
	for _, i := range indices {
		sum += y[i]
		sumSq += y[i] * y[i]
	}
	n := float64(len(indices))
	mean := sum / n
	sse := sumSq - sum*sum/n

	leaf := &TreeNode{Leaf: true, Value: mean}
	if len(indices) < 2*p.minLeaf || (p.maxDepth > 0 && depth >= p.maxDepth) || sse <= 1e-12 {
		return leaf
	}

	feature, threshold, gain := bestVarianceSplit(X, y, indices, sse, p, rng)
	if feature < 0 {
		return leaf
	}
	if importances != nil {
		importances[feature] += gain
	}

	var left, right []int
	for _, i := range indices {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      buildRegTree(X, y, left, depth+1, p, rng, importances),
		Right:     buildRegTree(X, y, right, depth+1, p, rng, importances),
	}
}

// bestVarianceSplit 穷举候选特征的排序扫描，找方差缩减最大的 (feature, threshold)。
// 找不到合法分裂时返回 feature = -1。
func bestVarianceSplit(X [][]float64, y []float64, indices []int, parentSSE float64, p treeParams, rng *rand.Rand) (int, float64, float64) {
	numFeatures := len(X[0])
	candidates := candidateFeatures(numFeatures, p.maxFeatures, rng)

	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0

	// 每个特征独立排序扫描：前缀和求左右 SSE，O(n log n)
	order := make([]int, len(indices))
	for _, f := range candidates {
		copy(order, indices)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		leftSum, leftSq := 0.0, 0.0
		totalSum, totalSq := 0.0, 0.0
		for _, i := range order {
			totalSum += y[i]
			totalSq += y[i] * y[i]
		}

		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			leftSum += y[i]
			leftSq += y[i] * y[i]

			// 相同特征值之间不能切
			if X[order[k]][f] == X[order[k+1]][f] {
				continue
			}
			nl := float64(k + 1)
			nr := float64(len(order) - k - 1)
			if int(nl) < p.minLeaf || int(nr) < p.minLeaf {
				continue
			}
			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			leftSSE := leftSq - leftSum*leftSum/nl
			rightSSE := rightSq - rightSum*rightSum/nr
			gain := parentSSE - leftSSE - rightSSE
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (X[order[k]][f] + X[order[k+1]][f]) / 2
			}
		}
	}
	return bestFeature, bestThreshold, bestGain
}

// candidateFeatures 返回本次分裂考察的特征下标；maxFeatures > 0 时随机抽子集。
func candidateFeatures(numFeatures, maxFeatures int, rng *rand.Rand) []int {
	all := make([]int, numFeatures)
	for i := range all {
		all[i] = i
	}
	if maxFeatures <= 0 || maxFeatures >= numFeatures || rng == nil {
		return all
	}
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:maxFeatures]
}
