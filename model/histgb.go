package model

import (
	"math"
	"time"
)

// HistGB 是直方图分箱的 boosting 变体：
// fit 期为每个特征建等宽分箱边界，样本离散化为箱下标；
// 分裂只在箱边界上扫描（每特征最多 NumBins-1 个候选），
// 大训练集下比精确贪心扫描快一个量级。
type HistGB struct {
	Rounds       int     `json:"rounds"`
	LearningRate float64 `json:"learning_rate"`
	MaxDepth     int     `json:"max_depth"`
	NumBins      int     `json:"num_bins"`
	MinLeaf      int     `json:"min_leaf"`

	Init        float64     `json:"init"`
	BinLow      []float64   `json:"bin_low"`   // 每特征分箱下界
	BinWidth    []float64   `json:"bin_width"` // 每特征箱宽（0 表示常数列）
	Trees       []*TreeNode `json:"trees"`     // Threshold 存的是箱上界之下最近的原始值
	Importances []float64   `json:"importances"`

	Trained time.Duration `json:"train_duration_ns"`
}

// NewHistGB 返回固定调参的直方图 boosting 回归器。
func NewHistGB() *HistGB {
	return &HistGB{
		Rounds:       200,
		LearningRate: 0.1,
		MaxDepth:     6,
		NumBins:      64,
		MinLeaf:      20,
	}
}

func (h *HistGB) Name() string { return "histgb" }

func (h *HistGB) Fit(X [][]float64, y []float64) error {
	if err := checkXY(X, y); err != nil {
		return err
	}
	start := time.Now()

	n := len(X)
	numFeatures := len(X[0])
	h.fitBins(X)

	// 离散化训练集：binned[i][f] ∈ [0, NumBins)
	binned := make([][]int, n)
	for i, row := range X {
		binned[i] = make([]int, numFeatures)
		for f, v := range row {
			binned[i][f] = h.binIndex(f, v)
		}
	}

	importances := make([]float64, numFeatures)
	h.Init = mean(y)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = h.Init
	}

	residual := make([]float64, n)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	trees := make([]*TreeNode, 0, h.Rounds)
	for round := 0; round < h.Rounds; round++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}
		tree := h.buildNode(binned, residual, indices, 0, importances)
		trees = append(trees, tree)
		for i, row := range X {
			pred[i] += h.LearningRate * tree.Predict(row)
		}
	}

	h.Trees = trees
	h.Importances = normalizeImportances(importances)
	h.Trained = time.Since(start)
	return nil
}

// fitBins 为每个特征建立等宽分箱参数。
func (h *HistGB) fitBins(X [][]float64) {
	numFeatures := len(X[0])
	h.BinLow = make([]float64, numFeatures)
	h.BinWidth = make([]float64, numFeatures)
	for f := 0; f < numFeatures; f++ {
		lo, hi := X[0][f], X[0][f]
		for _, row := range X {
			if row[f] < lo {
				lo = row[f]
			}
			if row[f] > hi {
				hi = row[f]
			}
		}
		h.BinLow[f] = lo
		if hi > lo {
			h.BinWidth[f] = (hi - lo) / float64(h.NumBins)
		}
	}
}

// binIndex 把原始值映射到箱下标；越界值夹到边界箱。
func (h *HistGB) binIndex(f int, v float64) int {
	if h.BinWidth[f] <= 0 {
		return 0
	}
	idx := int((v - h.BinLow[f]) / h.BinWidth[f])
	if idx < 0 {
		return 0
	}
	if idx >= h.NumBins {
		idx = h.NumBins - 1
	}
	return idx
}

// binUpper 返回箱 b 的分裂阈值：取箱上界之下最近的浮点数。
// 预测端按 <= 阈值走左子树，恰好落在上界上的值属于箱 b+1，
// 阈值必须严格小于上界才能与 fit 期的 binIndex 路由一致。
func (h *HistGB) binUpper(f, b int) float64 {
	return math.Nextafter(h.BinLow[f]+h.BinWidth[f]*float64(b+1), math.Inf(-1))
}

// buildNode 在箱下标上深度优先建树：每个特征先聚直方图（计数 + 残差和），
// 再沿箱边界扫描方差缩减。
func (h *HistGB) buildNode(binned [][]int, residual []float64, indices []int, depth int, importances []float64) *TreeNode {
	sum, sumSq := 0.0, 0.0
	for _, i := range indices {
		sum += residual[i]
		sumSq += residual[i] * residual[i]
	}
	n := float64(len(indices))
	leaf := &TreeNode{Leaf: true, Value: sum / n}
	sse := sumSq - sum*sum/n
	if depth >= h.MaxDepth || len(indices) < 2*h.MinLeaf || sse <= 1e-12 {
		return leaf
	}

	numFeatures := len(binned[0])
	bestFeature, bestBin, bestGain := -1, 0, 0.0

	counts := make([]float64, h.NumBins)
	sums := make([]float64, h.NumBins)
	sqs := make([]float64, h.NumBins)
	for f := 0; f < numFeatures; f++ {
		for b := range counts {
			counts[b], sums[b], sqs[b] = 0, 0, 0
		}
		for _, i := range indices {
			b := binned[i][f]
			counts[b]++
			sums[b] += residual[i]
			sqs[b] += residual[i] * residual[i]
		}

		leftN, leftSum, leftSq := 0.0, 0.0, 0.0
		for b := 0; b < h.NumBins-1; b++ {
			leftN += counts[b]
			leftSum += sums[b]
			leftSq += sqs[b]
			rightN := n - leftN
			if leftN < float64(h.MinLeaf) || rightN < float64(h.MinLeaf) {
				continue
			}
			rightSum := sum - leftSum
			rightSq := sumSq - leftSq
			leftSSE := leftSq - leftSum*leftSum/leftN
			rightSSE := rightSq - rightSum*rightSum/rightN
			gain := sse - leftSSE - rightSSE
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestBin = b
			}
		}
	}

	if bestFeature < 0 {
		return leaf
	}
	importances[bestFeature] += bestGain

	var left, right []int
	for _, i := range indices {
		if binned[i][bestFeature] <= bestBin {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return leaf
	}
	return &TreeNode{
		Feature:   bestFeature,
		Threshold: h.binUpper(bestFeature, bestBin),
		Left:      h.buildNode(binned, residual, left, depth+1, importances),
		Right:     h.buildNode(binned, residual, right, depth+1, importances),
	}
}

func (h *HistGB) Predict(X [][]float64) ([]float64, error) {
	if len(h.Trees) == 0 {
		return nil, ErrNotTrained
	}
	out := make([]float64, len(X))
	for i, row := range X {
		score := h.Init
		for _, tree := range h.Trees {
			score += h.LearningRate * tree.Predict(row)
		}
		out[i] = score
	}
	return out, nil
}

func (h *HistGB) FeatureImportances() []float64 { return h.Importances }

func (h *HistGB) TrainDuration() time.Duration { return h.Trained }
