package model

import (
	"sort"
	"time"
)

// XGRT 是第二种 boosting 变体：二阶（梯度/海森）分裂评分 + L2 叶子正则。
// 与 GBRT 的差异在分裂策略与正则默认值：
//   - 叶子权重 w = -G / (H + λ)
//   - 分裂增益 = ½[G_L²/(H_L+λ) + G_R²/(H_R+λ) − G²/(H+λ)] − γ
//   - 增益低于 γ 的分裂直接放弃（min split gain）
// 平方损失下 g = pred − y，h = 1。
type XGRT struct {
	Rounds         int     `json:"rounds"`
	LearningRate   float64 `json:"learning_rate"`
	MaxDepth       int     `json:"max_depth"`
	Lambda         float64 `json:"lambda"`           // L2 叶子正则
	Gamma          float64 `json:"gamma"`            // 最小分裂增益
	MinChildWeight float64 `json:"min_child_weight"` // 子节点最小海森和

	Init        float64     `json:"init"`
	Trees       []*TreeNode `json:"trees"`
	Importances []float64   `json:"importances"`

	Trained time.Duration `json:"train_duration_ns"`
}

// NewXGRT 返回固定调参的正则化 boosting 回归器。
func NewXGRT() *XGRT {
	return &XGRT{
		Rounds:         250,
		LearningRate:   0.08,
		MaxDepth:       6,
		Lambda:         1.0,
		Gamma:          0.1,
		MinChildWeight: 3,
	}
}

func (x *XGRT) Name() string { return "xgrt" }

func (x *XGRT) Fit(X [][]float64, y []float64) error {
	if err := checkXY(X, y); err != nil {
		return err
	}
	start := time.Now()

	n := len(X)
	numFeatures := len(X[0])
	importances := make([]float64, numFeatures)

	x.Init = mean(y)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = x.Init
	}

	grad := make([]float64, n)
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	trees := make([]*TreeNode, 0, x.Rounds)
	for round := 0; round < x.Rounds; round++ {
		for i := range grad {
			grad[i] = pred[i] - y[i]
		}
		tree := x.buildNode(X, grad, indices, 0, importances)
		trees = append(trees, tree)
		for i := range pred {
			pred[i] += x.LearningRate * tree.Predict(X[i])
		}
	}

	x.Trees = trees
	x.Importances = normalizeImportances(importances)
	x.Trained = time.Since(start)
	return nil
}

// buildNode 深度优先建一棵二阶树。平方损失下每个样本海森为 1，
// 海森和即样本数，MinChildWeight 因此退化为最小子节点样本数。
func (x *XGRT) buildNode(X [][]float64, grad []float64, indices []int, depth int, importances []float64) *TreeNode {
	gSum := 0.0
	for _, i := range indices {
		gSum += grad[i]
	}
	hSum := float64(len(indices))

	leaf := &TreeNode{Leaf: true, Value: -gSum / (hSum + x.Lambda)}
	if depth >= x.MaxDepth || hSum < 2*x.MinChildWeight {
		return leaf
	}

	parentScore := gSum * gSum / (hSum + x.Lambda)
	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0

	order := make([]int, len(indices))
	numFeatures := len(X[0])
	for f := 0; f < numFeatures; f++ {
		copy(order, indices)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		gl, hl := 0.0, 0.0
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			gl += grad[i]
			hl++
			if X[order[k]][f] == X[order[k+1]][f] {
				continue
			}
			gr := gSum - gl
			hr := hSum - hl
			if hl < x.MinChildWeight || hr < x.MinChildWeight {
				continue
			}
			gain := 0.5*(gl*gl/(hl+x.Lambda)+gr*gr/(hr+x.Lambda)-parentScore) - x.Gamma
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (X[order[k]][f] + X[order[k+1]][f]) / 2
			}
		}
	}

	if bestFeature < 0 {
		return leaf
	}
	importances[bestFeature] += bestGain

	var left, right []int
	for _, i := range indices {
		if X[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &TreeNode{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      x.buildNode(X, grad, left, depth+1, importances),
		Right:     x.buildNode(X, grad, right, depth+1, importances),
	}
}

func (x *XGRT) Predict(X [][]float64) ([]float64, error) {
	if len(x.Trees) == 0 {
		return nil, ErrNotTrained
	}
	out := make([]float64, len(X))
	for i, row := range X {
		score := x.Init
		for _, tree := range x.Trees {
			score += x.LearningRate * tree.Predict(row)
		}
		out[i] = score
	}
	return out, nil
}

func (x *XGRT) FeatureImportances() []float64 { return x.Importances }

func (x *XGRT) TrainDuration() time.Duration { return x.Trained }
