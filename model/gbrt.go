package model

import (
	"math/rand"
	"time"
)

// GBRT 实现梯度提升回归树（精确贪心分裂变体）：
// 逐轮在残差上拟合浅树，按学习率收缩累加；每轮对样本做无放回子采样。
type GBRT struct {
	Rounds       int     `json:"rounds"`
	LearningRate float64 `json:"learning_rate"`
	MaxDepth     int     `json:"max_depth"`
	MinLeaf      int     `json:"min_leaf"`
	Subsample    float64 `json:"subsample"`
	Seed         int64   `json:"seed"`

	Init        float64     `json:"init"` // 初始预测：训练目标均值
	Trees       []*TreeNode `json:"trees"`
	Importances []float64   `json:"importances"`

	Trained time.Duration `json:"train_duration_ns"`
}

// NewGBRT 返回固定调参的 GBRT 回归器。
func NewGBRT() *GBRT {
	return &GBRT{
		Rounds:       300,
		LearningRate: 0.05,
		MaxDepth:     4,
		MinLeaf:      5,
		Subsample:    0.8,
		Seed:         11,
	}
}

func (g *GBRT) Name() string { return "gbrt" }

func (g *GBRT) Fit(X [][]float64, y []float64) error {
	if err := checkXY(X, y); err != nil {
		return err
	}
	start := time.Now()

	n := len(X)
	numFeatures := len(X[0])
	rng := rand.New(rand.NewSource(g.Seed))
	params := treeParams{maxDepth: g.MaxDepth, minLeaf: g.MinLeaf}
	importances := make([]float64, numFeatures)

	g.Init = mean(y)
	pred := make([]float64, n)
	for i := range pred {
		pred[i] = g.Init
	}

	residual := make([]float64, n)
	trees := make([]*TreeNode, 0, g.Rounds)
	for round := 0; round < g.Rounds; round++ {
		for i := range residual {
			residual[i] = y[i] - pred[i]
		}
		indices := subsampleIndices(n, g.Subsample, rng)
		tree := buildRegTree(X, residual, indices, 0, params, rng, importances)
		trees = append(trees, tree)
		for i := range pred {
			pred[i] += g.LearningRate * tree.Predict(X[i])
		}
	}

	g.Trees = trees
	g.Importances = normalizeImportances(importances)
	g.Trained = time.Since(start)
	return nil
}

func (g *GBRT) Predict(X [][]float64) ([]float64, error) {
	if len(g.Trees) == 0 {
		return nil, ErrNotTrained
	}
	out := make([]float64, len(X))
	for i, x := range X {
		score := g.Init
		for _, tree := range g.Trees {
			score += g.LearningRate * tree.Predict(x)
		}
		out[i] = score
	}
	return out, nil
}

func (g *GBRT) FeatureImportances() []float64 { return g.Importances }

func (g *GBRT) TrainDuration() time.Duration { return g.Trained }

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// subsampleIndices 无放回抽取 ratio 比例的样本下标；ratio >= 1 时用全量。
func subsampleIndices(n int, ratio float64, rng *rand.Rand) []int {
	if ratio >= 1 || ratio <= 0 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	k := int(float64(n) * ratio)
	if k < 1 {
		k = 1
	}
	perm := rng.Perm(n)
	return perm[:k]
}
