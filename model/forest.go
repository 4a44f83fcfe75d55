package model

import (
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"
)

// Forest 实现 bagging 回归森林：
// 每棵树在 bootstrap 样本上训练，分裂时随机抽 sqrt(p) 个特征，预测取树均值。
type Forest struct {
	NumTrees int   `json:"num_trees"`
	MaxDepth int   `json:"max_depth"`
	MinLeaf  int   `json:"min_leaf"`
	Seed     int64 `json:"seed"`

	Trees       []*TreeNode `json:"trees"`
	Importances []float64   `json:"importances"`

	Trained time.Duration `json:"train_duration_ns"`
}

// NewForest 返回固定调参的森林回归器。
func NewForest() *Forest {
	return &Forest{
		NumTrees: 200,
		MaxDepth: 12,
		MinLeaf:  2,
		Seed:     7,
	}
}

func (f *Forest) Name() string { return "forest" }

// Fit 并行训练全部树。每棵树的随机源由 Seed+树下标派生，结果可复现。
func (f *Forest) Fit(X [][]float64, y []float64) error {
	if err := checkXY(X, y); err != nil {
		return err
	}
	start := time.Now()

	numFeatures := len(X[0])
	maxFeatures := int(math.Sqrt(float64(numFeatures)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}
	params := treeParams{maxDepth: f.MaxDepth, minLeaf: f.MinLeaf, maxFeatures: maxFeatures}

	trees := make([]*TreeNode, f.NumTrees)
	importances := make([][]float64, f.NumTrees)

	var eg errgroup.Group
	eg.SetLimit(8)
	for t := 0; t < f.NumTrees; t++ {
		t := t
		eg.Go(func() error {
			rng := rand.New(rand.NewSource(f.Seed + int64(t)))
			indices := bootstrapIndices(len(X), rng)
			imp := make([]float64, numFeatures)
			trees[t] = buildRegTree(X, y, indices, 0, params, rng, imp)
			importances[t] = imp
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	f.Trees = trees
	f.Importances = averageImportances(importances, numFeatures)
	f.Trained = time.Since(start)
	return nil
}

// Predict 返回全部树预测的均值（log 空间）。
func (f *Forest) Predict(X [][]float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, ErrNotTrained
	}
	out := make([]float64, len(X))
	for i, x := range X {
		sum := 0.0
		for _, tree := range f.Trees {
			sum += tree.Predict(x)
		}
		out[i] = sum / float64(len(f.Trees))
	}
	return out, nil
}

func (f *Forest) FeatureImportances() []float64 { return f.Importances }

func (f *Forest) TrainDuration() time.Duration { return f.Trained }

// bootstrapIndices 有放回抽样出与原集等长的下标集。
func bootstrapIndices(n int, rng *rand.Rand) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = rng.Intn(n)
	}
	return indices
}

// averageImportances 对各树重要度取均值后归一化。
func averageImportances(perTree [][]float64, numFeatures int) []float64 {
	sum := make([]float64, numFeatures)
	for _, imp := range perTree {
		for j, v := range imp {
			sum[j] += v
		}
	}
	return normalizeImportances(sum)
}
