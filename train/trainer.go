// Package train 实现离线训练编排：特征拟合、数据切分、多回归器并行训练、
// ensemble 权重寻优、测试集评估、工件落盘。
package train

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/revkit/artifact"
	"github.com/rushteam/revkit/config"
	"github.com/rushteam/revkit/core"
	"github.com/rushteam/revkit/eval"
	"github.com/rushteam/revkit/feature"
	"github.com/rushteam/revkit/model"
)

// Trainer 按配置执行一次完整训练运行。
type Trainer struct {
	Config *config.TrainingConfig

	// Regressors 可选：显式指定参训回归器（已设超参、未训练）。
	// 为空时按 Config.Families 构建内置家族。
	Regressors []model.Regressor
}

func NewTrainer(cfg *config.TrainingConfig) *Trainer {
	if cfg == nil {
		cfg = config.DefaultTrainingConfig()
	}
	return &Trainer{Config: cfg}
}

// FeatureWeight 是一条特征重要性：按 ensemble 权重加权平均后排序。
type FeatureWeight struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// Report 是一次训练运行的产出摘要。
type Report struct {
	Rows      int            `json:"rows"`
	TrainRows int            `json:"train_rows"`
	ValRows   int            `json:"val_rows"`
	TestRows  int            `json:"test_rows"`

	// Families 是实际进入 ensemble 的家族；Excluded 是训练失败被剔除的家族及原因
	Families []string          `json:"families"`
	Excluded map[string]string `json:"excluded,omitempty"`

	Weights   []float64                `json:"weights"`
	Durations map[string]time.Duration `json:"durations"`

	Metrics     *eval.Metrics   `json:"metrics"`
	TopFeatures []FeatureWeight `json:"top_features"`

	ArtifactDir string `json:"artifact_dir,omitempty"`
}

// Run 执行训练：FitTransform → 切分 → 并行训练 → 权重寻优 → 测试集评估 → 工件落盘。
// 单个回归器训练失败只剔除该家族；全部失败才报错。
func (t *Trainer) Run(ctx context.Context, companies []*core.Company) (*Report, error) {
	cfg := t.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engineer := feature.NewEngineer()
	matrix, err := engineer.FitTransform(companies, core.TargetAnnualRevenue)
	if err != nil {
		return nil, err
	}

	X, y := splitXY(matrix)
	// 目标进入 log 空间：营收跨多个数量级，log1p 后误差对大小公司同等公平
	yLog := make([]float64, len(y))
	for i, v := range y {
		yLog[i] = math.Log1p(v)
	}

	split := SplitIndices(len(X), cfg.TrainFraction, cfg.ValFraction, cfg.TestFraction, cfg.Seed)
	XTrain, yTrain := takeRows(X, yLog, split.Train)
	XVal, yVal := takeRows(X, yLog, split.Val)
	XTest, yTest := takeRows(X, yLog, split.Test)

	report := &Report{
		Rows:      len(X),
		TrainRows: len(XTrain),
		ValRows:   len(XVal),
		TestRows:  len(XTest),
		Excluded:  make(map[string]string),
		Durations: make(map[string]time.Duration),
	}

	regressors := t.Regressors
	if len(regressors) == 0 {
		regressors = t.buildRegressors()
	}

	// 失败按下标落位，汇总推迟到 Wait 之后，避免多个 goroutine 并发写 map
	fitErrs := make([]error, len(regressors))
	g, _ := errgroup.WithContext(ctx)
	for i, reg := range regressors {
		i, reg := i, reg
		g.Go(func() error {
			fitErrs[i] = reg.Fit(XTrain, yTrain)
			return nil
		})
	}
	_ = g.Wait()

	members := make([]model.Regressor, 0, len(regressors))
	for i, reg := range regressors {
		// 单家族失败不拖垮整次训练
		if fitErrs[i] != nil {
			report.Excluded[reg.Name()] = fitErrs[i].Error()
			continue
		}
		members = append(members, reg)
		report.Families = append(report.Families, reg.Name())
		report.Durations[reg.Name()] = reg.TrainDuration()
	}
	if len(members) == 0 {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInternalError,
			fmt.Sprintf("train: all regressors failed: %v", report.Excluded))
	}

	ensemble, err := model.NewEnsemble(members)
	if err != nil {
		return nil, err
	}
	if err := ensemble.OptimizeWeights(XVal, yVal, cfg.WeightMethod); err != nil {
		return nil, err
	}
	report.Weights = ensemble.Weights()

	if len(XTest) > 0 {
		predTest, err := ensemble.Predict(XTest)
		if err != nil {
			return nil, err
		}
		report.Metrics = eval.Evaluate(yTest, predTest)
	}

	report.TopFeatures = topFeatures(engineer.State().FeatureNames, ensemble, 20)

	if cfg.ArtifactDir != "" {
		bundle := &artifact.Bundle{State: engineer.State(), Ensemble: ensemble}
		if err := bundle.Save(cfg.ArtifactDir); err != nil {
			return nil, err
		}
		report.ArtifactDir = cfg.ArtifactDir
	}
	return report, nil
}

// buildRegressors 按配置构建参训家族，非零配置项覆盖默认超参。
func (t *Trainer) buildRegressors() []model.Regressor {
	cfg := t.Config
	out := make([]model.Regressor, 0, len(cfg.Families))
	for _, family := range cfg.Families {
		switch family {
		case "forest":
			f := model.NewForest()
			if cfg.Forest.NumTrees > 0 {
				f.NumTrees = cfg.Forest.NumTrees
			}
			if cfg.Forest.MaxDepth > 0 {
				f.MaxDepth = cfg.Forest.MaxDepth
			}
			if cfg.Forest.MinLeaf > 0 {
				f.MinLeaf = cfg.Forest.MinLeaf
			}
			f.Seed = cfg.Seed
			out = append(out, f)
		case "gbrt":
			g := model.NewGBRT()
			if cfg.GBRT.Rounds > 0 {
				g.Rounds = cfg.GBRT.Rounds
			}
			if cfg.GBRT.LearningRate > 0 {
				g.LearningRate = cfg.GBRT.LearningRate
			}
			if cfg.GBRT.MaxDepth > 0 {
				g.MaxDepth = cfg.GBRT.MaxDepth
			}
			if cfg.GBRT.MinLeaf > 0 {
				g.MinLeaf = cfg.GBRT.MinLeaf
			}
			if cfg.GBRT.Subsample > 0 {
				g.Subsample = cfg.GBRT.Subsample
			}
			g.Seed = cfg.Seed
			out = append(out, g)
		case "xgrt":
			x := model.NewXGRT()
			if cfg.XGRT.Rounds > 0 {
				x.Rounds = cfg.XGRT.Rounds
			}
			if cfg.XGRT.LearningRate > 0 {
				x.LearningRate = cfg.XGRT.LearningRate
			}
			if cfg.XGRT.MaxDepth > 0 {
				x.MaxDepth = cfg.XGRT.MaxDepth
			}
			if cfg.XGRT.Lambda > 0 {
				x.Lambda = cfg.XGRT.Lambda
			}
			if cfg.XGRT.Gamma > 0 {
				x.Gamma = cfg.XGRT.Gamma
			}
			if cfg.XGRT.MinChildWeight > 0 {
				x.MinChildWeight = cfg.XGRT.MinChildWeight
			}
			out = append(out, x)
		case "histgb":
			h := model.NewHistGB()
			if cfg.HistGB.Rounds > 0 {
				h.Rounds = cfg.HistGB.Rounds
			}
			if cfg.HistGB.LearningRate > 0 {
				h.LearningRate = cfg.HistGB.LearningRate
			}
			if cfg.HistGB.MaxDepth > 0 {
				h.MaxDepth = cfg.HistGB.MaxDepth
			}
			if cfg.HistGB.NumBins > 0 {
				h.NumBins = cfg.HistGB.NumBins
			}
			if cfg.HistGB.MinLeaf > 0 {
				h.MinLeaf = cfg.HistGB.MinLeaf
			}
			out = append(out, h)
		}
	}
	return out
}

// splitXY 把特征矩阵拆为 X（除末列）与 y（末列 = 目标）。
func splitXY(m *core.Matrix) ([][]float64, []float64) {
	n := m.NumRows()
	p := m.NumCols() - 1
	X := make([][]float64, n)
	y := make([]float64, n)
	for i, row := range m.Data {
		X[i] = row[:p]
		y[i] = row[p]
	}
	return X, y
}

func takeRows(X [][]float64, y []float64, indices []int) ([][]float64, []float64) {
	outX := make([][]float64, len(indices))
	outY := make([]float64, len(indices))
	for i, idx := range indices {
		outX[i] = X[idx]
		outY[i] = y[idx]
	}
	return outX, outY
}

// topFeatures 按 ensemble 权重加权平均各成员的特征重要性，取前 k。
func topFeatures(names []string, ensemble *model.Ensemble, k int) []FeatureWeight {
	members := ensemble.Members()
	weights := ensemble.Weights()
	agg := make([]float64, len(names))
	for i, m := range members {
		imps := m.FeatureImportances()
		if len(imps) != len(names) {
			continue
		}
		for j, v := range imps {
			agg[j] += weights[i] * v
		}
	}
	out := make([]FeatureWeight, len(names))
	for i, name := range names {
		out[i] = FeatureWeight{Name: name, Weight: agg[i]}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
