package model

import (
	"math"
	"time"

	"github.com/rushteam/revkit/core"
)

// Regressor 是回归器的统一契约：输入特征矩阵，输出 log 空间预测。
// 四个树家族（bagging 森林、两种 GBDT 变体、直方图 boosting）共享同一契约，
// 因此可以互换地作为 ensemble 成员。
//
// 约定：调用方负责对目标做 log1p 变换；Fit/Predict 全程工作在 log 空间。
type Regressor interface {
	Name() string

	// Fit 在 (X, y) 上训练；记录训练耗时与特征重要度。
	Fit(X [][]float64, y []float64) error

	// Predict 返回 log 空间预测（与 X 行数等长）。
	Predict(X [][]float64) ([]float64, error)

	// FeatureImportances 返回按列下标对齐的重要度（归一化到和为 1）；未训练时为 nil。
	FeatureImportances() []float64

	// TrainDuration 返回最近一次 Fit 的墙钟耗时。
	TrainDuration() time.Duration
}

// 模型错误定义（使用统一的 DomainError）
var (
	// ErrNotTrained 表示模型尚未训练
	ErrNotTrained = core.NewDomainError(core.ModuleModel, core.ErrorCodeNotFitted, "model: not trained")

	// ErrEmptyInput 表示训练/预测输入为空或形状不符
	ErrEmptyInput = core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "model: empty or malformed input")
)

// CVScore 是交叉验证结果：折间 R² 的均值与标准差。
type CVScore struct {
	MeanR2 float64
	StdR2  float64
}

// CrossValidate 对 factory 产出的回归器做 k 折交叉验证，返回折间 R² 统计。
// 折划分按行下标顺序切片（调用方如需打乱应先自行 shuffle）。
func CrossValidate(factory func() Regressor, X [][]float64, y []float64, folds int) (CVScore, error) {
	if folds < 2 || len(X) < folds {
		return CVScore{}, ErrEmptyInput
	}
	scores := make([]float64, 0, folds)
	foldSize := len(X) / folds
	for f := 0; f < folds; f++ {
		lo := f * foldSize
		hi := lo + foldSize
		if f == folds-1 {
			hi = len(X)
		}
		var trainX, valX [][]float64
		var trainY, valY []float64
		for i := range X {
			if i >= lo && i < hi {
				valX = append(valX, X[i])
				valY = append(valY, y[i])
			} else {
				trainX = append(trainX, X[i])
				trainY = append(trainY, y[i])
			}
		}
		reg := factory()
		if err := reg.Fit(trainX, trainY); err != nil {
			return CVScore{}, err
		}
		pred, err := reg.Predict(valX)
		if err != nil {
			return CVScore{}, err
		}
		scores = append(scores, rSquared(valY, pred))
	}

	mean := 0.0
	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))
	variance := 0.0
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
	}
	return CVScore{MeanR2: mean, StdR2: math.Sqrt(variance / float64(len(scores)))}, nil
}

func rSquared(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range yTrue {
		mean += v
	}
	mean /= float64(len(yTrue))
	ssTot, ssRes := 0.0, 0.0
	for i := range yTrue {
		d := yTrue[i] - mean
		ssTot += d * d
		r := yTrue[i] - yPred[i]
		ssRes += r * r
	}
	// 零方差折与 eval 包保持同一约定：预测也完美时 R²=1，否则 0
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// checkXY 校验训练输入形状。
func checkXY(X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) || len(X[0]) == 0 {
		return ErrEmptyInput
	}
	width := len(X[0])
	for _, row := range X {
		if len(row) != width {
			return ErrEmptyInput
		}
	}
	return nil
}

// normalizeImportances 将累计的分裂增益归一化到和为 1。
func normalizeImportances(imp []float64) []float64 {
	total := 0.0
	for _, v := range imp {
		total += v
	}
	if total <= 0 {
		return imp
	}
	out := make([]float64, len(imp))
	for i, v := range imp {
		out[i] = v / total
	}
	return out
}
