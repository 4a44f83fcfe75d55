// Package eval 提供无状态的回归指标计算，用于给单个回归器与 ensemble 打分。
package eval

import "math"

// Metrics 是一次评估的完整记录：log 与原始量纲上的误差、
// 平均绝对百分比误差，以及三档 "误差在 X% 以内" 的命中率。
type Metrics struct {
	RMSELog float64 `json:"rmse_log"`
	MAELog  float64 `json:"mae_log"`
	R2Log   float64 `json:"r2_log"`

	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`

	MAPE float64 `json:"mape"`

	Within20 float64 `json:"within_20"` // |pred-actual|/(actual+1) <= 0.20 的占比
	Within30 float64 `json:"within_30"`
	Within50 float64 `json:"within_50"`
}

// Evaluate 对 log 空间的真值与预测打分。
// 两个向量先经 expm1 还原到原始量纲，再计算原始量纲指标。
//
// 命中率的分母使用 actual + 1：这是对近零营收的防零除保护，
// 对极小真值会系统性高估命中率——该偏差是契约的一部分，保留而非修正。
func Evaluate(yTrueLog, yPredLog []float64) *Metrics {
	n := len(yTrueLog)
	if n == 0 || n != len(yPredLog) {
		return &Metrics{}
	}

	yTrue := make([]float64, n)
	yPred := make([]float64, n)
	for i := 0; i < n; i++ {
		yTrue[i] = math.Expm1(yTrueLog[i])
		yPred[i] = math.Expm1(yPredLog[i])
	}

	m := &Metrics{
		RMSELog: rmse(yTrueLog, yPredLog),
		MAELog:  mae(yTrueLog, yPredLog),
		R2Log:   r2(yTrueLog, yPredLog),
		RMSE:    rmse(yTrue, yPred),
		MAE:     mae(yTrue, yPred),
		R2:      r2(yTrue, yPred),
		MAPE:    mape(yTrue, yPred),
	}

	hit20, hit30, hit50 := 0, 0, 0
	for i := 0; i < n; i++ {
		relErr := math.Abs(yPred[i]-yTrue[i]) / (yTrue[i] + 1)
		if relErr <= 0.20 {
			hit20++
		}
		if relErr <= 0.30 {
			hit30++
		}
		if relErr <= 0.50 {
			hit50++
		}
	}
	m.Within20 = float64(hit20) / float64(n)
	m.Within30 = float64(hit30) / float64(n)
	m.Within50 = float64(hit50) / float64(n)
	return m
}

func mse(yTrue, yPred []float64) float64 {
	s := 0.0
	for i := range yTrue {
		d := yPred[i] - yTrue[i]
		s += d * d
	}
	return s / float64(len(yTrue))
}

func rmse(yTrue, yPred []float64) float64 { return math.Sqrt(mse(yTrue, yPred)) }

func mae(yTrue, yPred []float64) float64 {
	s := 0.0
	for i := range yTrue {
		s += math.Abs(yPred[i] - yTrue[i])
	}
	return s / float64(len(yTrue))
}

func r2(yTrue, yPred []float64) float64 {
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
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}

// mape 平均绝对百分比误差（原始量纲；分母同样 +1 防零除）。
func mape(yTrue, yPred []float64) float64 {
	s := 0.0
	for i := range yTrue {
		s += math.Abs(yPred[i]-yTrue[i]) / (yTrue[i] + 1)
	}
	return s / float64(len(yTrue)) * 100
}
