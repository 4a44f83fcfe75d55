package model

import (
	"golang.org/x/sync/errgroup"
)

// 权重搜索方法
const (
	WeightMethodEqual = "equal" // 均匀权重 1/N
	WeightMethodGrid  = "grid"  // 粗网格枚举 + 验证集 log-MSE argmin
)

// 网格搜索的固定候选刻度与成员数上限。
// 候选组合数为 6^N：N=4 时只有 1296 个，可以枚举；
// 超过 gridMaxMembers 的成员数在组合上不可行，直接退回 equal。
var weightGrid = []float64{0.0, 0.1, 0.2, 0.3, 0.4, 0.5}

const gridMaxMembers = 4

// minValidationRows 是权重搜索要求的最小验证集行数；不足则退化为 equal。
const minValidationRows = 5

// Ensemble 持有 N 个已训练回归器与等长的归一化权重向量，
// 在 log 空间对成员预测做加权求和。
// 权重非负、和为 1；构造与每次更新后都会重新归一化。
type Ensemble struct {
	members []Regressor
	weights []float64
}

// NewEnsemble 用已训练成员构造 ensemble，初始权重均匀。
func NewEnsemble(members []Regressor) (*Ensemble, error) {
	if len(members) == 0 {
		return nil, ErrEmptyInput
	}
	weights := make([]float64, len(members))
	for i := range weights {
		weights[i] = 1
	}
	e := &Ensemble{members: members}
	e.setWeights(weights)
	return e, nil
}

// NewEnsembleWithWeights 用指定权重构造 ensemble（权重会被归一化）。
func NewEnsembleWithWeights(members []Regressor, weights []float64) (*Ensemble, error) {
	if len(members) == 0 || len(weights) != len(members) {
		return nil, ErrEmptyInput
	}
	e := &Ensemble{members: members}
	e.setWeights(weights)
	return e, nil
}

// Members 返回成员列表（有序，只读）。
func (e *Ensemble) Members() []Regressor { return e.members }

// Weights 返回当前权重向量的拷贝。
func (e *Ensemble) Weights() []float64 {
	return append([]float64(nil), e.weights...)
}

// setWeights 归一化并落位权重。全零向量退化为均匀权重。
func (e *Ensemble) setWeights(weights []float64) {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	normalized := make([]float64, len(weights))
	if total <= 0 {
		for i := range normalized {
			normalized[i] = 1 / float64(len(weights))
		}
	} else {
		for i, w := range weights {
			normalized[i] = w / total
		}
	}
	e.weights = normalized
}

// Predict 对每个成员并行预测后按权重加权求和（log 空间）。
// 成员顺序与权重位置严格对齐，内部并发不影响结果。
func (e *Ensemble) Predict(X [][]float64) ([]float64, error) {
	preds, err := e.memberPredictions(X)
	if err != nil {
		return nil, err
	}
	return combine(preds, e.weights, len(X)), nil
}

// memberPredictions 并行收集每个成员的预测，按成员下标落位。
func (e *Ensemble) memberPredictions(X [][]float64) ([][]float64, error) {
	preds := make([][]float64, len(e.members))
	var eg errgroup.Group
	for i, m := range e.members {
		i, m := i, m
		eg.Go(func() error {
			p, err := m.Predict(X)
			if err != nil {
				return err
			}
			preds[i] = p
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return preds, nil
}

// combine 按权重加权合并成员预测。
func combine(preds [][]float64, weights []float64, n int) []float64 {
	out := make([]float64, n)
	for m, p := range preds {
		w := weights[m]
		if w == 0 {
			continue
		}
		for i, v := range p {
			out[i] += w * v
		}
	}
	return out
}

// OptimizeWeights 在验证集上搜索权重。
//
//   - method = "equal"：设为均匀权重 1/N
//   - method = "grid"：对每个成员从 {0.0 … 0.5} 枚举笛卡尔积，剔除全零组合，
//     归一化后以验证集 log-MSE 评分取 argmin
//
// 退化保护：验证集过小（或为空）、成员数超过网格可行上限时，
// 一律回退为 equal 而非报错。
func (e *Ensemble) OptimizeWeights(XVal [][]float64, yVal []float64, method string) error {
	n := len(e.members)
	equal := make([]float64, n)
	for i := range equal {
		equal[i] = 1
	}

	if method != WeightMethodGrid {
		e.setWeights(equal)
		return nil
	}
	if len(XVal) < minValidationRows || len(XVal) != len(yVal) || n > gridMaxMembers {
		e.setWeights(equal)
		return nil
	}

	preds, err := e.memberPredictions(XVal)
	if err != nil {
		return err
	}

	best := equal
	bestMSE := logMSE(combine(preds, normalized(equal), len(yVal)), yVal)

	candidate := make([]float64, n)
	var enumerate func(pos int)
	enumerate = func(pos int) {
		if pos == n {
			total := 0.0
			for _, w := range candidate {
				total += w
			}
			if total == 0 {
				return
			}
			weights := normalized(candidate)
			mse := logMSE(combine(preds, weights, len(yVal)), yVal)
			if mse < bestMSE {
				bestMSE = mse
				best = append([]float64(nil), weights...)
			}
			return
		}
		for _, w := range weightGrid {
			candidate[pos] = w
			enumerate(pos + 1)
		}
	}
	enumerate(0)

	e.setWeights(best)
	return nil
}

func normalized(weights []float64) []float64 {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	out := make([]float64, len(weights))
	if total <= 0 {
		for i := range out {
			out[i] = 1 / float64(len(weights))
		}
		return out
	}
	for i, w := range weights {
		out[i] = w / total
	}
	return out
}

func logMSE(pred, y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	sum := 0.0
	for i := range y {
		d := pred[i] - y[i]
		sum += d * d
	}
	return sum / float64(len(y))
}
