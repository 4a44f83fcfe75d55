package feature

import "sort"

// RobustScaler Robust 标准化
// 公式: x' = (x - median) / IQR
// 特点: 对异常值鲁棒。营收相关的金融特征普遍重尾，mean/std 标准化
// 会被头部公司拖垮，所以这里固定使用 median/IQR。
type RobustScaler struct {
	Center map[string]float64 // 每列中位数
	Scale  map[string]float64 // 每列四分位距 (Q75 - Q25)
}

// NewRobustScaler 创建 Robust 标准化器（用于 replay 已有参数）。
func NewRobustScaler(center, scale map[string]float64) *RobustScaler {
	return &RobustScaler{Center: center, Scale: scale}
}

// FitRobustScaler 在列数据上拟合每列的中位数与 IQR。
func FitRobustScaler(columns map[string][]float64) *RobustScaler {
	center := make(map[string]float64, len(columns))
	scale := make(map[string]float64, len(columns))
	for col, values := range columns {
		center[col] = Median(values)
		scale[col] = Percentile(values, 0.75) - Percentile(values, 0.25)
	}
	return &RobustScaler{Center: center, Scale: scale}
}

// NormalizeValueWithKey 标准化单个值（指定列名）。
// IQR 为 0 时保持原值（常数列无尺度可言，replay 时行为一致即可）。
func (s *RobustScaler) NormalizeValueWithKey(key string, value float64) float64 {
	center := s.Center[key]
	scale := s.Scale[key]
	if scale > 0 {
		return (value - center) / scale
	}
	return value
}

// Median 计算中位数（输入不要求有序，内部拷贝后排序）。
func Median(values []float64) float64 {
	return Percentile(values, 0.5)
}

// Percentile 计算线性插值分位数。
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
