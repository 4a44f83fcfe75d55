package core

// Confidence 是基于输入完整度的粗粒度置信分档。
type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

// 置信分档阈值与对应的区间半宽。
// 完整度 >= 0.7 为 High，>= 0.5 为 Medium，其余为 Low。
const (
	highCompleteness   = 0.7
	mediumCompleteness = 0.5

	highIntervalWidth   = 0.20
	mediumIntervalWidth = 0.35
	lowIntervalWidth    = 0.50
)

// DeriveConfidence 根据非空字段占比推导置信分档。
func DeriveConfidence(completeness float64) Confidence {
	switch {
	case completeness >= highCompleteness:
		return ConfidenceHigh
	case completeness >= mediumCompleteness:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// IntervalWidth 返回置信分档对应的对称区间半宽（相对预测值的比例）。
func (c Confidence) IntervalWidth() float64 {
	switch c {
	case ConfidenceHigh:
		return highIntervalWidth
	case ConfidenceMedium:
		return mediumIntervalWidth
	default:
		return lowIntervalWidth
	}
}

// Prediction 是一次营收预测的完整输出：点估计（原始量纲）、置信分档、对称区间。
type Prediction struct {
	Revenue      float64    `json:"revenue"`      // 预测年营收（美元，非 log）
	Confidence   Confidence `json:"confidence"`   // High / Medium / Low
	Low          float64    `json:"low"`          // 区间下界（保底 0）
	High         float64    `json:"high"`         // 区间上界
	Completeness float64    `json:"completeness"` // 非空字段占比
}

// NewPrediction 由点估计与完整度构造 Prediction：
// 区间为 revenue × (1 ± width)，下界在 0 处截断。
func NewPrediction(revenue, completeness float64) *Prediction {
	conf := DeriveConfidence(completeness)
	width := conf.IntervalWidth()
	low := revenue * (1 - width)
	if low < 0 {
		low = 0
	}
	return &Prediction{
		Revenue:      revenue,
		Confidence:   conf,
		Low:          low,
		High:         revenue * (1 + width),
		Completeness: completeness,
	}
}
