package feature

import (
	"fmt"

	"github.com/rushteam/revkit/core"
)

// Engineer 是有状态的特征工程器，承载五段流水线：
// 派生特征合成 → 缺失值填充 → 类别编码 → 特征选择 → robust 缩放。
//
// 两种模式：
//   - fit 模式（FitTransform）：在训练集上一次性捕获所有统计量并设定 FeatureNames
//   - replay 模式（Transform）：只查 fit 期统计量，绝不重算、绝不改写自身状态
//
// 并发约定：fit 会改写内部状态，同一实例不可并发 fit；
// fit 完成后状态不可变，Transform 可被任意多个调用方并发使用。
type Engineer struct {
	state *State
}

// NewEngineer 创建未 fit 的特征工程器。
func NewEngineer() *Engineer {
	return &Engineer{}
}

// NewEngineerFromState 用已持久化的统计量构造 replay 专用工程器（serving 路径）。
func NewEngineerFromState(st *State) (*Engineer, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return &Engineer{state: st}, nil
}

// State 返回 fit 期统计量；未 fit 时为 nil。
// 返回值在 fit 之后视为只读，调用方不得修改。
func (e *Engineer) State() *State {
	return e.state
}

// Fitted 返回工程器是否已 fit。
func (e *Engineer) Fitted() bool {
	return e.state != nil
}

// FitTransform 在训练行上运行完整流水线（fit 模式）。
// 返回的矩阵包含目标列（原始量纲，最后一列）；目标缺失的行视为无效输入。
func (e *Engineer) FitTransform(rows []*core.Company, target string) (*core.Matrix, error) {
	if len(rows) == 0 {
		return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput, "feature: fit on empty row set")
	}

	targets := make([]float64, len(rows))
	normRows := make([]*normRow, len(rows))
	for i, c := range rows {
		y, ok := c.Numeric(target)
		if !ok {
			return nil, core.NewDomainError(core.ModuleFeature, core.ErrorCodeInvalidInput,
				fmt.Sprintf("feature: row %s lacks target %s", c.ID, target))
		}
		targets[i] = y
		normRows[i] = normalize(c)
	}

	// 连续列中位数：只用在场值计算，一次捕获，之后 replay 原样使用
	medians := fitMedians(normRows)

	// 类别填充：缺失 → Unknown，然后在填充结果上拟合两套编码表
	catRows := make([]map[string]string, len(normRows))
	for i, r := range normRows {
		catRows[i] = imputeCategorical(r)
	}
	catCols := core.CategoricalAttrs()
	freqEnc := FitFrequencyEncoder(catCols, catRows)
	labelEnc := FitLabelEncoder(catCols, catRows)

	featureNames := assembleFeatureNames()

	st := &State{
		Version:      StateVersion,
		Medians:      medians,
		Freqs:        freqEnc.Frequencies,
		Vocab:        labelEnc.Vocab,
		FeatureNames: featureNames,
	}

	// 未缩放的特征矩阵
	raw := make([][]float64, len(normRows))
	for i, r := range normRows {
		raw[i] = buildRow(r, catRows[i], st, freqEnc, labelEnc)
	}

	// robust scaler：对全部选中特征列拟合 median/IQR
	columns := make(map[string][]float64, len(featureNames))
	for j, name := range featureNames {
		col := make([]float64, len(raw))
		for i := range raw {
			col[i] = raw[i][j]
		}
		columns[name] = col
	}
	scaler := FitRobustScaler(columns)
	st.ScalerCenter = scaler.Center
	st.ScalerScale = scaler.Scale

	e.state = st

	cols := append(append([]string(nil), featureNames...), target)
	matrix := core.NewMatrix(cols, len(raw))
	for i, row := range raw {
		scaled := make([]float64, 0, len(row)+1)
		for j, v := range row {
			scaled = append(scaled, scaler.NormalizeValueWithKey(featureNames[j], v))
		}
		scaled = append(scaled, targets[i])
		matrix.Data = append(matrix.Data, scaled)
	}
	return matrix, nil
}

// Transform 在 replay 模式下运行流水线：只查 fit 期统计量，目标列不包含在输出中。
// 输出列集若与 fit 期 FeatureNames 不一致（数量或名称），返回 core.ErrSchemaMismatch。
func (e *Engineer) Transform(rows []*core.Company) (*core.Matrix, error) {
	st := e.state
	if st == nil {
		return nil, core.ErrNotFitted
	}

	// 规范行形状下，当前代码产出的列集必须与持久化的 FeatureNames 完全一致；
	// 不一致说明 state 来自不同目录版本，显式报错而不是静默截断。
	current := assembleFeatureNames()
	if !sameColumns(current, st.FeatureNames) {
		return nil, fmt.Errorf("candidate columns %d vs fitted %d: %w",
			len(current), len(st.FeatureNames), core.ErrSchemaMismatch)
	}

	freqEnc := &FrequencyEncoder{Frequencies: st.Freqs}
	labelEnc := &LabelEncoder{Vocab: st.Vocab}
	scaler := NewRobustScaler(st.ScalerCenter, st.ScalerScale)

	matrix := core.NewMatrix(append([]string(nil), st.FeatureNames...), len(rows))
	for _, c := range rows {
		r := normalize(c)
		cats := imputeCategorical(r)
		raw := buildRow(r, cats, st, freqEnc, labelEnc)
		scaled := make([]float64, len(raw))
		for j, v := range raw {
			scaled[j] = scaler.NormalizeValueWithKey(st.FeatureNames[j], v)
		}
		matrix.Data = append(matrix.Data, scaled)
	}
	return matrix, nil
}

// Save 原子化持久化全部 fit 期统计量（编码表 + scaler + 特征列表为一个单元）。
func (e *Engineer) Save(path string) error {
	if e.state == nil {
		return core.ErrNotFitted
	}
	return e.state.Save(path)
}

// LoadEngineer 从持久化 State 恢复 replay 专用工程器。
func LoadEngineer(path string) (*Engineer, error) {
	st, err := LoadState(path)
	if err != nil {
		return nil, err
	}
	return NewEngineerFromState(st)
}

// fitMedians 为每个连续量级列计算在场值的中位数；某列全缺失时中位数为 0。
func fitMedians(rows []*normRow) map[string]float64 {
	medians := make(map[string]float64)
	for _, col := range core.MedianFillAttrs() {
		var present []float64
		for _, r := range rows {
			if v, ok := r.val(col); ok {
				present = append(present, v)
			}
		}
		medians[col] = Median(present)
	}
	return medians
}

// imputeCategorical 返回一行填充后的类别值（缺失 → Unknown 保留桶）。
func imputeCategorical(r *normRow) map[string]string {
	out := make(map[string]string, len(r.cat))
	for _, col := range core.CategoricalAttrs() {
		v := r.cat[col]
		if v == "" {
			v = core.UnknownCategory
		}
		out[col] = v
	}
	return out
}

// imputeNumeric 返回一个数值列的填充值：
// 计数/金额列缺失即 0，连续列缺失用 fit 期中位数。
func imputeNumeric(r *normRow, col string, medians map[string]float64) float64 {
	if v, ok := r.val(col); ok {
		return v
	}
	if m, ok := medians[col]; ok {
		return m
	}
	return 0 // zero-fill 列
}

// assembleFeatureNames 组装最终特征列：数值基列 + 派生目录 + 每个类别列的两种编码。
// 顺序固定；目标列不在其中。
func assembleFeatureNames() []string {
	names := append([]string(nil), core.NumericAttrs()...)
	names = append(names, derivedNames()...)
	for _, col := range core.CategoricalAttrs() {
		names = append(names, col+"_freq")
		names = append(names, col+"_label")
	}
	return names
}

// buildRow 按 FeatureNames 的顺序产出一行未缩放特征值。
func buildRow(r *normRow, cats map[string]string, st *State, freqEnc *FrequencyEncoder, labelEnc *LabelEncoder) []float64 {
	derived := derive(r)
	row := make([]float64, 0, len(st.FeatureNames))
	for _, name := range core.NumericAttrs() {
		row = append(row, imputeNumeric(r, name, st.Medians))
	}
	for _, name := range derivedNames() {
		row = append(row, derived[name])
	}
	for _, col := range core.CategoricalAttrs() {
		row = append(row, freqEnc.EncodeWithKey(col, cats[col]))
		row = append(row, labelEnc.EncodeWithKey(col, cats[col]))
	}
	return row
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
