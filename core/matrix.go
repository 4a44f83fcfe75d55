package core

// Matrix 是特征流水线的输出：定形数值矩阵 + 有序列名。
// 列名顺序即 fit 期 feature_names 的顺序；行与输入公司一一对应。
type Matrix struct {
	Columns []string
	Data    [][]float64
}

// NewMatrix 创建一个空矩阵（预分配行容量）。
func NewMatrix(columns []string, rowCap int) *Matrix {
	return &Matrix{
		Columns: columns,
		Data:    make([][]float64, 0, rowCap),
	}
}

// NumRows 返回行数。
func (m *Matrix) NumRows() int { return len(m.Data) }

// NumCols 返回列数。
func (m *Matrix) NumCols() int { return len(m.Columns) }

// ColumnIndex 返回列名的下标；不存在返回 -1。
func (m *Matrix) ColumnIndex(name string) int {
	for i, c := range m.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column 抽取一整列；列不存在返回 nil。
func (m *Matrix) Column(name string) []float64 {
	idx := m.ColumnIndex(name)
	if idx < 0 {
		return nil
	}
	out := make([]float64, len(m.Data))
	for i, row := range m.Data {
		out[i] = row[idx]
	}
	return out
}

// DropColumn 返回去掉指定列后的新矩阵（原矩阵不变）；列不存在则返回原样拷贝。
func (m *Matrix) DropColumn(name string) *Matrix {
	idx := m.ColumnIndex(name)
	if idx < 0 {
		cp := NewMatrix(append([]string(nil), m.Columns...), len(m.Data))
		for _, row := range m.Data {
			cp.Data = append(cp.Data, append([]float64(nil), row...))
		}
		return cp
	}
	cols := make([]string, 0, len(m.Columns)-1)
	cols = append(cols, m.Columns[:idx]...)
	cols = append(cols, m.Columns[idx+1:]...)
	out := NewMatrix(cols, len(m.Data))
	for _, row := range m.Data {
		nr := make([]float64, 0, len(row)-1)
		nr = append(nr, row[:idx]...)
		nr = append(nr, row[idx+1:]...)
		out.Data = append(out.Data, nr)
	}
	return out
}

// SelectRows 按下标选取行子集（共享底层行切片，调用方不应原地修改）。
func (m *Matrix) SelectRows(indices []int) *Matrix {
	out := NewMatrix(m.Columns, len(indices))
	for _, i := range indices {
		out.Data = append(out.Data, m.Data[i])
	}
	return out
}
