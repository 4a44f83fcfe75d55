package feature

import (
	"github.com/rushteam/revkit/core"
)

// normRow 是归一化到规范 Schema 之后的一行：
// 每个数值属性带显式的存在标记，每个类别属性缺失时为空串。
// 所有派生特征都只在这个固定形状上计算，输出列集与输入行带了哪些字段无关。
type normRow struct {
	num   map[string]float64
	numOK map[string]bool
	cat   map[string]string
}

// normalize 把一个原始行归一化到规范 Schema。
// Schema 外的属性被忽略；缺失字段显式标记为缺失而非直接不出现。
func normalize(c *core.Company) *normRow {
	r := &normRow{
		num:   make(map[string]float64),
		numOK: make(map[string]bool),
		cat:   make(map[string]string),
	}
	for _, name := range core.NumericAttrs() {
		if v, ok := c.Numeric(name); ok {
			r.num[name] = v
			r.numOK[name] = true
		} else {
			r.num[name] = 0
			r.numOK[name] = false
		}
	}
	for _, name := range core.CategoricalAttrs() {
		if s, ok := c.Categorical(name); ok {
			r.cat[name] = s
		} else {
			r.cat[name] = ""
		}
	}
	return r
}

// val 读取数值属性；缺失返回 (0, false)。
func (r *normRow) val(name string) (float64, bool) {
	return r.num[name], r.numOK[name]
}
