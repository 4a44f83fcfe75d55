package core

import (
	"github.com/rushteam/revkit/pkg/conv"
	"github.com/rushteam/revkit/pkg/utils"
)

// Company 是估值链路中的统一承载结构：原始属性、预测结果、元信息、标签。
// Attrs 的 key 使用规范属性名（见 schema.go）；缺失字段不出现在 map 中或值为 nil。
// Labels 用于解释与策略驱动；Prediction 由 predict 阶段写入。
type Company struct {
	ID         string
	Attrs      map[string]any
	Prediction *Prediction
	Meta       map[string]any
	Labels     map[string]utils.Label
}

func NewCompany(id string) *Company {
	return &Company{
		ID:     id,
		Attrs:  make(map[string]any),
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (c *Company) PutLabel(key string, lbl utils.Label) {
	if c.Labels == nil {
		c.Labels = make(map[string]utils.Label)
	}
	if old, ok := c.Labels[key]; ok {
		c.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	c.Labels[key] = lbl
}

// GetLabel 获取 Label。
func (c *Company) GetLabel(key string) (utils.Label, bool) {
	if c.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := c.Labels[key]
	return lbl, ok
}

// Numeric 读取一个数值属性；缺失或不可转为 float64 时返回 (0, false)。
func (c *Company) Numeric(attr string) (float64, bool) {
	if c.Attrs == nil {
		return 0, false
	}
	return conv.ToFloat64(c.Attrs[attr])
}

// Categorical 读取一个类别属性；缺失或非字符串时返回 ("", false)。
// 空字符串视为缺失。
func (c *Company) Categorical(attr string) (string, bool) {
	if c.Attrs == nil {
		return "", false
	}
	s, ok := conv.ToString(c.Attrs[attr])
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Completeness 返回规范 Schema 下非空字段的占比，用于置信度分档。
// 只统计 Schema 内的属性；目标列不计入。
func (c *Company) Completeness() float64 {
	attrs := AllAttrs()
	if len(attrs) == 0 {
		return 0
	}
	present := 0
	for _, name := range attrs {
		if _, ok := c.Numeric(name); ok {
			present++
			continue
		}
		if _, ok := c.Categorical(name); ok {
			present++
		}
	}
	return float64(present) / float64(len(attrs))
}

// EnrichContext 承载一次批量 enrichment 的请求级信息，贯穿整个 Pipeline 透传。
type EnrichContext struct {
	RequestID string
	Scene     string // 调用场景（如 "batch" / "api"），用于观测
	// Params 请求级参数：如 dry_run、cache_ttl 覆盖等
	Params map[string]any
}
