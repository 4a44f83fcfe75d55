package pipeline

import (
	"context"

	"github.com/rushteam/revkit/core"
)

// Kind 用于标记 Node 类型，方便观测/治理/编排（例如按阶段打点）。
type Kind string

const (
	KindFilter      Kind = "filter"      // 过滤阶段：剔除不参与本轮补全的公司
	KindCache       Kind = "cache"       // 缓存阶段：命中历史预测的公司直接出结果
	KindPredict     Kind = "predict"     // 预测阶段：走模型补全 annual revenue
	KindPostProcess Kind = "postprocess" // 后处理阶段：分桶/修饰最终结果
)

// Node 是 Pipeline 的最小可扩展单元。
// 统一采用“输入 companies -> 输出 companies”的形态，
// 方便 Filter 截断、Predict 就地补全、PostProcess 修饰等操作。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		ectx *core.EnrichContext,
		companies []*core.Company,
	) ([]*core.Company, error)
}
