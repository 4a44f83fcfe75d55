// Package enrich 提供批量 enrichment 的 Pipeline 节点：
// 行过滤、预测缓存、模型预测、结果分桶。
package enrich

import (
	"context"

	"github.com/rushteam/revkit/core"
	"github.com/rushteam/revkit/pipeline"
	"github.com/rushteam/revkit/pkg/dsl"
	"github.com/rushteam/revkit/pkg/utils"
)

// FilterNode 用 CEL 表达式决定哪些公司进入本轮补全。
// 表达式返回 false 的公司被移除；表达式求值出错的公司保留但打标，
// 单行异常不中断整批。
type FilterNode struct {
	// Expr 是 CEL 表达式，如 `company.completeness >= 0.3`。
	// 空表达式等于全量放行。
	Expr string
}

func (n *FilterNode) Name() string {
	return "enrich.filter"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	ectx *core.EnrichContext,
	companies []*core.Company,
) ([]*core.Company, error) {
	if n.Expr == "" || len(companies) == 0 {
		return companies, nil
	}

	out := make([]*core.Company, 0, len(companies))
	for _, c := range companies {
		if c == nil {
			continue
		}
		keep, err := dsl.NewEval(c, ectx).Evaluate(n.Expr)
		if err != nil {
			c.PutLabel("filter_error", utils.Label{
				Value:  err.Error(),
				Source: utils.SourceFilter,
			})
			out = append(out, c)
			continue
		}
		if !keep {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}
