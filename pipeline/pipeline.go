package pipeline

import (
	"context"

	"github.com/rushteam/revkit/core"
)

// Pipeline 是 Revkit 批量 enrichment 的核心抽象：把补全逻辑拆成可组合的 Node 链。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	ectx *core.EnrichContext,
	companies []*core.Company,
) ([]*core.Company, error) {
	cur := companies
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, ectx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
