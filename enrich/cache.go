package enrich

import (
	"context"
	"encoding/json"

	"github.com/rushteam/revkit/core"
	"github.com/rushteam/revkit/pipeline"
	"github.com/rushteam/revkit/pkg/utils"
)

// CacheNode 批量查询历史预测，命中的公司直接带上 Prediction，
// 后续 PredictNode 会跳过它们。BatchGet 减少网络往返。
type CacheNode struct {
	Store core.Store
	// Prefix 是缓存 key 前缀，默认 "revkit:pred:"
	Prefix string
}

func (n *CacheNode) Name() string {
	return "enrich.cache"
}

func (n *CacheNode) Kind() pipeline.Kind {
	return pipeline.KindCache
}

func (n *CacheNode) keyFor(id string) string {
	prefix := n.Prefix
	if prefix == "" {
		prefix = "revkit:pred:"
	}
	return prefix + id
}

func (n *CacheNode) Process(
	ctx context.Context,
	ectx *core.EnrichContext,
	companies []*core.Company,
) ([]*core.Company, error) {
	if n.Store == nil || len(companies) == 0 {
		return companies, nil
	}

	keys := make([]string, 0, len(companies))
	for _, c := range companies {
		if c != nil && c.Prediction == nil {
			keys = append(keys, n.keyFor(c.ID))
		}
	}
	if len(keys) == 0 {
		return companies, nil
	}

	// 缓存不可用时降级为全量预测，不中断整批
	hits, err := n.Store.BatchGet(ctx, keys)
	if err != nil {
		return companies, nil
	}

	for _, c := range companies {
		if c == nil || c.Prediction != nil {
			continue
		}
		data, ok := hits[n.keyFor(c.ID)]
		if !ok {
			continue
		}
		var pred core.Prediction
		if err := json.Unmarshal(data, &pred); err != nil {
			// 缓存内容损坏：当作 miss
			continue
		}
		c.Prediction = &pred
		c.PutLabel("cache", utils.Label{Value: "hit", Source: utils.SourceCache})
	}
	return companies, nil
}
