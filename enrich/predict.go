package enrich

import (
	"context"
	"encoding/json"

	"github.com/rushteam/revkit/core"
	"github.com/rushteam/revkit/pipeline"
	"github.com/rushteam/revkit/pkg/utils"
	"github.com/rushteam/revkit/service"
)

// PredictNode 对还没有 Prediction 的公司走模型补全。
// 单个公司预测失败只打标不移除，不中断整批；
// 配置了 Store 时把新预测写回缓存供下一轮 CacheNode 命中。
type PredictNode struct {
	Predictor *service.Predictor

	// Store 可选：写回预测缓存
	Store core.Store
	// Prefix 与 CacheNode 保持一致，默认 "revkit:pred:"
	Prefix string
	// TTL 缓存秒数，0 表示不过期
	TTL int
}

func (n *PredictNode) Name() string {
	return "enrich.predict"
}

func (n *PredictNode) Kind() pipeline.Kind {
	return pipeline.KindPredict
}

func (n *PredictNode) keyFor(id string) string {
	prefix := n.Prefix
	if prefix == "" {
		prefix = "revkit:pred:"
	}
	return prefix + id
}

func (n *PredictNode) Process(
	ctx context.Context,
	ectx *core.EnrichContext,
	companies []*core.Company,
) ([]*core.Company, error) {
	if n.Predictor == nil || len(companies) == 0 {
		return companies, nil
	}

	pending := make([]*core.Company, 0, len(companies))
	for _, c := range companies {
		if c != nil && c.Prediction == nil {
			pending = append(pending, c)
		}
	}
	if len(pending) == 0 {
		return companies, nil
	}

	errs := n.Predictor.PredictBatch(ctx, pending)

	writeback := make(map[string][]byte)
	for i, c := range pending {
		if errs[i] != nil {
			c.PutLabel("predict_error", utils.Label{
				Value:  errs[i].Error(),
				Source: utils.SourcePredict,
			})
			continue
		}
		c.PutLabel("confidence", utils.Label{
			Value:  string(c.Prediction.Confidence),
			Source: utils.SourcePredict,
		})
		if n.Store != nil {
			if data, err := json.Marshal(c.Prediction); err == nil {
				writeback[n.keyFor(c.ID)] = data
			}
		}
	}

	if n.Store != nil && len(writeback) > 0 {
		// 写回失败不影响本轮产出
		_ = n.Store.BatchSet(ctx, writeback, n.TTL)
	}
	return companies, nil
}
