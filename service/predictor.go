// Package service 提供在线预测入口：从工件装载只读的 Predictor，
// 对单个或批量公司补全 annual revenue 与置信区间。
package service

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/revkit/artifact"
	"github.com/rushteam/revkit/core"
	"github.com/rushteam/revkit/feature"
	"github.com/rushteam/revkit/model"
)

// Predictor 是只读的预测句柄：特征统计量 + 已训练 ensemble。
// 装载后不再变更，可被多个 goroutine 并发使用。
type Predictor struct {
	engineer *feature.Engineer
	ensemble *model.Ensemble
}

// NewPredictor 由已装载的 bundle 构建 Predictor。
func NewPredictor(b *artifact.Bundle) (*Predictor, error) {
	if b == nil || b.State == nil || b.Ensemble == nil {
		return nil, core.ErrArtifactLoad
	}
	eng, err := feature.NewEngineerFromState(b.State)
	if err != nil {
		return nil, err
	}
	return &Predictor{engineer: eng, ensemble: b.Ensemble}, nil
}

// LoadPredictor 从目录装载工件并构建 Predictor。
// 工件缺失或损坏时返回 core.ErrArtifactLoad 语义的错误。
func LoadPredictor(dir string) (*Predictor, error) {
	b, err := artifact.Load(dir)
	if err != nil {
		return nil, err
	}
	return NewPredictor(b)
}

// LoadPredictorFromStore 从 KV store 装载工件并构建 Predictor。
func LoadPredictorFromStore(ctx context.Context, kv core.KeyValueStore, key string) (*Predictor, error) {
	b, err := artifact.LoadFromStore(ctx, kv, key)
	if err != nil {
		return nil, err
	}
	return NewPredictor(b)
}

// Predict 对单个公司补全预测：特征变换 → ensemble 打分（log 空间）→
// expm1 还原美元值 → 按字段完整度给出置信档与区间。
// 预测结果写回 company.Prediction 并返回。
func (p *Predictor) Predict(ctx context.Context, company *core.Company) (*core.Prediction, error) {
	if company == nil {
		return nil, core.NewDomainError(core.ModuleService, core.ErrorCodeInvalidInput, "service: nil company")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	X, err := p.engineer.Transform([]*core.Company{company})
	if err != nil {
		return nil, fmt.Errorf("transform company %s: %w", company.ID, err)
	}
	preds, err := p.ensemble.Predict(X.Data)
	if err != nil {
		return nil, fmt.Errorf("predict company %s: %w", company.ID, err)
	}
	revenue := math.Expm1(preds[0])
	if revenue < 0 {
		revenue = 0
	}
	pred := core.NewPrediction(revenue, company.Completeness())
	company.Prediction = pred
	return pred, nil
}

// PredictBatch 并发补全一批公司，单个失败不影响其他公司。
// 返回与输入等长的错误切片，按位对应。
func (p *Predictor) PredictBatch(ctx context.Context, companies []*core.Company) []error {
	errs := make([]error, len(companies))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, c := range companies {
		i, c := i, c
		g.Go(func() error {
			_, err := p.Predict(ctx, c)
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait()
	return errs
}
