package enrich

import (
	"context"
	"sort"

	"github.com/rushteam/revkit/core"
	"github.com/rushteam/revkit/pipeline"
	"github.com/rushteam/revkit/pkg/utils"
)

// 默认营收分桶（美元，下界含、上界不含）
var defaultBuckets = []RevenueBucket{
	{Name: "<1M", UpperBound: 1e6},
	{Name: "1M-10M", UpperBound: 1e7},
	{Name: "10M-50M", UpperBound: 5e7},
	{Name: "50M-100M", UpperBound: 1e8},
	{Name: "100M-500M", UpperBound: 5e8},
	{Name: "500M-1B", UpperBound: 1e9},
	{Name: "1B+", UpperBound: 0}, // 0 表示无上界
}

// RevenueBucket 是一个营收分桶：落在 [前一桶上界, UpperBound) 的预测归入本桶。
type RevenueBucket struct {
	Name       string
	UpperBound float64
}

// BucketNode 是后处理节点：把预测营收映射为离散分桶写回标签，
// 方便下游不关心点估计、只按区间消费的场景。
type BucketNode struct {
	// Buckets 为空时使用默认分桶；要求按 UpperBound 升序（无上界的桶放最后）。
	Buckets []RevenueBucket
}

func (n *BucketNode) Name() string {
	return "enrich.bucket"
}

func (n *BucketNode) Kind() pipeline.Kind {
	return pipeline.KindPostProcess
}

func (n *BucketNode) buckets() []RevenueBucket {
	if len(n.Buckets) == 0 {
		return defaultBuckets
	}
	return n.Buckets
}

func (n *BucketNode) Process(
	ctx context.Context,
	ectx *core.EnrichContext,
	companies []*core.Company,
) ([]*core.Company, error) {
	buckets := n.buckets()
	for _, c := range companies {
		if c == nil || c.Prediction == nil {
			continue
		}
		name := bucketFor(buckets, c.Prediction.Revenue)
		c.PutLabel("revenue_bucket", utils.Label{
			Value:  name,
			Source: utils.SourcePostProcess,
		})
	}
	return companies, nil
}

func bucketFor(buckets []RevenueBucket, revenue float64) string {
	idx := sort.Search(len(buckets), func(i int) bool {
		return buckets[i].UpperBound == 0 || revenue < buckets[i].UpperBound
	})
	if idx >= len(buckets) {
		idx = len(buckets) - 1
	}
	return buckets[idx].Name
}
