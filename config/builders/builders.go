// Package builders 注册内置 enrichment Node 的配置构建器。
// 配置驱动的入口处 import _ 本包即可。
package builders

import (
	"context"
	"fmt"

	"github.com/rushteam/revkit/config"
	"github.com/rushteam/revkit/core"
	"github.com/rushteam/revkit/enrich"
	"github.com/rushteam/revkit/pipeline"
	"github.com/rushteam/revkit/pkg/conv"
	"github.com/rushteam/revkit/service"
	"github.com/rushteam/revkit/store"
)

func init() {
	config.Register("enrich.filter", BuildFilterNode)
	config.Register("enrich.cache", BuildCacheNode)
	config.Register("enrich.predict", BuildPredictNode)
	config.Register("enrich.bucket", BuildBucketNode)
}

func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &enrich.FilterNode{
		Expr: conv.ConfigGet(cfg, "expr", ""),
	}, nil
}

func BuildCacheNode(cfg map[string]interface{}) (pipeline.Node, error) {
	s, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}
	return &enrich.CacheNode{
		Store:  s,
		Prefix: conv.ConfigGet(cfg, "prefix", ""),
	}, nil
}

func BuildPredictNode(cfg map[string]interface{}) (pipeline.Node, error) {
	dir := conv.ConfigGet(cfg, "artifact_dir", "")
	key := conv.ConfigGet(cfg, "artifact_key", "")

	var predictor *service.Predictor
	var err error
	switch {
	case dir != "":
		predictor, err = service.LoadPredictor(dir)
	case key != "":
		kv, serr := buildKVStore(cfg)
		if serr != nil {
			return nil, serr
		}
		predictor, err = service.LoadPredictorFromStore(context.Background(), kv, key)
	default:
		return nil, fmt.Errorf("predict node needs artifact_dir or artifact_key")
	}
	if err != nil {
		return nil, fmt.Errorf("load predictor: %w", err)
	}

	node := &enrich.PredictNode{
		Predictor: predictor,
		Prefix:    conv.ConfigGet(cfg, "prefix", ""),
		TTL:       int(conv.ConfigGetInt64(cfg, "cache_ttl", 0)),
	}
	if conv.ConfigGet(cfg, "cache_writeback", false) {
		s, serr := buildStore(cfg)
		if serr != nil {
			return nil, serr
		}
		node.Store = s
	}
	return node, nil
}

func BuildBucketNode(cfg map[string]interface{}) (pipeline.Node, error) {
	node := &enrich.BucketNode{}
	raw, ok := cfg["buckets"].([]interface{})
	if !ok {
		return node, nil
	}
	for _, b := range raw {
		bm, ok := b.(map[string]interface{})
		if !ok {
			continue
		}
		node.Buckets = append(node.Buckets, enrich.RevenueBucket{
			Name:       conv.ConfigGet(bm, "name", ""),
			UpperBound: conv.ConfigGetFloat64(bm, "upper_bound", 0),
		})
	}
	return node, nil
}

// buildStore 按 config 构建 core.Store：store=memory / redis。
func buildStore(cfg map[string]interface{}) (core.Store, error) {
	kind := conv.ConfigGet(cfg, "store", "memory")
	switch kind {
	case "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		addr := conv.ConfigGet(cfg, "addr", "127.0.0.1:6379")
		db := int(conv.ConfigGetInt64(cfg, "db", 0))
		return store.NewRedisStore(addr, db)
	default:
		return nil, fmt.Errorf("unknown store type: %s", kind)
	}
}

// buildKVStore 与 buildStore 一致，但要求 Hash 能力（bundle 下发用）。
func buildKVStore(cfg map[string]interface{}) (core.KeyValueStore, error) {
	s, err := buildStore(cfg)
	if err != nil {
		return nil, err
	}
	kv, ok := s.(core.KeyValueStore)
	if !ok {
		return nil, core.ErrStoreNotSupported
	}
	return kv, nil
}
