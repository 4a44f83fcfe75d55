// Package revkit 是一个公司营收估值工具包（Revenue Kit）。
//
// 设计要点：
// - Pipeline-first: 批量 enrichment 通过 Node 串联（Filter → Cache → Predict → PostProcess）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - 工件可复现: 训练期统计量全部持久化，serving 端只 replay、不重拟合
package revkit

import "github.com/rushteam/revkit/pipeline"

// 轻量 facade：便于用户直接 import "revkit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindFilter      = pipeline.KindFilter
	KindCache       = pipeline.KindCache
	KindPredict     = pipeline.KindPredict
	KindPostProcess = pipeline.KindPostProcess
)
