package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/revkit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量和函数
func initCELEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		// 定义变量类型
		cel.Variable("company", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("ectx", cel.DynType),
	)
	return env, err
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	var err error
	celEnvOnce.Do(func() {
		celEnv, err = initCELEnv()
	})
	return celEnv, err
}

// Eval 是行过滤 DSL 解释器，使用 CEL (Common Expression Language) 实现。
// CEL 是 Google 开发的表达式语言，具有类型安全、高性能、线程安全等特性。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：company.attrs.country == "United States"
//   - 数值：company.completeness > 0.5 / company.attrs.employee_count >= 100
//   - 逻辑：company.attrs.industry == "Software" && company.completeness > 0.7
//   - 存在性："valuation_usd" in company.attrs
//   - 标签："skip_reason" in label
//
// 示例：
//   - `company.completeness >= 0.5` → 字段完整度不低于一半才进预测
//   - `company.attrs.country == "India" || company.attrs.country == "China"` → 指定市场
type Eval struct {
	company *core.Company
	ectx    *core.EnrichContext
	env     *cel.Env
}

// NewEval 创建一个新的 DSL 解释器。
func NewEval(company *core.Company, ectx *core.EnrichContext) *Eval {
	env, _ := getCELEnv()
	return &Eval{
		company: company,
		ectx:    ectx,
		env:     env,
	}
}

// Evaluate 解析并执行 DSL 表达式，返回布尔结果。
// 表达式使用 CEL (Common Expression Language) 语法。
//
// 注意：CEL 直接访问不存在的 key 会报错，
// 应先用 "key" in company.attrs 检查存在性，再访问取值。
func (e *Eval) Evaluate(expr string) (bool, error) {
	if expr == "" {
		return true, nil
	}

	// 编译表达式
	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return false, fmt.Errorf("compile error: %v", issues.Err())
	}

	// 创建程序
	prg, err := e.env.Program(ast)
	if err != nil {
		return false, fmt.Errorf("program error: %v", err)
	}

	// 准备输入数据
	input := e.buildInput()

	// 执行表达式
	out, _, err := prg.Eval(input)
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}

	// 转换为布尔值
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}

	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func (e *Eval) buildInput() map[string]interface{} {
	// 构建 label map
	labels := make(map[string]interface{})
	for k, v := range e.company.Labels {
		labels[k] = map[string]interface{}{
			"value":  v.Value,
			"source": v.Source,
		}
	}

	// 构建 company map
	company := map[string]interface{}{
		"id":           e.company.ID,
		"attrs":        e.company.Attrs,
		"meta":         e.company.Meta,
		"labels":       labels,
		"completeness": e.company.Completeness(),
	}

	// 构建 ectx map；调用方未传 EnrichContext 时按空上下文求值
	ectx := map[string]interface{}{
		"request_id": "",
		"scene":      "",
		"params":     map[string]interface{}{},
	}
	if e.ectx != nil {
		ectx["request_id"] = e.ectx.RequestID
		ectx["scene"] = e.ectx.Scene
		if e.ectx.Params != nil {
			ectx["params"] = e.ectx.Params
		}
	}

	// label 作为顶层访问：label.skip_reason 直接取 value
	labelAccessor := make(map[string]interface{})
	for k, v := range labels {
		labelAccessor[k] = v.(map[string]interface{})["value"]
	}

	return map[string]interface{}{
		"company": company,
		"label":   labelAccessor,
		"ectx":    ectx,
	}
}
