package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/shoprec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译好的商品过滤表达式，可并发复用。
//
// 表达式使用 CEL 语法，可访问的变量：
//   - item.id / item.product_id / item.score / item.meta
//   - item.category / item.available / item.price_cents（解析商品之后才有值）
//   - label.<key>：Label 的 Value，判断存在性用 has(label.recall_source)
//   - rctx.scene / rctx.user_id / rctx.product_ids / rctx.params
//
// 示例：
//   - item.score >= 2.0
//   - item.available && item.category != "gift-card"
//   - has(label.recall_source) && label.recall_source.contains("copurchase")
//   - rctx.scene == "cart" && item.price_cents < 5000
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。空表达式恒为 true。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return &Program{}, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string { return p.expr }

// Eval 对一个商品求值，表达式必须返回 bool。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if p.prg == nil {
		return true, nil
	}
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: expression must return bool, got %T", p.expr, out.Value())
	}
	return result, nil
}

// Eval 是一次性求值的便捷封装，适合测试与命令行；热路径应复用 Compile 的结果。
func Eval(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(item, rctx)
}

func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}

	productID, _ := item.ProductID()
	meta := item.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	it := map[string]any{
		"id":          item.ID,
		"product_id":  productID,
		"score":       item.Score,
		"meta":        meta,
		"category":    "",
		"available":   false,
		"price_cents": int64(0),
	}
	if p := item.Product; p != nil {
		it["category"] = p.Category
		it["available"] = p.Available
		it["price_cents"] = p.PriceCents
		it["name"] = p.Name
	}

	rc := map[string]any{
		"user_id":     "",
		"scene":       "",
		"product_ids": []int64{},
		"params":      map[string]any{},
	}
	if rctx != nil {
		rc["user_id"] = rctx.UserID
		rc["scene"] = rctx.Scene
		if rctx.ProductIDs != nil {
			rc["product_ids"] = rctx.ProductIDs
		}
		if rctx.Params != nil {
			rc["params"] = rctx.Params
		}
	}

	return map[string]any{
		"item":  it,
		"label": labels,
		"rctx":  rc,
	}
}
