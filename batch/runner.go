// Package batch 在一批输入上逐项运行结构化生成。
// 失败项记录日志后跳过, 绝不中断整批; 批内各任务互不共享状态,
// 可安全并行。
package batch

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/structgen/generate"
)

// Item 是批中的一项: Key 标识该项, Input 是任务输入。
type Item struct {
	Key   string `json:"key"`
	Input string `json:"input"`
}

// ItemResult 是单项的结果。Err 非空表示该项失败并被跳过。
type ItemResult[T any] struct {
	Key      string        `json:"key"`
	Value    *T            `json:"value,omitempty"`
	Err      error         `json:"-"`
	Retried  bool          `json:"retried"`
	Duration time.Duration `json:"duration"`
}

// Runner 在一批输入上驱动同一个 Generator。
type Runner[T any] struct {
	gen         *generate.Generator[T]
	logger      *zap.Logger
	concurrency int
}

// RunnerOption 配置 Runner。
type RunnerOption[T any] func(*Runner[T])

// WithConcurrency 设置并行上限, 默认 1 (串行)。
func WithConcurrency[T any](n int) RunnerOption[T] {
	return func(r *Runner[T]) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithLogger 设置日志器。
func WithLogger[T any](logger *zap.Logger) RunnerOption[T] {
	return func(r *Runner[T]) { r.logger = logger }
}

// NewRunner 创建批处理 Runner。
func NewRunner[T any](gen *generate.Generator[T], opts ...RunnerOption[T]) *Runner[T] {
	r := &Runner[T]{
		gen:         gen,
		logger:      zap.NewNop(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run 逐项执行, 返回与输入同序的结果。
// 单项失败记录日志后继续; 只有 ctx 取消会提前终止整批。
func (r *Runner[T]) Run(ctx context.Context, items []Item) []ItemResult[T] {
	results := make([]ItemResult[T], len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = ItemResult[T]{Key: item.Key, Err: err}
				return nil
			}

			start := time.Now()
			res, err := r.gen.GenerateWithResult(gctx, item.Input)

			result := ItemResult[T]{
				Key:      item.Key,
				Duration: time.Since(start),
			}
			if res != nil {
				result.Retried = res.Retried()
			}

			if err != nil {
				result.Err = err
				r.logger.Warn("batch item failed, skipping",
					zap.String("key", item.Key),
					zap.Error(err))
			} else {
				result.Value = res.Value
			}

			results[i] = result
			// 失败项不终止整批
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Succeeded 过滤出成功项。
func Succeeded[T any](results []ItemResult[T]) []ItemResult[T] {
	var ok []ItemResult[T]
	for _, r := range results {
		if r.Err == nil {
			ok = append(ok, r)
		}
	}
	return ok
}
