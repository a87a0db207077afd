// 文件: tests/pricing_benchmark_test.go
// 定价链路基准测试
//
// 关注点:
// 1. 每次完整定价的耗时 (paths × steps 固定)
// 2. 并行扩展性: Worker 数翻倍时耗时是否近似减半

package tests

import (
	"context"
	"fmt"
	"testing"

	"quant.com/pkg/engine"
	"quant.com/pkg/greeks"
	"quant.com/pkg/model"
	"quant.com/pkg/payoff"
)

func benchConfig(paths, steps, workers int) engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Paths = paths
	cfg.Steps = steps
	cfg.Workers = workers
	return cfg
}

// BenchmarkPriceGBMExact 基准场景: 10 万路径精确步进
func BenchmarkPriceGBMExact(b *testing.B) {
	m, err := model.NewGBM(100, 0.05, 0.2)
	if err != nil {
		b.Fatal(err)
	}
	call, _ := payoff.NewEuropeanCall(100)

	cfg := benchConfig(100000, 1, 0)
	e, err := engine.New(m, cfg)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Run(context.Background(), call, nil); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkPriceGBMEuler 细网格通用格式 (252 步)
func BenchmarkPriceGBMEuler(b *testing.B) {
	m, _ := model.NewGBM(100, 0.05, 0.2)
	call, _ := payoff.NewEuropeanCall(100)

	cfg := benchConfig(20000, 252, 0)
	cfg.Scheme = "euler"
	e, err := engine.New(m, cfg)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Run(context.Background(), call, nil); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkPriceHestonQE 双因子原生动力学
func BenchmarkPriceHestonQE(b *testing.B) {
	m, err := model.NewHestonWithScheme(model.HestonParams{
		S0: 100, V0: 0.04, R: 0.05, Kappa: 2, Theta: 0.04, Xi: 0.3, Rho: -0.7,
	}, model.AndersenQE)
	if err != nil {
		b.Fatal(err)
	}
	call, _ := payoff.NewEuropeanCall(100)

	cfg := benchConfig(20000, 100, 0)
	cfg.Scheme = engine.SchemeNative
	e, err := engine.New(m, cfg)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Run(context.Background(), call, nil); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkWorkerScaling 并行扩展性
func BenchmarkWorkerScaling(b *testing.B) {
	m, _ := model.NewGBM(100, 0.05, 0.2)
	call, _ := payoff.NewEuropeanCall(100)

	for _, workers := range []int{1, 2, 4, 8} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			cfg := benchConfig(50000, 64, workers)
			cfg.Scheme = "euler"
			e, err := engine.New(m, cfg)
			if err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := e.Run(context.Background(), call, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkPathwiseGreeks 单次扫描四个估计量
func BenchmarkPathwiseGreeks(b *testing.B) {
	mkt := greeks.Market{S0: 100, K: 100, R: 0.05, Sigma: 0.2, T: 1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := greeks.PathwiseCallGreeks(context.Background(), mkt, 100000, 42); err != nil {
			b.Fatal(err)
		}
	}
}
