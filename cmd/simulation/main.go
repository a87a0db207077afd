// 文件: cmd/simulation/main.go
// 蒙特卡洛定价演示
//
// 跑一遍核心链路:
// 1. 基准场景下各模型定价，GBM 与 Black-Scholes 解析解对照
// 2. 三种离散化格式在同一模型上的收敛对比
// 3. 方差缩减 (对偶 + 控制变量) 的实际效果
// 4. 路径微分与有限差分希腊字母对照解析值
// 5. 可选: 导出路径 CSV、把运行记录发布到 NATS
//
// 用法:
//
//	go run ./cmd/simulation
//	go run ./cmd/simulation -paths 200000 -csv paths.csv
//	go run ./cmd/simulation -nats nats://localhost:4222

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"quant.com/pkg/analytic"
	"quant.com/pkg/engine"
	"quant.com/pkg/export"
	"quant.com/pkg/greeks"
	"quant.com/pkg/model"
	"quant.com/pkg/payoff"
	"quant.com/pkg/result"
)

// 基准场景: S0=100, K=100, r=5%, σ=20%, T=1
const (
	spotPrice = 100.0
	strike    = 100.0
	riskFree  = 0.05
	vol       = 0.2
	maturity  = 1.0
)

func main() {
	paths := flag.Int("paths", 100000, "仿真路径数")
	seed := flag.Uint64("seed", engine.DefaultSeedBase, "基础种子")
	csvOut := flag.String("csv", "", "导出样本路径 CSV 文件名 (为空不导出)")
	natsURL := flag.String("nats", "", "NATS 地址，非空时发布运行记录")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var publisher *result.NATSPublisher
	if *natsURL != "" {
		p, err := result.NewNATSPublisher(*natsURL)
		if err != nil {
			log.Fatalf("[Simulation] connect nats: %v", err)
		}
		publisher = p
		defer publisher.Close()
	}

	call, err := payoff.NewEuropeanCall(strike)
	if err != nil {
		log.Fatalf("[Simulation] payoff: %v", err)
	}

	bsPrice, _ := analytic.PriceCallBS(spotPrice, strike, riskFree, vol, maturity)
	fmt.Printf("基准场景: S0=%.0f K=%.0f r=%.0f%% σ=%.0f%% T=%.0fy\n",
		spotPrice, strike, riskFree*100, vol*100, maturity)
	fmt.Printf("Black-Scholes 解析价: %.6f\n\n", bsPrice)

	runs := priceAcrossModels(ctx, call, *paths, *seed)
	runs = append(runs, compareSchemes(ctx, call, *paths, *seed)...)
	varianceReductionDemo(ctx, call, *paths, *seed)
	greeksDemo(ctx, *paths, *seed)

	if *csvOut != "" {
		exportPaths(ctx, *csvOut, *seed)
	}
	if publisher != nil {
		for _, r := range runs {
			if err := publisher.PublishRun(r); err != nil {
				log.Printf("[Simulation] publish run %d: %v", r.RunID, err)
			}
		}
		fmt.Printf("\n已发布 %d 条运行记录到 NATS\n", len(runs))
	}
}

// priceAcrossModels 各模型对同一欧式看涨定价
func priceAcrossModels(ctx context.Context, call payoff.EuropeanCall, paths int, seed uint64) []*result.PricingRun {
	gbm, _ := model.NewGBM(spotPrice, riskFree, vol)
	heston, _ := model.NewHestonWithScheme(model.HestonParams{
		S0: spotPrice, V0: vol * vol, R: riskFree,
		Kappa: 2.0, Theta: vol * vol, Xi: 0.3, Rho: -0.7,
	}, model.AndersenQE)
	sabr, _ := model.NewSABR(model.SABRParams{
		F0: spotPrice, Alpha: vol, Beta: 1.0, Rho: -0.3, Nu: 0.4, V0: vol,
	})
	merton, _ := model.NewMerton(model.MertonParams{
		S0: spotPrice, Mu: riskFree, Sigma: vol,
		Lambda: 0.5, MuJ: -0.1, SigmaJ: 0.15,
	})

	cases := []struct {
		m      model.Model
		scheme string
	}{
		{gbm, engine.SchemeExact},
		{heston, engine.SchemeNative},
		{sabr, engine.SchemeNative},
		{merton, engine.SchemeNative},
	}

	fmt.Println("== 各模型定价 (欧式看涨) ==")
	var runs []*result.PricingRun
	for _, c := range cases {
		cfg := engine.DefaultConfig()
		cfg.Paths = paths
		cfg.SeedBase = seed
		cfg.Scheme = c.scheme

		e, err := engine.New(c.m, cfg)
		if err != nil {
			log.Fatalf("[Simulation] %s: %v", c.m.Name(), err)
		}
		est, err := e.Run(ctx, call, nil)
		if err != nil {
			log.Fatalf("[Simulation] %s: %v", c.m.Name(), err)
		}
		lo, hi := est.ConfidenceInterval()
		fmt.Printf("  %-8s %-7s price=%.4f ± %.4f  95%% CI [%.4f, %.4f]\n",
			c.m.Name(), c.scheme, est.Mean, est.StdErr, lo, hi)

		runs = append(runs, result.NewPricingRun(c.m.Name(), call.Describe(), cfg, est))
	}
	fmt.Println()
	return runs
}

// compareSchemes 三种通用格式在 GBM 上的对比 (精确解可验证)
func compareSchemes(ctx context.Context, call payoff.EuropeanCall, paths int, seed uint64) []*result.PricingRun {
	gbm, _ := model.NewGBM(spotPrice, riskFree, vol)

	fmt.Println("== 离散化格式对比 (GBM, 252 步) ==")
	var runs []*result.PricingRun
	for _, scheme := range []string{"euler", "milstein", "srk"} {
		cfg := engine.DefaultConfig()
		cfg.Paths = paths
		cfg.SeedBase = seed
		cfg.Scheme = scheme

		e, err := engine.New(gbm, cfg)
		if err != nil {
			log.Fatalf("[Simulation] scheme %s: %v", scheme, err)
		}
		est, err := e.Run(ctx, call, nil)
		if err != nil {
			log.Fatalf("[Simulation] scheme %s: %v", scheme, err)
		}
		fmt.Printf("  %-8s price=%.4f ± %.4f\n", scheme, est.Mean, est.StdErr)
		runs = append(runs, result.NewPricingRun(gbm.Name(), call.Describe(), cfg, est))
	}
	fmt.Println()
	return runs
}

// varianceReductionDemo 对偶变量与控制变量的效果
func varianceReductionDemo(ctx context.Context, call payoff.EuropeanCall, paths int, seed uint64) {
	gbm, _ := model.NewGBM(spotPrice, riskFree, vol)

	base := engine.DefaultConfig()
	base.Paths = paths
	base.SeedBase = seed
	base.Steps = 1

	run := func(cfg engine.Config, ctrl *engine.Control) engine.Estimate {
		e, err := engine.New(gbm, cfg)
		if err != nil {
			log.Fatalf("[Simulation] variance reduction: %v", err)
		}
		est, err := e.Run(ctx, call, ctrl)
		if err != nil {
			log.Fatalf("[Simulation] variance reduction: %v", err)
		}
		return est
	}

	plain := run(base, nil)

	anti := base
	anti.Antithetic = true
	if anti.Paths%2 != 0 {
		anti.Paths--
	}
	antiEst := run(anti, nil)

	ctrl := engine.TerminalPriceControl(gbm, base.Maturity)
	ctrlEst := run(base, &ctrl)

	fmt.Println("== 方差缩减 ==")
	fmt.Printf("  朴素        stderr=%.5f\n", plain.StdErr)
	fmt.Printf("  对偶变量    stderr=%.5f\n", antiEst.StdErr)
	fmt.Printf("  控制变量    stderr=%.5f  (b=%.3f, VRF=%.1fx)\n",
		ctrlEst.StdErr, ctrlEst.B, ctrlEst.VRF)
	fmt.Println()
}

// greeksDemo 希腊字母两种估计对照解析解
func greeksDemo(ctx context.Context, paths int, seed uint64) {
	mkt := greeks.Market{S0: spotPrice, K: strike, R: riskFree, Sigma: vol, T: maturity}

	pw, err := greeks.PathwiseCallGreeks(ctx, mkt, paths, seed)
	if err != nil {
		log.Fatalf("[Simulation] pathwise greeks: %v", err)
	}

	cfg := engine.DefaultConfig()
	cfg.Paths = paths
	cfg.SeedBase = seed
	cfg.Steps = 1
	fdDelta, fdGamma, fdVega, fdRho, err := greeks.FDCallGreeks(ctx, mkt, cfg, 0)
	if err != nil {
		log.Fatalf("[Simulation] fd greeks: %v", err)
	}

	aDelta, _ := analytic.DeltaCall(mkt.S0, mkt.K, mkt.R, mkt.Sigma, mkt.T)
	aGamma, _ := analytic.Gamma(mkt.S0, mkt.K, mkt.R, mkt.Sigma, mkt.T)
	aVega, _ := analytic.Vega(mkt.S0, mkt.K, mkt.R, mkt.Sigma, mkt.T)
	aRho, _ := analytic.RhoCall(mkt.S0, mkt.K, mkt.R, mkt.Sigma, mkt.T)

	fmt.Println("== 希腊字母 (解析 / 路径微分 / 有限差分) ==")
	fmt.Printf("  delta  %.4f / %.4f / %.4f\n", aDelta, pw.Delta.Value, fdDelta.Value)
	fmt.Printf("  gamma  %.4f /   --   / %.4f\n", aGamma, fdGamma.Value)
	fmt.Printf("  vega   %.4f / %.4f / %.4f\n", aVega, pw.Vega.Value, fdVega.Value)
	fmt.Printf("  rho    %.4f / %.4f / %.4f\n", aRho, pw.Rho.Value, fdRho.Value)
	fmt.Println()
}

// exportPaths 导出前 100 条 GBM 路径
func exportPaths(ctx context.Context, name string, seed uint64) {
	gbm, _ := model.NewGBM(spotPrice, riskFree, vol)

	cfg := engine.DefaultConfig()
	cfg.SeedBase = seed
	e, err := engine.New(gbm, cfg)
	if err != nil {
		log.Fatalf("[Simulation] export: %v", err)
	}
	paths, err := e.SamplePaths(ctx, 100)
	if err != nil {
		log.Fatalf("[Simulation] export: %v", err)
	}
	if err := export.WritePathsFile(name, e.Grid(), paths); err != nil {
		log.Fatalf("[Simulation] export: %v", err)
	}
	fmt.Printf("已导出 %d 条路径到 %s\n", len(paths), name)
}
