// 文件: pkg/result/model.go
// 定价运行记录
//
// 每次仿真的可追溯产物: 配置指纹 + 估计结果。
// RunID 用雪花算法生成，跨节点唯一且按时间有序。

package result

import (
	"time"

	"quant.com/pkg/engine"
)

// PricingRun 一次定价运行的持久化记录
type PricingRun struct {
	ID    uint  `gorm:"primaryKey;autoIncrement" json:"-"`
	RunID int64 `gorm:"column:run_id;uniqueIndex" json:"run_id"` // 雪花ID

	// 配置指纹
	Model    string `gorm:"column:model;type:varchar(32);index" json:"model"`
	Scheme   string `gorm:"column:scheme;type:varchar(16)" json:"scheme"`
	Payoff   string `gorm:"column:payoff;type:varchar(128)" json:"payoff"`
	Paths    int    `gorm:"column:paths" json:"paths"`
	Steps    int    `gorm:"column:steps" json:"steps"`
	SeedBase int64  `gorm:"column:seed_base" json:"seed_base"`

	// 估计结果
	Mean    float64 `gorm:"column:mean" json:"mean"`
	StdErr  float64 `gorm:"column:std_err" json:"std_err"`
	Samples int     `gorm:"column:samples" json:"samples"`
	VRF     float64 `gorm:"column:vrf" json:"vrf,omitempty"`

	ElapsedMs int64 `gorm:"column:elapsed_ms" json:"elapsed_ms"`
	CreatedAt int64 `gorm:"column:created_at" json:"created_at"` // Unix 毫秒
}

// TableName GORM 表名
func (PricingRun) TableName() string {
	return "pricing_runs"
}

// NewPricingRun 由引擎配置与估计结果组装记录 (RunID 即刻生成)
func NewPricingRun(modelName, payoffDesc string, cfg engine.Config, est engine.Estimate) *PricingRun {
	return &PricingRun{
		RunID:     GenerateRunID(),
		Model:     modelName,
		Scheme:    cfg.Scheme,
		Payoff:    payoffDesc,
		Paths:     est.Paths,
		Steps:     cfg.Steps,
		SeedBase:  int64(cfg.SeedBase),
		Mean:      est.Mean,
		StdErr:    est.StdErr,
		Samples:   est.Samples,
		VRF:       est.VRF,
		ElapsedMs: est.Elapsed.Milliseconds(),
		CreatedAt: time.Now().UnixMilli(),
	}
}
