// 文件: pkg/result/mysql_repo.go
// 运行记录 MySQL 仓储

package result

import (
	"context"

	"gorm.io/gorm"
)

// Repository 运行记录仓储契约
type Repository interface {
	Create(ctx context.Context, run *PricingRun) error
	GetByRunID(ctx context.Context, runID int64) (*PricingRun, error)
	ListByModel(ctx context.Context, modelName string, limit int) ([]*PricingRun, error)
	Latest(ctx context.Context, limit int) ([]*PricingRun, error)
}

type MySQLRunRepository struct {
	db *gorm.DB
}

var _ Repository = (*MySQLRunRepository)(nil)

func NewMySQLRunRepository(db *gorm.DB) *MySQLRunRepository {
	return &MySQLRunRepository{db: db}
}

func (r *MySQLRunRepository) Create(ctx context.Context, run *PricingRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *MySQLRunRepository) GetByRunID(ctx context.Context, runID int64) (*PricingRun, error) {
	var run PricingRun
	err := r.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *MySQLRunRepository) ListByModel(ctx context.Context, modelName string, limit int) ([]*PricingRun, error) {
	var runs []*PricingRun
	err := r.db.WithContext(ctx).
		Where("model = ?", modelName).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

func (r *MySQLRunRepository) Latest(ctx context.Context, limit int) ([]*PricingRun, error) {
	var runs []*PricingRun
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}
