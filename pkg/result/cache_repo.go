// 文件: pkg/result/cache_repo.go
// 运行记录 Redis 缓存层
//
// 装饰器包装底层 Repository，调用方只看到 Repository 接口。
// 读: 先查 Redis，miss 则查底层并回填
// 写: 先写底层，成功后删除列表缓存 (Cache Aside)
//
// 运行记录写入后不再变更，单条缓存可以放心给长 TTL。

package result

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ Repository = (*CachedRunRepository)(nil)

const (
	cacheKeyPrefix = "pricing:run:"

	// 单条记录: pricing:run:id:{runID}
	cacheKeyRun = cacheKeyPrefix + "id:%d"

	// 按模型的最近列表: pricing:run:model:{model}
	cacheKeyModelList = cacheKeyPrefix + "model:%s"

	// 记录不可变，TTL 可以很长
	runCacheTTL = 24 * time.Hour

	// 列表会随新运行变化，TTL 较短
	listCacheTTL = 5 * time.Minute
)

// CachedRunRepository Redis 缓存装饰器
type CachedRunRepository struct {
	repo  Repository
	redis *redis.Client
}

// NewCachedRunRepository 创建带缓存的仓储
//
// 用法:
//
//	mysqlRepo := NewMySQLRunRepository(db)
//	repo := NewCachedRunRepository(mysqlRepo, redisClient)
func NewCachedRunRepository(repo Repository, rds *redis.Client) *CachedRunRepository {
	return &CachedRunRepository{repo: repo, redis: rds}
}

func (r *CachedRunRepository) Create(ctx context.Context, run *PricingRun) error {
	if err := r.repo.Create(ctx, run); err != nil {
		return err
	}
	// 新记录影响列表，单条留给下次读取回填
	r.redis.Del(ctx, fmt.Sprintf(cacheKeyModelList, run.Model))
	return nil
}

func (r *CachedRunRepository) GetByRunID(ctx context.Context, runID int64) (*PricingRun, error) {
	key := fmt.Sprintf(cacheKeyRun, runID)

	data, err := r.redis.Get(ctx, key).Bytes()
	if err == nil {
		var run PricingRun
		if json.Unmarshal(data, &run) == nil {
			return &run, nil // Cache hit
		}
	}

	run, err := r.repo.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}

	// 回填缓存 (异步，不阻塞主流程)
	go r.setCache(context.Background(), key, run, runCacheTTL)
	return run, nil
}

func (r *CachedRunRepository) ListByModel(ctx context.Context, modelName string, limit int) ([]*PricingRun, error) {
	key := fmt.Sprintf(cacheKeyModelList, modelName)

	data, err := r.redis.Get(ctx, key).Bytes()
	if err == nil {
		var runs []*PricingRun
		if json.Unmarshal(data, &runs) == nil && len(runs) >= limit {
			return runs[:limit], nil
		}
	}

	runs, err := r.repo.ListByModel(ctx, modelName, limit)
	if err != nil {
		return nil, err
	}

	go r.setCacheList(context.Background(), key, runs, listCacheTTL)
	return runs, nil
}

func (r *CachedRunRepository) Latest(ctx context.Context, limit int) ([]*PricingRun, error) {
	// 全局最近列表不缓存，直接透传
	return r.repo.Latest(ctx, limit)
}

func (r *CachedRunRepository) setCache(ctx context.Context, key string, run *PricingRun, ttl time.Duration) {
	data, err := json.Marshal(run)
	if err != nil {
		return
	}
	r.redis.Set(ctx, key, data, ttl)
}

func (r *CachedRunRepository) setCacheList(ctx context.Context, key string, runs []*PricingRun, ttl time.Duration) {
	data, err := json.Marshal(runs)
	if err != nil {
		return
	}
	r.redis.Set(ctx, key, data, ttl)
}
