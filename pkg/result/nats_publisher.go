// 文件: pkg/result/nats_publisher.go
// 定价结果 NATS 发布
// 轻量级替代 Kafka，适合本地开发与低量级订阅方

package result

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// 主题: pricing.run.{model}，订阅方可按模型过滤
const natsSubjectPrefix = "pricing.run."

// NATSPublisher 运行结果 NATS 发布者
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher 创建发布者
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

// PublishRun 发布一条运行记录 (JSON)
func (p *NATSPublisher) PublishRun(run *PricingRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return p.conn.Publish(natsSubjectPrefix+run.Model, data)
}

// Close 关闭连接
func (p *NATSPublisher) Close() {
	p.conn.Close()
}
