// 文件: pkg/result/kafka_producer.go
// 定价结果 Kafka 生产者
//
// 异步发送，高吞吐，适合批量回测场景 (每秒上千次运行记录)。
// RunID 作为分区 key，同一运行的事件保证顺序。

package result

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
)

// 默认投递目标
const DefaultKafkaTopic = "pricing-runs"

// KafkaConfig Kafka 生产者配置
type KafkaConfig struct {
	Brokers []string
	Topic   string

	// RequiredAcks 确认模式: 0=不等待, 1=leader确认, -1=全部副本
	RequiredAcks int

	// Compression 压缩方式: gzip/snappy/lz4/zstd/空为不压缩
	Compression string

	FlushFrequency time.Duration
	FlushMessages  int
	MaxRetries     int
}

// DefaultKafkaConfig 默认配置
func DefaultKafkaConfig(brokers []string) KafkaConfig {
	return KafkaConfig{
		Brokers:        brokers,
		Topic:          DefaultKafkaTopic,
		RequiredAcks:   1,
		Compression:    "snappy",
		FlushFrequency: 100 * time.Millisecond,
		FlushMessages:  100,
		MaxRetries:     3,
	}
}

// KafkaProducer 运行结果 Kafka 生产者
type KafkaProducer struct {
	producer sarama.AsyncProducer
	config   KafkaConfig

	// 统计
	sentCount  atomic.Int64
	errorCount atomic.Int64

	// 生命周期
	closed atomic.Bool
	wg     sync.WaitGroup
}

// NewKafkaProducer 创建生产者
func NewKafkaProducer(cfg KafkaConfig) (*KafkaProducer, error) {
	if cfg.Topic == "" {
		cfg.Topic = DefaultKafkaTopic
	}

	saramaConfig := sarama.NewConfig()

	switch cfg.RequiredAcks {
	case 0:
		saramaConfig.Producer.RequiredAcks = sarama.NoResponse
	case -1:
		saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	default:
		saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	}

	switch cfg.Compression {
	case "gzip":
		saramaConfig.Producer.Compression = sarama.CompressionGZIP
	case "snappy":
		saramaConfig.Producer.Compression = sarama.CompressionSnappy
	case "lz4":
		saramaConfig.Producer.Compression = sarama.CompressionLZ4
	case "zstd":
		saramaConfig.Producer.Compression = sarama.CompressionZSTD
	default:
		saramaConfig.Producer.Compression = sarama.CompressionNone
	}

	saramaConfig.Producer.Flush.Frequency = cfg.FlushFrequency
	saramaConfig.Producer.Flush.Messages = cfg.FlushMessages
	saramaConfig.Producer.Retry.Max = cfg.MaxRetries

	// 异步模式: 不收成功回执，只收失败
	saramaConfig.Producer.Return.Successes = false
	saramaConfig.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	p := &KafkaProducer{producer: producer, config: cfg}

	p.wg.Add(1)
	go p.handleErrors()

	return p, nil
}

// PublishRun 异步发送一条运行记录
func (p *KafkaProducer) PublishRun(run *PricingRun) error {
	if p.closed.Load() {
		return fmt.Errorf("kafka producer is closed")
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("serialize pricing run: %w", err)
	}

	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: p.config.Topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(run.RunID, 10)),
		Value: sarama.ByteEncoder(data),
	}
	p.sentCount.Add(1)
	return nil
}

func (p *KafkaProducer) handleErrors() {
	defer p.wg.Done()

	for err := range p.producer.Errors() {
		p.errorCount.Add(1)
		log.Printf("[KafkaProducer] send error: topic=%s, err=%v", err.Msg.Topic, err.Err)
	}
}

// KafkaStats 统计信息
type KafkaStats struct {
	SentCount  int64
	ErrorCount int64
}

// Stats 获取统计信息
func (p *KafkaProducer) Stats() KafkaStats {
	return KafkaStats{
		SentCount:  p.sentCount.Load(),
		ErrorCount: p.errorCount.Load(),
	}
}

// Close 关闭生产者，等待错误处理协程退出
func (p *KafkaProducer) Close() error {
	if p.closed.Swap(true) {
		return nil // 已经关闭
	}

	err := p.producer.Close()
	p.wg.Wait()
	return err
}
