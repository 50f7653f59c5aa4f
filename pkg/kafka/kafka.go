package kafka

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	cb "github.com/Astemirdum/book-lending/pkg/circuit_breaker"
)

const (
	LendingTopic = "lending-events"
	ReviewTopic  = "review-events"

	ReviewConsumerGroup = "lending-review-reconciler"
)

type Config struct {
	Addrs  []string `envconfig:"KAFKA_ADDRS" default:"localhost:9092"`
	Enable bool     `envconfig:"KAFKA_ENABLE" default:"false"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true
	defaultCfg.Producer.Timeout = 5 * time.Second

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

func NewConsumer(cfg Config, group string) (sarama.ConsumerGroup, error) {
	defaultCfg := sarama.NewConfig()
	defaultCfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	defaultCfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}

	return sarama.NewConsumerGroup(cfg.Addrs, group, defaultCfg)
}

// Consume blocks until ctx is done, rejoining the group after every rebalance.
func Consume(ctx context.Context, group sarama.ConsumerGroup, handler sarama.ConsumerGroupHandler, log *zap.Logger, topics ...string) {
	for {
		if err := group.Consume(ctx, topics, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}
			log.Error("group.Consume", zap.Error(err), zap.Strings("topics", topics))
			time.Sleep(time.Second)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// Publisher sends JSON encoded messages. Calls to an unhealthy broker are
// short-circuited by a circuit breaker.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, v any) error
	Close() error
}

type publisher struct {
	producer sarama.SyncProducer
	cb       cb.CircuitBreaker
}

func NewPublisher(producer sarama.SyncProducer) Publisher {
	return &publisher{
		producer: producer,
		cb:       cb.New(20, 30*time.Second, 0.5, 3),
	}
}

func (p *publisher) Publish(ctx context.Context, topic, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal message")
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}
	return p.cb.Call(func() error {
		_, _, err := p.producer.SendMessage(msg)
		return err
	})
}

func (p *publisher) Close() error {
	return p.producer.Close()
}

type noopPublisher struct{}

// NewNoopPublisher is used when kafka is disabled.
func NewNoopPublisher() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, string, string, any) error { return nil }

func (noopPublisher) Close() error { return nil }
