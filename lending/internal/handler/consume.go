package handler

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-lending/lending/internal/errs"
	"github.com/Astemirdum/book-lending/lending/internal/model"
)

type recomputeFunc func(ctx context.Context, bookRef string) (model.Book, error)

const (
	consumeAttempts = 3
	consumeBackoff  = 200 * time.Millisecond
)

// Consumer heals book aggregates from review-events.
type Consumer struct {
	recompute recomputeFunc
	log       *zap.Logger
	ready     chan struct{}

	attempts int
	backoff  time.Duration
}

func NewConsumer(recompute recomputeFunc, log *zap.Logger) *Consumer {
	return &Consumer{
		recompute: recompute,
		log:       log.Named("consumer"),
		ready:     make(chan struct{}),
		attempts:  consumeAttempts,
		backoff:   consumeBackoff,
	}
}

// Ready is closed once the first session is set up.
func (consumer *Consumer) Ready() <-chan struct{} { return consumer.ready }

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	select {
	case <-consumer.ready:
	default:
		close(consumer.ready)
	}
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			if !consumer.process(session.Context(), message) {
				return nil
			}
			consumer.log.Debug("message claimed",
				zap.String("topic", message.Topic),
				zap.Time("timestamp", message.Timestamp))
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

// process retries handle with a growing delay. Marking a later offset commits
// past this one, so after the last attempt the message is given up and the
// drift is left to lendingctl reconcile. It reports false once ctx is done.
func (consumer *Consumer) process(ctx context.Context, message *sarama.ConsumerMessage) bool {
	delay := consumer.backoff
	for attempt := 1; ; attempt++ {
		err := consumer.handle(ctx, message)
		if err == nil {
			return true
		}
		if attempt >= consumer.attempts {
			consumer.log.Error("consumer.handle: giving up",
				zap.Error(err),
				zap.Int("attempts", attempt),
				zap.ByteString("value", message.Value))
			return true
		}
		consumer.log.Warn("consumer.handle", zap.Error(err), zap.Int("attempt", attempt))
		select {
		case <-time.After(delay):
			delay *= 2
		case <-ctx.Done():
			return false
		}
	}
}

// handle reports only errors worth a retry. Malformed events and books
// deleted in the meantime are dropped.
func (consumer *Consumer) handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	var ev model.Event
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(message.Value, &ev); err != nil {
		consumer.log.Warn("drop malformed event", zap.Error(err))
		return nil
	}
	if ev.Type != model.EventReviewChanged || ev.BookDisplayID == "" {
		return nil
	}
	if _, err := consumer.recompute(ctx, ev.BookDisplayID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}
