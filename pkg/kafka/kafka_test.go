package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"

	cb "github.com/Astemirdum/book-lending/pkg/circuit_breaker"
)

func TestPublisher_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"type":"book.returned"}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})

	p := NewPublisher(producer)
	err := p.Publish(context.Background(), LendingTopic, "BK-ABCDEF", map[string]string{"type": "book.returned"})
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestPublisher_OpenBreaker(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	for i := 0; i < 10; i++ {
		producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
	}

	p := NewPublisher(producer).(*publisher)
	for i := 0; i < 10; i++ {
		require.ErrorIs(t, p.Publish(context.Background(), ReviewTopic, "k", struct{}{}), sarama.ErrOutOfBrokers)
	}
	require.Equal(t, cb.Open, p.cb.State())
	require.ErrorIs(t, p.Publish(context.Background(), ReviewTopic, "k", struct{}{}), cb.ErrOpen)
	require.NoError(t, p.Close())
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher()
	require.NoError(t, p.Publish(context.Background(), LendingTopic, "k", 1))
	require.NoError(t, p.Close())
}
