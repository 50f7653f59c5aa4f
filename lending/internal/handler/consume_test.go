package handler

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/book-lending/lending/internal/errs"
	"github.com/Astemirdum/book-lending/lending/internal/model"
)

func TestConsumer_Handle(t *testing.T) {
	t.Parallel()
	var tests = []struct {
		name      string
		value     string
		recompute recomputeFunc
		wantRef   string
		wantErr   bool
	}{
		{
			name:    "review changed",
			value:   `{"type":"review.changed","bookId":"f7cdc58f-2caf-4b15-9727-f89dcc629b27","bookDisplayId":"BK-7F3K9Q"}`,
			wantRef: "BK-7F3K9Q",
		},
		{
			name:  "other event type",
			value: `{"type":"book.returned","bookDisplayId":"BK-7F3K9Q"}`,
		},
		{
			name:  "malformed",
			value: `{"type":`,
		},
		{
			name:  "book deleted meanwhile",
			value: `{"type":"review.changed","bookDisplayId":"BK-GONE22"}`,
			recompute: func(context.Context, string) (model.Book, error) {
				return model.Book{}, errs.ErrNotFound
			},
			wantRef: "BK-GONE22",
		},
		{
			name:  "db failure is retried",
			value: `{"type":"review.changed","bookDisplayId":"BK-7F3K9Q"}`,
			recompute: func(context.Context, string) (model.Book, error) {
				return model.Book{}, errors.New("db down")
			},
			wantRef: "BK-7F3K9Q",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got string
			inner := tt.recompute
			if inner == nil {
				inner = func(context.Context, string) (model.Book, error) { return model.Book{}, nil }
			}
			c := NewConsumer(func(ctx context.Context, ref string) (model.Book, error) {
				got = ref
				return inner(ctx, ref)
			}, zap.NewNop())

			err := c.handle(context.Background(), &sarama.ConsumerMessage{Value: []byte(tt.value)})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tt.wantRef, got)
		})
	}
}

func TestConsumer_ProcessRetries(t *testing.T) {
	t.Parallel()
	msg := &sarama.ConsumerMessage{Value: []byte(`{"type":"review.changed","bookDisplayId":"BK-7F3K9Q"}`)}

	t.Run("recovers after transient failure", func(t *testing.T) {
		t.Parallel()
		calls := 0
		c := NewConsumer(func(context.Context, string) (model.Book, error) {
			calls++
			if calls < 2 {
				return model.Book{}, errors.New("db down")
			}
			return model.Book{}, nil
		}, zap.NewNop())
		c.backoff = time.Millisecond

		require.True(t, c.process(context.Background(), msg))
		require.Equal(t, 2, calls)
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		t.Parallel()
		calls := 0
		c := NewConsumer(func(context.Context, string) (model.Book, error) {
			calls++
			return model.Book{}, errors.New("db down")
		}, zap.NewNop())
		c.backoff = time.Millisecond

		require.True(t, c.process(context.Background(), msg))
		require.Equal(t, consumeAttempts, calls)
	})

	t.Run("stops when the session ends", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		c := NewConsumer(func(context.Context, string) (model.Book, error) {
			cancel()
			return model.Book{}, errors.New("db down")
		}, zap.NewNop())
		c.backoff = time.Hour

		require.False(t, c.process(ctx, msg))
	})
}
