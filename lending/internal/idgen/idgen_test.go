package idgen_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Astemirdum/book-lending/lending/internal/errs"
	"github.com/Astemirdum/book-lending/lending/internal/idgen"
)

func TestGenerator_Generate(t *testing.T) {
	g := idgen.New()
	for i := 0; i < 200; i++ {
		id, err := g.Generate("BK")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(id, "BK-"), id)
		require.Len(t, id, len("BK-")+idgen.Length)
		require.True(t, idgen.Valid("BK", id), id)
		require.False(t, strings.ContainsAny(id[3:], "IO01"), id)
	}
}

func TestGenerator_GenerateDeterministic(t *testing.T) {
	g := idgen.NewWithReader(bytes.NewReader([]byte{0, 1, 31, 32, 33, 255}))
	id, err := g.Generate("USR")
	require.NoError(t, err)
	require.Equal(t, "USR-AB9AB9", id)
}

func TestGenerator_CreateUnique(t *testing.T) {
	ctx := context.Background()

	t.Run("first free candidate", func(t *testing.T) {
		calls := 0
		id, err := idgen.New().CreateUnique(ctx, "BK", func(context.Context, string) (bool, error) {
			calls++
			return calls < 3, nil
		}, idgen.MaxAttempts)
		require.NoError(t, err)
		require.True(t, idgen.Valid("BK", id))
		require.Equal(t, 3, calls)
	})

	t.Run("exhaustion after max attempts", func(t *testing.T) {
		var seen []string
		_, err := idgen.New().CreateUnique(ctx, "USR", func(_ context.Context, id string) (bool, error) {
			seen = append(seen, id)
			return true, nil
		}, idgen.MaxAttempts)
		require.ErrorIs(t, err, errs.ErrIDExhaustion)
		require.Len(t, seen, idgen.MaxAttempts)
	})

	t.Run("predicate error", func(t *testing.T) {
		boom := errors.New("db down")
		_, err := idgen.New().CreateUnique(ctx, "BK", func(context.Context, string) (bool, error) {
			return false, boom
		}, 3)
		require.ErrorIs(t, err, boom)
	})

	t.Run("short random source", func(t *testing.T) {
		_, err := idgen.NewWithReader(bytes.NewReader([]byte{1, 2})).Generate("BK")
		require.Error(t, err)
	})
}

func TestValid(t *testing.T) {
	require.True(t, idgen.Valid("BK", "BK-7F3K9Q"))
	require.False(t, idgen.Valid("BK", "BK-7F3K9"))
	require.False(t, idgen.Valid("BK", "USR-7F3K9Q"))
	require.False(t, idgen.Valid("BK", "BK-7F3K9O"))
	require.False(t, idgen.Valid("BK", "BK_7F3K9Q"))
}
