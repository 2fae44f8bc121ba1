package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "index", []byte("page"), 50*time.Millisecond))

	val, ok, err := s.Get(ctx, "index")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "page", string(val))

	assert.Eventually(t, func() bool {
		_, ok, _ := s.Get(ctx, "index")
		return !ok
	}, time.Second, 10*time.Millisecond, "entry must expire once the TTL elapses")
}

func TestMemoryStore_SweepsExpired(t *testing.T) {
	ctx := context.Background()
	s := newMemoryStore(10 * time.Millisecond)

	for i := 0; i < 1000; i++ {
		require.NoError(t, s.Set(ctx, fmt.Sprintf("/?x=%d|u0", i), []byte("page"), 20*time.Millisecond))
	}
	require.NoError(t, s.Set(ctx, "kept", []byte("page"), time.Minute))

	assert.Eventually(t, func() bool { return s.Len() == 1 }, 2*time.Second, 10*time.Millisecond,
		"expired entries are removed without being read again")
	_, ok, _ := s.Get(ctx, "kept")
	assert.True(t, ok)
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, s.Set(ctx, "b", []byte("2"), time.Minute))

	require.NoError(t, s.Delete(ctx, "a"))

	_, ok, _ := s.Get(ctx, "a")
	assert.False(t, ok)
	_, ok, _ = s.Get(ctx, "b")
	assert.True(t, ok)
}

func TestMemoryStore_CopiesValue(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf, time.Minute))
	buf[0] = 'x'

	val, _, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(val))
}
