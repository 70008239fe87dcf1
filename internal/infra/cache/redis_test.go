package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewRedis(mr.Addr(), "", 0, time.Hour)
	t.Cleanup(func() { r.Close() })
	return r, mr
}

func TestGetMiss(t *testing.T) {
	r, _ := newTestRedis(t)
	_, ok, err := r.Get(context.Background(), "unknown query")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetThenGet(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "trends for EcoSnap", `[{"content":"snippet"}]`))

	val, ok, err := r.Get(ctx, "trends for EcoSnap")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"content":"snippet"}]`, val)
}

func TestEntriesExpire(t *testing.T) {
	r, mr := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "q", "v"))
	mr.FastForward(2 * time.Hour)

	_, ok, err := r.Get(ctx, "q")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestZeroTTLNeverExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	r := NewRedis(mr.Addr(), "", 0, 0)
	t.Cleanup(func() { r.Close() })
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "q", "v"))
	mr.FastForward(100 * 24 * time.Hour)

	val, ok, err := r.Get(ctx, "q")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", val)
}

func TestPing(t *testing.T) {
	r, mr := newTestRedis(t)
	require.NoError(t, r.Ping(context.Background()))

	mr.Close()
	assert.Error(t, r.Ping(context.Background()))
}
