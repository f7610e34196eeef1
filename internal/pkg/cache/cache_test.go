package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Count int `json:"count"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, "timesheet", time.Minute), mr
}

func TestFetchJSONCachesUntilBump(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	calls := 0
	loader := func(context.Context) (interface{}, error) {
		calls++
		return payload{Count: calls}, nil
	}

	key, err := c.BuildKey(ctx, "summary", "sup-1")
	require.NoError(t, err)
	assert.Equal(t, "timesheet:summary:sup-1:1", key)

	var first, second payload
	require.NoError(t, c.FetchJSON(ctx, key, &first, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &second, loader))
	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)

	require.NoError(t, c.Bump(ctx))
	key, err = c.BuildKey(ctx, "summary", "sup-1")
	require.NoError(t, err)
	assert.Equal(t, "timesheet:summary:sup-1:2", key)

	var third payload
	require.NoError(t, c.FetchJSON(ctx, key, &third, loader))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, third.Count)
}

func TestFetchJSONExpiresWithTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	calls := 0
	loader := func(context.Context) (interface{}, error) {
		calls++
		return payload{Count: calls}, nil
	}

	var got payload
	require.NoError(t, c.FetchJSON(ctx, "k", &got, loader))
	mr.FastForward(2 * time.Minute)
	require.NoError(t, c.FetchJSON(ctx, "k", &got, loader))
	assert.Equal(t, 2, calls)
}

func TestFetchJSONSharesConcurrentLoads(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestCache(t)

	var calls int32
	release := make(chan struct{})
	loader := func(context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return payload{Count: 7}, nil
	}

	var wg sync.WaitGroup
	results := make([]payload, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, c.FetchJSON(ctx, "shared", &results[i], loader))
		}(i)
	}
	// give the goroutines time to join the in-flight call
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, 7, r.Count)
	}
}

func TestFetchJSONSharedLoadSurvivesCancelledCaller(t *testing.T) {
	c, mr := newTestCache(t)

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	loader := func(ctx context.Context) (interface{}, error) {
		once.Do(func() { close(started) })
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return payload{Count: 3}, nil
	}

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		var got payload
		firstErr <- c.FetchJSON(firstCtx, "shared", &got, loader)
	}()
	<-started

	second := make(chan payload, 1)
	go func() {
		var got payload
		assert.NoError(t, c.FetchJSON(context.Background(), "shared", &got, loader))
		second <- got
	}()
	// let the second caller join the in-flight load
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	assert.Equal(t, 3, (<-second).Count)
	assert.True(t, mr.Exists("shared"))
}

func TestFetchJSONLoaderError(t *testing.T) {
	c, _ := newTestCache(t)
	boom := errors.New("boom")
	var got payload
	err := c.FetchJSON(context.Background(), "k", &got, func(context.Context) (interface{}, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestNilCachePassesThrough(t *testing.T) {
	ctx := context.Background()
	var c *Cache

	key, err := c.BuildKey(ctx, "summary", "sup-1")
	require.NoError(t, err)
	assert.Equal(t, "summary:sup-1", key)
	assert.NoError(t, c.Bump(ctx))

	calls := 0
	var got payload
	for i := 0; i < 2; i++ {
		require.NoError(t, c.FetchJSON(ctx, key, &got, func(context.Context) (interface{}, error) {
			calls++
			return payload{Count: calls}, nil
		}))
	}
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, got.Count)
}
