package cron

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryRollover(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	c := cache.New(client, "timesheet", time.Minute)
	start, err := c.Version(ctx)
	require.NoError(t, err)

	job := NewSummaryRollover(c)
	now := time.Date(2025, time.May, 31, 23, 58, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(ctx))
	now = now.Add(time.Minute)
	require.NoError(t, job.Run(ctx))

	ver, err := c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, start, ver, "same month must not invalidate")

	now = time.Date(2025, time.June, 1, 0, 0, 30, 0, time.UTC)
	require.NoError(t, job.Run(ctx))
	ver, err = c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, start+1, ver)

	require.NoError(t, job.Run(ctx))
	ver, err = c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, start+1, ver)
}

func TestSummaryRollover_NilCache(t *testing.T) {
	job := NewSummaryRollover(nil)
	now := time.Date(2025, time.May, 31, 0, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	now = now.AddDate(0, 0, 1)
	assert.NoError(t, job.Run(context.Background()))
}
