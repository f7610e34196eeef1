package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/cache"
)

// SummaryRollover invalidates cached approval summaries when the calendar
// month changes. Their approved-this-month counts restart on the 1st.
type SummaryRollover struct {
	cache *cache.Cache
	now   func() time.Time

	mu    sync.Mutex
	month time.Time
}

func NewSummaryRollover(summaryCache *cache.Cache) *SummaryRollover {
	return &SummaryRollover{cache: summaryCache, now: time.Now}
}

// Run is the job function. The first run only records the current month.
func (j *SummaryRollover) Run(ctx context.Context) error {
	now := j.now()
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.month.IsZero() || month.Equal(j.month) {
		j.month = month
		return nil
	}
	if err := j.cache.Bump(ctx); err != nil {
		return fmt.Errorf("failed to invalidate approval summaries: %w", err)
	}
	slog.Info("approval summaries rolled over", "month", month.Format("2006-01"))
	j.month = month
	return nil
}
