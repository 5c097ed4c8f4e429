package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/artgallery/server/internal/models"
	"github.com/artgallery/server/internal/observability"
)

// Prefetcher runs one fetch-more cycle
type Prefetcher interface {
	FetchMore(ctx context.Context) (FetchResult, error)
}

// SchedulePrefetch fetches the next catalog page on schedule (standard cron syntax or a
// descriptor such as "@hourly") until ctx is done. An empty schedule disables prefetching
// and returns a nil *cron.Cron.
func SchedulePrefetch(ctx context.Context, schedule string, store Prefetcher) (*cron.Cron, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil, nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := c.AddFunc(schedule, func() {
		runPrefetch(ctx, store)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid prefetch schedule %q: %w", schedule, err)
	}
	c.Start()
	observability.Infof("Catalog prefetch scheduled: %s", schedule)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}

func runPrefetch(ctx context.Context, store Prefetcher) {
	if ctx.Err() != nil {
		return
	}
	result, err := store.FetchMore(ctx)
	switch {
	case errors.Is(err, models.ErrFetchInProgress):
		observability.Debug("Prefetch skipped, a fetch is already running")
	case err != nil:
		observability.WithContext(ctx).WithError(err).Warn("Scheduled prefetch failed")
	default:
		observability.Infof("Prefetched page %d: %d new artworks, %d total", result.Page, result.Merged, result.Total)
	}
}
