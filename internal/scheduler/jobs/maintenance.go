package jobs

import (
	"context"

	"github.com/dokyun/folio/pkg/cache"
	"github.com/dokyun/folio/pkg/logger"
)

// CacheSweepJob evicts expired entries from the in-memory cache
// fallback. The redis backend expires keys on its own; the fallback map
// only drops entries on read, so it needs a periodic sweep.
type CacheSweepJob struct {
	store  *cache.ReadThrough
	logger *logger.Logger
}

// NewCacheSweepJob creates a sweep job over the engine cache.
func NewCacheSweepJob(store *cache.ReadThrough, log *logger.Logger) *CacheSweepJob {
	return &CacheSweepJob{store: store, logger: log}
}

// Name returns the job name
func (j *CacheSweepJob) Name() string {
	return "cache_sweep"
}

// Schedule returns the cron schedule (hourly, with seconds)
func (j *CacheSweepJob) Schedule() string {
	return "0 0 * * * *"
}

// Run sweeps the in-memory fallback store.
func (j *CacheSweepJob) Run(_ context.Context) error {
	removed := j.store.Fallback().Sweep()
	j.logger.WithFields(map[string]interface{}{
		"removed":   removed,
		"remaining": j.store.Fallback().Len(),
	}).Debug("Cache sweep completed")
	return nil
}
