package explore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"log/slog"

	"golang.org/x/sync/semaphore"

	"sofilmy/internal/domain"
	"sofilmy/internal/metrics"
)

// Aggregate fans the query out to every source, tolerating individual
// failures, and merges the results into one snapshot: duplicates collapse
// onto the first occurrence in source order, then the merged list is
// stable-sorted by popularity, highest first.
//
// The returned error is nil as long as at least one source succeeded; it
// carries the joined per-source errors only when every source failed.
func (s *Service) Aggregate(ctx context.Context, query string, sources []Source) (domain.MediaList, error) {
	if len(sources) == 0 {
		return domain.MediaList{Query: query, Items: []domain.MediaItem{}}, ErrNoSources
	}

	runCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	startedAt := time.Now()
	statuses := make([]domain.SourceStatus, len(sources))
	batches := make([][]domain.MediaItem, len(sources))
	fetchErrs := make([]error, len(sources))

	sem := semaphore.NewWeighted(s.maxConcurrent)
	var wg sync.WaitGroup
	for i, source := range sources {
		wg.Add(1)
		go func(index int, current Source) {
			defer wg.Done()

			if err := sem.Acquire(runCtx, 1); err != nil {
				statuses[index] = domain.SourceStatus{Name: current.Name(), Error: "context cancelled"}
				fetchErrs[index] = err
				return
			}
			defer sem.Release(1)

			fetchStartedAt := time.Now()
			var items []domain.MediaItem
			err := retryTransient(runCtx, func() error {
				var fetchErr error
				items, fetchErr = current.Fetch(runCtx, query)
				return fetchErr
			})
			metrics.SourceRequestDuration.WithLabelValues(current.Name()).Observe(time.Since(fetchStartedAt).Seconds())

			if err != nil {
				metrics.SourceRequestsTotal.WithLabelValues(current.Name(), "error").Inc()
				s.logger.Warn("media source failed",
					slog.String("source", current.Name()),
					slog.String("query", query),
					slog.String("error", err.Error()),
				)
				statuses[index] = domain.SourceStatus{Name: current.Name(), Error: err.Error()}
				fetchErrs[index] = err
				return
			}

			metrics.SourceRequestsTotal.WithLabelValues(current.Name(), "ok").Inc()
			statuses[index] = domain.SourceStatus{Name: current.Name(), OK: true, Count: len(items)}
			batches[index] = items
		}(i, source)
	}
	wg.Wait()

	merged := mergeBatches(batches)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Popularity > merged[j].Popularity
	})

	list := domain.MediaList{
		Query:     query,
		Items:     merged,
		Sources:   statuses,
		ElapsedMS: time.Since(startedAt).Milliseconds(),
	}

	for _, status := range statuses {
		if status.OK {
			return list, nil
		}
	}
	return list, errors.Join(fetchErrs...)
}

// mergeBatches flattens per-source batches preserving source order, keeping
// the first occurrence of each (MediaType, ID) pair.
func mergeBatches(batches [][]domain.MediaItem) []domain.MediaItem {
	total := 0
	for _, batch := range batches {
		total += len(batch)
	}
	seen := make(map[string]struct{}, total)
	merged := make([]domain.MediaItem, 0, total)
	for _, batch := range batches {
		for _, item := range batch {
			key := item.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, item)
		}
	}
	return merged
}
