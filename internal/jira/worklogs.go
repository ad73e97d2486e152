package jira

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// WorklogResult holds the work-logs fetched per issue. Failed lists issues whose work-logs could
// not be read; they are absent from ByIssue.
type WorklogResult struct {
	ByIssue map[string][]WorklogDTO
	Failed  []string
}

// Count is the number of entries fetched across all issues.
func (r WorklogResult) Count() int {
	n := 0
	for _, w := range r.ByIssue {
		n += len(w)
	}
	return n
}

// FetchWorklogs reads the work-logs of every key in batches of batchSize parallel requests,
// sleeping pause between batches. A failing issue is recorded in Failed and does not abort the
// fetch; only context cancellation does. progress, when not nil, is called after every batch with
// the number of issues processed so far.
func FetchWorklogs(ctx context.Context, client Client, keys []string, batchSize int, pause time.Duration, progress func(done, total int)) (WorklogResult, error) {
	if batchSize <= 0 {
		batchSize = 5
	}
	result := WorklogResult{ByIssue: make(map[string][]WorklogDTO, len(keys))}
	var mu sync.Mutex
	done := 0

	for batch := range slices.Chunk(keys, batchSize) {
		g, gctx := errgroup.WithContext(ctx)
		for _, key := range batch {
			g.Go(func() error {
				worklogs, err := client.GetIssueWorklogs(gctx, key)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					log.Warn().Err(err).Str("issue", key).Msg("Worklog fetch failed, treating as no work logged")
					mu.Lock()
					result.Failed = append(result.Failed, key)
					mu.Unlock()
					return nil
				}
				mu.Lock()
				result.ByIssue[key] = worklogs
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return WorklogResult{}, err
		}
		done += len(batch)
		if progress != nil {
			progress(done, len(keys))
		}

		if pause > 0 && done < len(keys) {
			timer := time.NewTimer(pause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return WorklogResult{}, ctx.Err()
			case <-timer.C:
			}
		}
	}

	slices.Sort(result.Failed)
	log.Info().Int("issues", len(keys)).Int("entries", result.Count()).Int("failed", len(result.Failed)).Msg("Fetched worklogs")
	return result, nil
}
