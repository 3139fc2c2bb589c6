// Package indexer keeps the index store in sync with the reports found in
// storage.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ethpandaops/reportoor/pkg/index"
	"github.com/ethpandaops/reportoor/pkg/indexstore"
	"github.com/ethpandaops/reportoor/pkg/storage"
)

// defaultConcurrency is the number of reports indexed in parallel when
// no explicit concurrency value is configured.
const defaultConcurrency = 4

// errUnchangedInvalid is returned for a report that failed to parse on an
// earlier pass and has not changed since.
var errUnchangedInvalid = errors.New("report unchanged since last parse failure")

// Indexer is a background service that periodically scans storage
// and upserts report summaries into the index store.
type Indexer interface {
	Start(ctx context.Context) error
	Stop() error

	// RunPass executes one indexing pass synchronously.
	RunPass(ctx context.Context)
}

// Compile-time interface check.
var _ Indexer = (*indexer)(nil)

type indexer struct {
	log         logrus.FieldLogger
	store       indexstore.Store
	reader      storage.Reader
	interval    time.Duration
	concurrency int
	done        chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
	dbMu        sync.Mutex // serializes DB writes to avoid SQLite contention

	// invalid maps discovery path/report id to the fingerprint of report
	// data that failed to parse.
	invalidMu sync.Mutex
	invalid   map[string]uint64
}

// NewIndexer creates a new background indexer.
func NewIndexer(
	log logrus.FieldLogger,
	store indexstore.Store,
	reader storage.Reader,
	interval time.Duration,
	concurrency int,
) Indexer {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	return &indexer{
		log:         log.WithField("component", "indexer"),
		store:       store,
		reader:      reader,
		interval:    interval,
		concurrency: concurrency,
		done:        make(chan struct{}),
		invalid:     make(map[string]uint64),
	}
}

// Start launches a background goroutine that runs an immediate indexing
// pass and then ticks at the configured interval. The first pass is
// asynchronous so the caller (the API server) is not blocked.
func (idx *indexer) Start(ctx context.Context) error {
	idx.log.WithFields(logrus.Fields{
		"interval":    idx.interval.String(),
		"concurrency": idx.concurrency,
	}).Info("Starting indexer")

	idx.wg.Add(1)

	go func() {
		defer idx.wg.Done()

		idx.RunPass(ctx)

		ticker := time.NewTicker(idx.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				idx.RunPass(ctx)
			case <-idx.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop signals the indexer goroutine to stop and waits for it.
func (idx *indexer) Stop() error {
	idx.stopOnce.Do(func() { close(idx.done) })
	idx.wg.Wait()

	idx.log.Info("Indexer stopped")

	return nil
}

// RunPass executes one full indexing pass across all discovery paths.
func (idx *indexer) RunPass(ctx context.Context) {
	start := time.Now()
	paths := idx.reader.DiscoveryPaths()

	idx.log.WithField("discovery_paths", len(paths)).
		Debug("Indexing pass started")

	for _, dp := range paths {
		select {
		case <-ctx.Done():
			return
		case <-idx.done:
			return
		default:
		}

		if err := idx.indexDiscoveryPath(ctx, dp); err != nil {
			idx.log.WithError(err).
				WithField("discovery_path", dp).
				Warn("Indexing pass failed for discovery path")
		}
	}

	idx.log.WithField("duration", time.Since(start).Round(time.Millisecond)).
		Debug("Indexing pass completed")
}

type reportTask struct {
	reportID       string
	alreadyIndexed bool
}

// pendingTasks returns the reports of dp that are new to the index or that
// were still running when last indexed.
func (idx *indexer) pendingTasks(
	ctx context.Context, dp string,
) ([]reportTask, error) {
	storageIDs, err := idx.reader.ListReportIDs(ctx, dp)
	if err != nil {
		return nil, fmt.Errorf("listing storage report IDs: %w", err)
	}

	indexedIDs, err := idx.store.ListReportIDs(ctx, dp)
	if err != nil {
		return nil, fmt.Errorf("listing indexed report IDs: %w", err)
	}

	incompleteIDs, err := idx.store.ListIncompleteReportIDs(ctx, dp)
	if err != nil {
		return nil, fmt.Errorf("listing incomplete report IDs: %w", err)
	}

	indexedSet := make(map[string]struct{}, len(indexedIDs))
	for _, id := range indexedIDs {
		indexedSet[id] = struct{}{}
	}

	incompleteSet := make(map[string]struct{}, len(incompleteIDs))
	for _, id := range incompleteIDs {
		incompleteSet[id] = struct{}{}
	}

	var tasks []reportTask

	for _, id := range storageIDs {
		_, alreadyIndexed := indexedSet[id]
		_, isIncomplete := incompleteSet[id]

		if alreadyIndexed && !isIncomplete {
			continue
		}

		tasks = append(tasks, reportTask{
			reportID:       id,
			alreadyIndexed: alreadyIndexed,
		})
	}

	idx.log.WithFields(logrus.Fields{
		"discovery_path":     dp,
		"storage_reports":    len(storageIDs),
		"indexed_reports":    len(indexedIDs),
		"incomplete_reports": len(incompleteIDs),
		"pending":            len(tasks),
	}).Debug("Scanning discovery path")

	return tasks, nil
}

// indexDiscoveryPath indexes the pending reports of a discovery path with
// a bounded worker pool.
func (idx *indexer) indexDiscoveryPath(
	ctx context.Context, dp string,
) error {
	tasks, err := idx.pendingTasks(ctx, dp)
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		return nil
	}

	dpLog := idx.log.WithField("discovery_path", dp)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(idx.concurrency)

	var indexed atomic.Int64

	for _, task := range tasks {
		g.Go(func() error {
			select {
			case <-gCtx.Done():
				return gCtx.Err()
			case <-idx.done:
				return nil
			default:
			}

			err := idx.indexReport(gCtx, dp, task.reportID, task.alreadyIndexed)
			if errors.Is(err, errUnchangedInvalid) {
				return nil
			}

			if err != nil {
				dpLog.WithError(err).
					WithField("report_id", task.reportID).
					Warn("Failed to index report")

				return nil //nolint:nilerr // log and continue
			}

			action := "indexed"
			if task.alreadyIndexed {
				action = "reindexed"
			}

			dpLog.WithField("report_id", task.reportID).
				WithField("action", action).
				Debug("Indexed report")

			indexed.Add(1)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("indexing reports: %w", err)
	}

	if count := indexed.Load(); count > 0 {
		dpLog.WithField("count", count).
			Info("Discovery path indexing complete")
	}

	return nil
}

// indexReport reads and summarizes a report, then upserts it.
func (idx *indexer) indexReport(
	ctx context.Context, dp, reportID string, isReindex bool,
) error {
	data, err := storage.ReadReport(ctx, idx.reader, dp, reportID)
	if err != nil {
		return fmt.Errorf("reading report: %w", err)
	}

	key := dp + "/" + reportID
	sum := fingerprint(data)

	if idx.knownInvalid(key, sum) {
		return errUnchangedInvalid
	}

	entry, err := index.BuildEntry(reportID, data)
	if err != nil {
		idx.setInvalid(key, sum, true)

		return fmt.Errorf("building index entry: %w", err)
	}

	idx.setInvalid(key, sum, false)

	now := time.Now().UTC()

	row := &indexstore.Report{
		DiscoveryPath:        dp,
		ReportID:             reportID,
		Title:                entry.Title,
		StartTime:            entry.StartTime,
		EndTime:              entry.EndTime,
		CumulativeDurationNs: entry.DurationNs,
		TestsTotal:           entry.Tests.Total,
		TestsPassed:          entry.Tests.Passed,
		TestsFailed:          entry.Tests.Failed,
		TestsSkipped:         entry.Tests.Skipped,
		TestsDisabled:        entry.Tests.Disabled,
		InProgress:           entry.InProgress,
		Successful:           entry.Successful,
		SizeBytes:            entry.SizeBytes,
		Size:                 entry.Size,
		IndexedAt:            now,
	}

	if isReindex {
		row.ReindexedAt = &now
	}

	// Serialize DB writes to avoid SQLite BUSY errors under concurrency.
	idx.dbMu.Lock()
	defer idx.dbMu.Unlock()

	if err := idx.store.UpsertReport(ctx, row); err != nil {
		return fmt.Errorf("upserting report: %w", err)
	}

	return nil
}

func fingerprint(data []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(data)

	return h.Sum64()
}

func (idx *indexer) knownInvalid(key string, sum uint64) bool {
	idx.invalidMu.Lock()
	defer idx.invalidMu.Unlock()

	prev, ok := idx.invalid[key]

	return ok && prev == sum
}

func (idx *indexer) setInvalid(key string, sum uint64, invalid bool) {
	idx.invalidMu.Lock()
	defer idx.invalidMu.Unlock()

	if invalid {
		idx.invalid[key] = sum
	} else {
		delete(idx.invalid, key)
	}
}
