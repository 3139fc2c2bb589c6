package indexer_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/reportoor/pkg/config"
	"github.com/ethpandaops/reportoor/pkg/indexer"
	"github.com/ethpandaops/reportoor/pkg/indexstore"
	"github.com/ethpandaops/reportoor/pkg/report"
	"github.com/ethpandaops/reportoor/pkg/storage"
)

const runningJSON = `{
  "title": "Nightly",
  "start_time": "2024-01-01T10:00:00Z",
  "suites": [{
    "name": "s",
    "tests": [
      {"name": "a", "status": "passed", "start_time": "2024-01-01T10:00:00Z", "end_time": "2024-01-01T10:00:01Z"},
      {"name": "b", "start_time": "2024-01-01T10:00:01Z"}
    ]
  }]
}`

func finished(js string) string {
	js = strings.Replace(js,
		`"start_time": "2024-01-01T10:00:00Z",`,
		`"start_time": "2024-01-01T10:00:00Z", "end_time": "2024-01-01T10:00:05Z",`, 1)

	return strings.Replace(js,
		`{"name": "b", "start_time": "2024-01-01T10:00:01Z"}`,
		`{"name": "b", "status": "passed", "start_time": "2024-01-01T10:00:01Z", "end_time": "2024-01-01T10:00:02Z"}`, 1)
}

func newLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return log
}

func setup(t *testing.T) (string, indexstore.Store, indexer.Indexer) {
	t.Helper()

	return setupWithLogger(t, newLogger())
}

func setupWithLogger(
	t *testing.T, log logrus.FieldLogger,
) (string, indexstore.Store, indexer.Indexer) {
	t.Helper()

	root := t.TempDir()

	store := indexstore.NewStore(newLogger(), &config.APIDatabaseConfig{
		Driver: config.DatabaseDriverSQLite,
		SQLite: config.SQLiteDatabaseConfig{Path: ":memory:"},
	})
	require.NoError(t, store.Start(context.Background()))
	t.Cleanup(func() { _ = store.Stop() })

	reader := storage.NewLocalReader(&config.APILocalStorageConfig{
		Enabled:        true,
		DiscoveryPaths: map[string]string{"nightly": root},
	})

	return root, store, indexer.NewIndexer(log, store, reader, time.Hour, 2)
}

func writeReport(t *testing.T, root, id, content string) {
	t.Helper()

	dir := filepath.Join(root, storage.ReportsDir, id)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, report.JSFilename),
		[]byte(report.JSPrefix+content), 0o600,
	))
}

func TestIndexer_RunPass(t *testing.T) {
	root, store, idx := setup(t)
	ctx := context.Background()

	writeReport(t, root, "r1", finished(runningJSON))
	writeReport(t, root, "r2", runningJSON)
	writeReport(t, root, "broken", `{"suites": []}`)

	idx.RunPass(ctx)

	reports, err := store.ListReports(ctx, "nightly")
	require.NoError(t, err)
	require.Len(t, reports, 2, "unparseable reports are skipped")

	byID := make(map[string]indexstore.Report, len(reports))
	for _, r := range reports {
		byID[r.ReportID] = r
	}

	r1 := byID["r1"]
	assert.Equal(t, "Nightly", r1.Title)
	assert.False(t, r1.InProgress)
	assert.True(t, r1.Successful)
	assert.Equal(t, 2, r1.TestsPassed)
	assert.Equal(t, (2 * time.Second).Nanoseconds(), r1.CumulativeDurationNs)
	assert.NotEmpty(t, r1.Size)
	assert.Nil(t, r1.ReindexedAt)

	r2 := byID["r2"]
	assert.True(t, r2.InProgress)
	assert.Equal(t, 1, r2.TestsPassed)
	assert.Equal(t, 2, r2.TestsTotal)
}

func TestIndexer_ReindexesIncomplete(t *testing.T) {
	root, store, idx := setup(t)
	ctx := context.Background()

	writeReport(t, root, "r1", runningJSON)
	idx.RunPass(ctx)

	incomplete, err := store.ListIncompleteReportIDs(ctx, "nightly")
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, incomplete)

	writeReport(t, root, "r1", finished(runningJSON))
	idx.RunPass(ctx)

	reports, err := store.ListReports(ctx, "nightly")
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.False(t, reports[0].InProgress)
	assert.Equal(t, 2, reports[0].TestsPassed)
	assert.NotNil(t, reports[0].ReindexedAt)

	incomplete, err = store.ListIncompleteReportIDs(ctx, "nightly")
	require.NoError(t, err)
	assert.Empty(t, incomplete)
}

func TestIndexer_InvalidReportWarnsOnce(t *testing.T) {
	log, hook := test.NewNullLogger()
	root, store, idx := setupWithLogger(t, log)
	ctx := context.Background()

	warnings := func() int {
		n := 0
		for _, e := range hook.AllEntries() {
			if e.Level == logrus.WarnLevel && e.Data["report_id"] == "broken" {
				n++
			}
		}

		return n
	}

	writeReport(t, root, "broken", `{"suites": []}`)

	idx.RunPass(ctx)
	idx.RunPass(ctx)
	assert.Equal(t, 1, warnings(), "unchanged invalid report is not retried")

	writeReport(t, root, "broken", `{"suites": [], "title": 1}`)
	idx.RunPass(ctx)
	assert.Equal(t, 2, warnings(), "changed report is parsed again")

	writeReport(t, root, "broken", finished(runningJSON))
	idx.RunPass(ctx)

	ids, err := store.ListReportIDs(ctx, "nightly")
	require.NoError(t, err)
	assert.Equal(t, []string{"broken"}, ids)
}

func TestIndexer_StartStop(t *testing.T) {
	root, store, idx := setup(t)

	writeReport(t, root, "r1", finished(runningJSON))

	require.NoError(t, idx.Start(context.Background()))

	assert.Eventually(t, func() bool {
		ids, err := store.ListReportIDs(context.Background(), "nightly")

		return err == nil && len(ids) == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, idx.Stop())
	require.NoError(t, idx.Stop(), "stop is idempotent")
}
