package indexstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/reportoor/pkg/config"
	"github.com/ethpandaops/reportoor/pkg/indexstore"
)

func setupTestStore(t *testing.T) indexstore.Store {
	t.Helper()

	cfg := &config.APIDatabaseConfig{
		Driver: config.DatabaseDriverSQLite,
		SQLite: config.SQLiteDatabaseConfig{Path: ":memory:"},
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	s := indexstore.NewStore(log, cfg)
	require.NoError(t, s.Start(context.Background()))

	t.Cleanup(func() { _ = s.Stop() })

	return s
}

func TestStore_UnsupportedDriver(t *testing.T) {
	s := indexstore.NewStore(logrus.New(), &config.APIDatabaseConfig{Driver: "mysql"})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
	assert.NoError(t, s.Stop())
}

func TestStore_UpsertAndListReports(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	now := time.Now().Unix()

	reportA := &indexstore.Report{
		DiscoveryPath: "nightly",
		ReportID:      "2024-01-01",
		Title:         "Nightly",
		StartTime:     now,
		EndTime:       now + 30,
		TestsTotal:    3,
		TestsPassed:   3,
		Successful:    true,
	}
	reportB := &indexstore.Report{
		DiscoveryPath: "pr",
		ReportID:      "pr-42",
		StartTime:     now + 1,
		InProgress:    true,
	}
	reportC := &indexstore.Report{
		DiscoveryPath: "nightly",
		ReportID:      "2024-01-02",
		StartTime:     now + 2,
	}

	require.NoError(t, s.UpsertReport(ctx, reportA))
	require.NoError(t, s.UpsertReport(ctx, reportB))
	require.NoError(t, s.UpsertReport(ctx, reportC))

	// ListReports filters by discovery path, newest first.
	nightly, err := s.ListReports(ctx, "nightly")
	require.NoError(t, err)
	require.Len(t, nightly, 2)
	assert.Equal(t, "2024-01-02", nightly[0].ReportID)
	assert.Equal(t, "2024-01-01", nightly[1].ReportID)
	assert.Equal(t, "Nightly", nightly[1].Title)
	assert.True(t, nightly[1].Successful)

	all, err := s.ListAllReports(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "2024-01-02", all[0].ReportID)
	assert.Equal(t, "pr-42", all[1].ReportID)
}

func TestStore_UpsertReportOverwrites(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	running := &indexstore.Report{
		DiscoveryPath: "nightly",
		ReportID:      "r1",
		TestsTotal:    5,
		TestsPassed:   2,
		InProgress:    true,
	}
	require.NoError(t, s.UpsertReport(ctx, running))

	done := &indexstore.Report{
		DiscoveryPath: "nightly",
		ReportID:      "r1",
		TestsTotal:    5,
		TestsPassed:   4,
		TestsFailed:   1,
		InProgress:    false,
		Size:          "1.2kB",
	}
	require.NoError(t, s.UpsertReport(ctx, done))

	reports, err := s.ListReports(ctx, "nightly")
	require.NoError(t, err)
	require.Len(t, reports, 1, "upsert must not duplicate the row")

	assert.Equal(t, 4, reports[0].TestsPassed)
	assert.Equal(t, 1, reports[0].TestsFailed)
	assert.False(t, reports[0].InProgress)
	assert.Equal(t, "1.2kB", reports[0].Size)
}

func TestStore_ListReportIDs(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	reports := []indexstore.Report{
		{DiscoveryPath: "dp/ids", ReportID: "aaa"},
		{DiscoveryPath: "dp/ids", ReportID: "bbb", InProgress: true},
		{DiscoveryPath: "dp/other", ReportID: "ccc"},
	}
	for i := range reports {
		require.NoError(t, s.UpsertReport(ctx, &reports[i]))
	}

	ids, err := s.ListReportIDs(ctx, "dp/ids")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"aaa", "bbb"}, ids)

	otherIDs, err := s.ListReportIDs(ctx, "dp/other")
	require.NoError(t, err)
	assert.Equal(t, []string{"ccc"}, otherIDs)

	none, err := s.ListReportIDs(ctx, "dp/missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_ListIncompleteReportIDs(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	reports := []indexstore.Report{
		{DiscoveryPath: "dp", ReportID: "running", InProgress: true},
		{DiscoveryPath: "dp", ReportID: "finished"},
		{DiscoveryPath: "other", ReportID: "elsewhere", InProgress: true},
	}
	for i := range reports {
		require.NoError(t, s.UpsertReport(ctx, &reports[i]))
	}

	ids, err := s.ListIncompleteReportIDs(ctx, "dp")
	require.NoError(t, err)
	assert.Equal(t, []string{"running"}, ids)
}
