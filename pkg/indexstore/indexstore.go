// Package indexstore persists the summary of every discovered report so
// listings do not have to parse report files.
package indexstore

import (
	"context"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/ethpandaops/reportoor/pkg/config"
)

// Store provides persistence for the indexed reports.
type Store interface {
	Start(ctx context.Context) error
	Stop() error

	UpsertReport(ctx context.Context, r *Report) error
	ListReports(ctx context.Context, discoveryPath string) ([]Report, error)
	ListReportIDs(ctx context.Context, discoveryPath string) ([]string, error)
	ListIncompleteReportIDs(
		ctx context.Context, discoveryPath string,
	) ([]string, error)

	ListAllReports(ctx context.Context) ([]Report, error)
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.APIDatabaseConfig
	db  *gorm.DB
}

// NewStore creates a new index Store backed by the configured database driver.
func NewStore(
	log logrus.FieldLogger,
	cfg *config.APIDatabaseConfig,
) Store {
	return &store{
		log: log.WithField("component", "indexstore"),
		cfg: cfg,
	}
}

// Start opens the database connection and runs migrations.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	gormCfg := &gorm.Config{
		Logger: logger.Discard,
	}

	switch s.cfg.Driver {
	case config.DatabaseDriverSQLite:
		dialector = sqlite.Open(s.cfg.SQLite.Path)
	case config.DatabaseDriverPostgres:
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			s.cfg.Postgres.Host,
			s.cfg.Postgres.Port,
			s.cfg.Postgres.User,
			s.cfg.Postgres.Password,
			s.cfg.Postgres.Database,
			s.cfg.Postgres.SSLMode,
		)
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return fmt.Errorf("opening index database: %w", err)
	}

	s.db = db

	if s.cfg.Driver == config.DatabaseDriverSQLite {
		// One connection: SQLite serializes writers and every ":memory:"
		// connection is a separate database.
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("getting underlying db: %w", err)
		}

		sqlDB.SetMaxOpenConns(1)
	}

	if err := s.db.WithContext(ctx).AutoMigrate(&Report{}); err != nil {
		return fmt.Errorf("running index migrations: %w", err)
	}

	s.log.WithField("driver", s.cfg.Driver).
		Info("Index database connected")

	return nil
}

// Stop closes the underlying database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.Close()
}

// UpsertReport inserts or updates a report keyed by discovery_path +
// report_id. Every column is overwritten, zero values included, since a
// report leaves the in progress state on a later pass.
func (s *store) UpsertReport(ctx context.Context, r *Report) error {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "discovery_path"},
				{Name: "report_id"},
			},
			UpdateAll: true,
		}).
		Create(r)
	if result.Error != nil {
		return fmt.Errorf("upserting report: %w", result.Error)
	}

	return nil
}

// ListReports returns the reports of a discovery path, newest first.
func (s *store) ListReports(
	ctx context.Context, discoveryPath string,
) ([]Report, error) {
	var reports []Report
	if err := s.db.WithContext(ctx).
		Where("discovery_path = ?", discoveryPath).
		Order("start_time DESC").
		Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	return reports, nil
}

// ListAllReports returns the reports of every discovery path, newest first.
func (s *store) ListAllReports(ctx context.Context) ([]Report, error) {
	var reports []Report
	if err := s.db.WithContext(ctx).
		Order("start_time DESC").
		Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("listing all reports: %w", err)
	}

	return reports, nil
}

// ListReportIDs returns just the report IDs for a given discovery path.
func (s *store) ListReportIDs(
	ctx context.Context, discoveryPath string,
) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&Report{}).
		Where("discovery_path = ?", discoveryPath).
		Pluck("report_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("listing report ids: %w", err)
	}

	return ids, nil
}

// ListIncompleteReportIDs returns the IDs of reports whose session was
// still running when last indexed.
func (s *store) ListIncompleteReportIDs(
	ctx context.Context, discoveryPath string,
) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&Report{}).
		Where("discovery_path = ? AND in_progress = ?", discoveryPath, true).
		Pluck("report_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("listing incomplete report ids: %w", err)
	}

	return ids, nil
}
