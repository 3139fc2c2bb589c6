package indexstore

import "time"

// Report is a single indexed report in the database.
type Report struct {
	ID            uint   `gorm:"primaryKey"`
	DiscoveryPath string `gorm:"not null;uniqueIndex:idx_reports_dp_report"`
	ReportID      string `gorm:"not null;uniqueIndex:idx_reports_dp_report"`
	Title         string

	// Unix seconds. EndTime is zero while the session is running.
	StartTime int64 `gorm:"index"`
	EndTime   int64

	// Nanoseconds summed over every row with a known end.
	CumulativeDurationNs int64

	// Denormalized test counts.
	TestsTotal    int
	TestsPassed   int
	TestsFailed   int
	TestsSkipped  int
	TestsDisabled int

	InProgress bool
	Successful bool

	SizeBytes int64
	Size      string

	IndexedAt   time.Time
	ReindexedAt *time.Time
}
