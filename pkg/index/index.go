// Package index summarizes report directories into index entries, the
// data behind report listings and the generated index.json file.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/docker/go-units"

	"github.com/ethpandaops/reportoor/pkg/report"
	"github.com/ethpandaops/reportoor/pkg/stats"
	"github.com/ethpandaops/reportoor/pkg/tree"
)

// Filename is the name of the generated index file.
const Filename = "index.json"

// Index contains the aggregated index of all reports.
type Index struct {
	Generated int64    `json:"generated"`
	Entries   []*Entry `json:"entries"`
}

// Entry contains summary information for a single report.
type Entry struct {
	ReportID   string       `json:"report_id"`
	Title      string       `json:"title"`
	StartTime  int64        `json:"start_time"`
	EndTime    int64        `json:"end_time,omitempty"`
	DurationNs int64        `json:"duration_ns"`
	Tests      stats.Counts `json:"tests"`
	InProgress bool         `json:"in_progress"`
	Successful bool         `json:"successful"`
	SizeBytes  int64        `json:"size_bytes"`
	Size       string       `json:"size"`
}

// BuildEntry parses a report payload and summarizes it.
func BuildEntry(reportID string, data []byte) (*Entry, error) {
	r, err := report.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}

	idx := tree.New(r)

	entry := &Entry{
		ReportID:   reportID,
		Title:      r.DisplayTitle(),
		StartTime:  r.StartTime.Unix(),
		DurationNs: stats.CumulativeDuration(idx).Nanoseconds(),
		Tests:      stats.Compute(idx),
		InProgress: r.EndTime == nil,
		SizeBytes:  int64(len(data)),
		Size:       units.HumanSize(float64(len(data))),
	}

	if r.EndTime != nil {
		entry.EndTime = r.EndTime.Unix()
		entry.Successful = stats.IsSuccessful(idx)
	}

	return entry, nil
}

// Generate scans {root}/reports and builds an index of every report that
// parses. Unreadable reports are skipped.
func Generate(root string) (*Index, error) {
	reportsDir := filepath.Join(root, "reports")

	dirs, err := os.ReadDir(reportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return &Index{
				Generated: time.Now().Unix(),
				Entries:   make([]*Entry, 0),
			}, nil
		}

		return nil, fmt.Errorf("reading reports directory: %w", err)
	}

	entries := make([]*Entry, 0, len(dirs))

	for _, dir := range dirs {
		if !dir.IsDir() {
			continue
		}

		file, err := report.ResolvePath(filepath.Join(reportsDir, dir.Name()))
		if err != nil {
			continue
		}

		data, err := os.ReadFile(file) //nolint:gosec // path under reports dir
		if err != nil {
			continue
		}

		entry, err := BuildEntry(dir.Name(), data)
		if err != nil {
			continue
		}

		entries = append(entries, entry)
	}

	Sort(entries)

	return &Index{
		Generated: time.Now().Unix(),
		Entries:   entries,
	}, nil
}

// Sort orders entries newest first, ties broken by report ID.
func Sort(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].StartTime != entries[j].StartTime {
			return entries[i].StartTime > entries[j].StartTime
		}

		return entries[i].ReportID < entries[j].ReportID
	})
}

// Write writes the index as indented JSON to {root}/index.json.
func Write(root string, idx *Index) (string, error) {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling index: %w", err)
	}

	path := filepath.Join(root, Filename)

	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // public index file
		return "", fmt.Errorf("writing index file: %w", err)
	}

	return path, nil
}
