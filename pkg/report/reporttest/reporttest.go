// Package reporttest provides report fixtures shared by package tests.
package reporttest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ethpandaops/reportoor/pkg/report"
)

// Base is the start time of the sample report.
var Base = time.Date(2019, time.May, 4, 22, 57, 8, 0, time.UTC)

// SampleJSON is a report exercising every node and entry kind: session
// hooks, suite hooks, a nested suite, an empty suite, all statuses
// (including in progress) and a step holding only a debug log.
const SampleJSON = `{
  "title": "Sample",
  "start_time": "2019-05-04T22:57:08.000Z",
  "end_time": "2019-05-04T22:57:20.000Z",
  "generation_time": "2019-05-04T22:57:20.100Z",
  "nb_threads": 1,
  "info": [["Command line", "lcc run"], ["Project version", "1.0"]],
  "test_session_setup": {
    "status": "passed",
    "start_time": "2019-05-04T22:57:08.000Z",
    "end_time": "2019-05-04T22:57:09.000Z",
    "steps": [{
      "description": "Setup session",
      "start_time": "2019-05-04T22:57:08.000Z",
      "end_time": "2019-05-04T22:57:09.000Z",
      "entries": [
        {"type": "log", "level": "info", "message": "starting", "time": "2019-05-04T22:57:08.100Z"}
      ]
    }]
  },
  "test_session_teardown": {
    "status": "passed",
    "start_time": "2019-05-04T22:57:19.000Z",
    "end_time": "2019-05-04T22:57:20.000Z",
    "steps": []
  },
  "suites": [
    {
      "name": "auth",
      "description": "Authentication",
      "tags": ["smoke"],
      "properties": {"priority": "high", "owner": "team-a"},
      "links": [{"url": "http://bugs/1", "name": "BUG-1"}, {"url": "http://docs"}],
      "suite_setup": {
        "status": "passed",
        "start_time": "2019-05-04T22:57:09.000Z",
        "end_time": "2019-05-04T22:57:09.500Z",
        "steps": []
      },
      "suite_teardown": {
        "status": "passed",
        "start_time": "2019-05-04T22:57:14.000Z",
        "end_time": "2019-05-04T22:57:14.200Z",
        "steps": []
      },
      "tests": [
        {
          "name": "login_flow",
          "description": "User login flow",
          "tags": ["ui"],
          "properties": {},
          "links": [],
          "status": "passed",
          "start_time": "2019-05-04T22:57:09.500Z",
          "end_time": "2019-05-04T22:57:11.000Z",
          "steps": [
            {
              "description": "Open page",
              "start_time": "2019-05-04T22:57:09.500Z",
              "end_time": "2019-05-04T22:57:10.000Z",
              "entries": [
                {"type": "log", "level": "debug", "message": "loading", "time": "2019-05-04T22:57:09.600Z"},
                {"type": "check", "description": "title is correct", "is_successful": true, "details": null}
              ]
            },
            {
              "description": "Submit",
              "start_time": "2019-05-04T22:57:10.000Z",
              "end_time": "2019-05-04T22:57:11.000Z",
              "entries": [
                {"type": "url", "url": "http://app/login", "description": "login page"},
                {"type": "attachment", "filename": "attachments/screen.png", "description": "screenshot", "as_image": true}
              ]
            }
          ]
        },
        {
          "name": "password_reset",
          "description": "Reset fails for locked account",
          "tags": [],
          "properties": {},
          "links": [],
          "status": "failed",
          "status_details": "boom",
          "start_time": "2019-05-04T22:57:11.000Z",
          "end_time": "2019-05-04T22:57:14.000Z",
          "steps": [
            {
              "description": "Reset",
              "start_time": "2019-05-04T22:57:11.000Z",
              "end_time": "2019-05-04T22:57:14.000Z",
              "entries": [
                {"type": "log", "level": "error", "message": "unexpected error", "time": "2019-05-04T22:57:12.000Z"},
                {"type": "check", "description": "value is 1", "is_successful": false, "details": "got 2"}
              ]
            }
          ]
        }
      ],
      "suites": [
        {
          "name": "session",
          "description": "Session",
          "tags": [],
          "properties": {},
          "links": [],
          "tests": [
            {
              "name": "keepalive",
              "description": "Keep alive",
              "tags": [],
              "properties": {},
              "links": [],
              "status": "skipped",
              "status_details": "not supported",
              "start_time": "2019-05-04T22:57:14.200Z",
              "end_time": "2019-05-04T22:57:14.300Z",
              "steps": []
            }
          ],
          "suites": []
        }
      ]
    },
    {
      "name": "empty",
      "description": "Empty suite",
      "tags": [],
      "properties": {},
      "links": [],
      "tests": [],
      "suites": []
    },
    {
      "name": "billing",
      "description": "Billing",
      "tags": [],
      "properties": {},
      "links": [],
      "tests": [
        {
          "name": "refund",
          "description": "Refund order",
          "tags": [],
          "properties": {},
          "links": [],
          "status": "disabled",
          "start_time": "2019-05-04T22:57:14.300Z",
          "end_time": "2019-05-04T22:57:14.300Z",
          "steps": []
        }
      ],
      "suites": [
        {
          "name": "invoices",
          "description": "Invoices",
          "tags": [],
          "properties": {},
          "links": [],
          "tests": [
            {
              "name": "create",
              "description": "Create invoice",
              "tags": [],
              "properties": {},
              "links": [],
              "status": null,
              "start_time": "2019-05-04T22:57:14.300Z",
              "end_time": null,
              "steps": [
                {
                  "description": "Create",
                  "start_time": "2019-05-04T22:57:14.300Z",
                  "end_time": null,
                  "entries": [
                    {"type": "log", "level": "debug", "message": "only debug", "time": "2019-05-04T22:57:14.400Z"}
                  ]
                }
              ]
            }
          ],
          "suites": []
        }
      ]
    }
  ]
}`

// Sample parses SampleJSON.
func Sample(t testing.TB) *report.Report {
	t.Helper()

	r, err := report.Parse([]byte(SampleJSON))
	require.NoError(t, err)

	return r
}

// At returns Base shifted by d.
func At(d time.Duration) time.Time {
	return Base.Add(d)
}

// AtPtr returns a pointer to Base shifted by d.
func AtPtr(d time.Duration) *time.Time {
	ts := At(d)

	return &ts
}

// NewTest returns a test of one second with the given status.
func NewTest(name string, status report.Status) *report.Test {
	return &report.Test{
		Node: report.Node{Name: name, Description: name},
		Result: report.Result{
			Status:    status,
			StartTime: At(0),
			EndTime:   AtPtr(time.Second),
		},
	}
}

// NewSuite returns a suite holding the given tests.
func NewSuite(name string, tests ...*report.Test) *report.Suite {
	return &report.Suite{
		Node:  report.Node{Name: name, Description: name},
		Tests: tests,
	}
}

// NewReport returns a single-threaded ten second report holding suites.
func NewReport(suites ...*report.Suite) *report.Report {
	return &report.Report{
		Title:     "Report",
		StartTime: At(0),
		EndTime:   AtPtr(10 * time.Second),
		NbThreads: 1,
		Suites:    suites,
	}
}
