package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// JSPrefix wraps the report payload in the report.js form loaded by the
// HTML viewer.
const JSPrefix = "var reporting_data = "

// Report file names looked up in a report directory, in order.
const (
	JSFilename   = "report.js"
	JSONFilename = "report.json"
)

// ErrReportNotFound is returned when a directory holds no report file.
var ErrReportNotFound = errors.New("report file not found")

// Parse decodes and validates a report payload, in plain JSON or report.js
// form. On validation failure the error is a *ValidationError.
func Parse(data []byte) (*Report, error) {
	payload := StripJSPrefix(data)

	var r Report

	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(&r); err != nil {
		return nil, decodeError(err)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}

	r.raw = data

	return &r, nil
}

// Load reads a report from a file, or from the report.js/report.json file
// of a report directory.
func Load(path string) (*Report, error) {
	file, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(file) //nolint:gosec // user supplied report path
	if err != nil {
		return nil, fmt.Errorf("reading report file: %w", err)
	}

	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", file, err)
	}

	return r, nil
}

// ResolvePath returns the report file for path. A directory is searched
// for report.js then report.json.
func ResolvePath(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat report path: %w", err)
	}

	if !info.IsDir() {
		return path, nil
	}

	for _, name := range []string{JSFilename, JSONFilename} {
		candidate := filepath.Join(path, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w in %s", ErrReportNotFound, path)
}

// StripJSPrefix removes the report.js wrapper, if any, and returns the bare
// JSON payload.
func StripJSPrefix(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if !bytes.HasPrefix(trimmed, []byte(JSPrefix)) {
		return trimmed
	}

	trimmed = bytes.TrimPrefix(trimmed, []byte(JSPrefix))
	trimmed = bytes.TrimSpace(trimmed)

	return bytes.TrimSuffix(trimmed, []byte(";"))
}

// JS returns the report payload in report.js form. A payload that was
// already wrapped is returned unchanged.
func (r *Report) JS() []byte {
	if bytes.HasPrefix(bytes.TrimSpace(r.raw), []byte(JSPrefix)) {
		return r.raw
	}

	out := make([]byte, 0, len(JSPrefix)+len(r.raw))
	out = append(out, JSPrefix...)

	return append(out, bytes.TrimSpace(r.raw)...)
}

// JSON returns the bare JSON payload the report was parsed from.
func (r *Report) JSON() []byte {
	return StripJSPrefix(r.raw)
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return &ValidationError{Problems: []Problem{{
			Location: typeErr.Field,
			Message: fmt.Sprintf("expected %s, got JSON %s",
				typeErr.Type, typeErr.Value),
		}}}
	}

	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &ValidationError{Problems: []Problem{{
			Location: fmt.Sprintf("offset %d", syntaxErr.Offset),
			Message:  syntaxErr.Error(),
		}}}
	}

	return &ValidationError{Problems: []Problem{{Message: err.Error()}}}
}
