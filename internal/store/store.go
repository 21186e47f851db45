// Package store maps registry entities to their line-oriented backing files:
// one record per semicolon- or pipe-delimited line, full-file rewrites on
// save, appends for add-one flows, linear ID scans for lookup.
//
// Load is per-line tolerant: a malformed or unresolvable line is logged,
// counted and skipped, never aborting the rest of the file. Saves rewrite
// atomically (temp file + rename) so a crash never leaves a half-written
// file behind. The design assumes a single in-process caller; there is no
// cross-process locking.
package store

import (
	"os"
	"path/filepath"
	"strings"
)

// Entity kind labels used in logs and metrics.
const (
	KindPatient     = "patient"
	KindDonor       = "donor"
	KindAppointment = "appointment"
	KindTransplant  = "transplant"
)

// readLines returns the file's non-empty lines. A missing file is an empty
// collection, not an error.
func readLines(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimRight(line, "\r"))
		}
	}
	return lines, nil
}

// rewriteLines replaces the file's contents with the given records, one per
// newline-terminated line, via a temp file in the same directory.
func rewriteLines(path string, lines []string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	if _, err := tmp.WriteString(sb.String()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// appendLine adds one newline-terminated record to the end of the file,
// creating it if needed.
func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
