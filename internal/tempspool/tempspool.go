// Package tempspool implements TempSpool (C9, spec.md §4.9): a
// filesystem-backed handoff for async local uploads, used when enqueueLocal
// persists the bytes of an UPLOAD-sourced asset for a worker to pick up
// later. Grounded on the teacher's local-disk fallback in
// internal/storage/r2_client.go, generalized from a single flat directory
// into the date-bucketed layout spec.md requires.
package tempspool

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Spool writes and reclaims files under a root directory.
type Spool struct {
	root string
}

// New builds a Spool rooted at dir.
func New(dir string) *Spool {
	return &Spool{root: dir}
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = unsafeNameChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// datedDir returns {root}/YYYY/MM/DD for the given time.
func (s *Spool) datedDir(t time.Time) string {
	return filepath.Join(s.root,
		fmt.Sprintf("%04d", t.Year()),
		fmt.Sprintf("%02d", t.Month()),
		fmt.Sprintf("%02d", t.Day()),
	)
}

func (s *Spool) writeUnder(dir, filename string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("tempspool: create dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("tempspool: write %s: %w", path, err)
	}
	return path, nil
}

// SaveUpload writes bytes under the dated layout using the caller-supplied
// original filename (sanitized), prefixed with a timestamp and random
// suffix so concurrent uploads never collide.
func (s *Spool) SaveUpload(data []byte, name string) (string, error) {
	suffix, err := randomHex(4)
	if err != nil {
		return "", fmt.Errorf("tempspool: generate suffix: %w", err)
	}
	now := time.Now()
	filename := fmt.Sprintf("%d_%s_%s", now.Unix(), suffix, sanitizeName(name))
	return s.writeUnder(s.datedDir(now), filename, data)
}

// SaveBytes is SaveUpload's counterpart for callers that only know the file
// extension (e.g. a re-encoded buffer with no original filename).
func (s *Spool) SaveBytes(data []byte, ext string) (string, error) {
	ext = strings.TrimPrefix(ext, ".")
	suffix, err := randomHex(4)
	if err != nil {
		return "", fmt.Errorf("tempspool: generate suffix: %w", err)
	}
	now := time.Now()
	name := fmt.Sprintf("spool.%s", ext)
	if ext == "" {
		name = "spool"
	}
	filename := fmt.Sprintf("%d_%s_%s", now.Unix(), suffix, name)
	return s.writeUnder(s.datedDir(now), filename, data)
}

// Delete removes a spooled file. Errors are swallowed (spec.md §4.9): a
// failed cleanup of a temp file is never allowed to fail the caller's
// otherwise-successful operation.
func (s *Spool) Delete(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("tempspool: delete failed", "path", path, "error", err)
	}
}

// Cleanup walks the spool tree removing files older than olderThanHours and
// best-effort removing directories left empty by that sweep. Individual
// failures are logged, not fatal; it returns how many files were deleted.
func (s *Spool) Cleanup(olderThanHours int) int {
	cutoff := time.Now().Add(-time.Duration(olderThanHours) * time.Hour)
	deleted := 0
	var dirs []string

	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			slog.Warn("tempspool: walk error", "path", path, "error", err)
			return nil
		}
		if info.IsDir() {
			if path != s.root {
				dirs = append(dirs, path)
			}
			return nil
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				slog.Warn("tempspool: cleanup delete failed", "path", path, "error", err)
				return nil
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		slog.Warn("tempspool: cleanup walk failed", "root", s.root, "error", err)
		return deleted
	}

	// Remove directories deepest-first so a sweep can empty a whole subtree.
	for i := len(dirs) - 1; i >= 0; i-- {
		os.Remove(dirs[i])
	}

	return deleted
}
