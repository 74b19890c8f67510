package imaging

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// Unbounded disables the memory guard (spec.md §4.3 "skip the check if the
// limit is unbounded").
const Unbounded int64 = -1

// bytesPerPixelEstimate is spec.md §4.3's decode-cost estimate: width *
// height * 5 bytes, a rough upper bound for an RGBA buffer plus working
// headroom during libvips pipeline execution.
const bytesPerPixelEstimate = 5

// ParseMemoryLimit parses a K/M/G-suffixed memory limit (factor 1024, case
// insensitive) such as "512M" or "2G". An empty string, "0", or "unbounded"
// disables the guard.
func ParseMemoryLimit(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "unbounded") || s == "0" {
		return Unbounded, nil
	}

	suffix := s[len(s)-1]
	factor := int64(1)
	numPart := s
	switch suffix {
	case 'k', 'K':
		factor = 1024
		numPart = s[:len(s)-1]
	case 'm', 'M':
		factor = 1024 * 1024
		numPart = s[:len(s)-1]
	case 'g', 'G':
		factor = 1024 * 1024 * 1024
		numPart = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(strings.TrimSpace(numPart), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse memory limit %q: %w", raw, err)
	}
	return n * factor, nil
}

// InsufficientMemory is returned when decoding srcW×srcH would exceed the
// configured memory limit (spec.md §4.3, §7). In ProcessAsset it counts as a
// failed attempt like any other error, so the worker retries it until
// retryMax.
type InsufficientMemory struct {
	EstimatedBytes int64
	LimitBytes     int64
}

func (e *InsufficientMemory) Error() string {
	return fmt.Sprintf("estimated decode cost %d bytes exceeds limit %d bytes", e.EstimatedBytes, e.LimitBytes)
}

// checkMemory estimates the decode cost of a srcW×srcH image and compares it
// against the configured limit minus whatever the process already has
// allocated. A limit of Unbounded always passes.
func (e *Engine) checkMemory(srcW, srcH int) error {
	if e.memoryLimitBytes == Unbounded {
		return nil
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	available := e.memoryLimitBytes - int64(mem.Alloc)
	if available < 0 {
		available = 0
	}

	estimate := int64(srcW) * int64(srcH) * bytesPerPixelEstimate
	if estimate > available {
		return &InsufficientMemory{EstimatedBytes: estimate, LimitBytes: e.memoryLimitBytes}
	}
	return nil
}
