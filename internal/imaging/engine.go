// Package imaging implements the ImageEngine (C3, spec.md §4.3): a
// stateless transcoder built on libvips bindings that turns one source
// image into the original-plus-renditions a profile asks for.
package imaging

import (
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"

	"mediaforge/internal/profiles"
)

// Engine wraps a libvips worker pool. It must be started once per process
// via Startup and stopped via Shutdown; ImageRef operations are not
// otherwise safe to call concurrently with Shutdown.
type Engine struct {
	memoryLimitBytes int64
}

// Startup initializes the libvips runtime. Call once at process start,
// before any Engine method runs.
func Startup() {
	vips.Startup(&vips.Config{
		ReportLeaks: false,
	})
}

// Shutdown tears down the libvips runtime. Call once at process exit.
func Shutdown() {
	vips.Shutdown()
}

// NewEngine builds an Engine with the given memory guard limit in bytes
// (Unbounded disables it).
func NewEngine(memoryLimitBytes int64) *Engine {
	return &Engine{memoryLimitBytes: memoryLimitBytes}
}

// IsJpegSupported reports whether JPEG encode is available. JPEG is always
// emitted (spec.md §4.3), so this only guards against a broken libvips build.
func (e *Engine) IsJpegSupported() bool { return vips.IsTypeSupported(vips.ImageTypeJPEG) }

// IsWebpSupported reports whether this libvips build can encode WebP.
func (e *Engine) IsWebpSupported() bool { return vips.IsTypeSupported(vips.ImageTypeWEBP) }

// IsAvifSupported reports whether this libvips build can encode AVIF.
func (e *Engine) IsAvifSupported() bool { return vips.IsTypeSupported(vips.ImageTypeAVIF) }

// IsPngSupported reports whether this libvips build can encode PNG.
func (e *Engine) IsPngSupported() bool { return vips.IsTypeSupported(vips.ImageTypePNG) }

// DecodeFailed wraps a libvips decode error — malformed or unsupported
// source bytes (spec.md §4.3, §7). In ProcessAsset it counts as a failed
// attempt like any other error, so the worker retries it until retryMax.
type DecodeFailed struct{ Cause error }

func (e *DecodeFailed) Error() string { return fmt.Sprintf("decode image: %v", e.Cause) }
func (e *DecodeFailed) Unwrap() error  { return e.Cause }

// EncodeFailed wraps a libvips encode error.
type EncodeFailed struct {
	Codec profiles.Codec
	Cause error
}

func (e *EncodeFailed) Error() string {
	return fmt.Sprintf("encode %s: %v", e.Codec, e.Cause)
}
func (e *EncodeFailed) Unwrap() error { return e.Cause }

func whiteBackground() *vips.Color {
	return &vips.Color{R: 255, G: 255, B: 255}
}

func kernel() vips.Kernel { return vips.KernelLanczos3 }

func (e *Engine) decode(data []byte) (*vips.ImageRef, error) {
	ref, err := vips.NewImageFromBuffer(data)
	if err != nil {
		return nil, &DecodeFailed{Cause: err}
	}
	return ref, nil
}
