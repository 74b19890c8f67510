package imaging

import (
	"github.com/davidbyttow/govips/v2/vips"

	"mediaforge/internal/profiles"
)

// Qualities carries the per-codec quality knobs spec.md §4.3 defaults to
// JPEG=82, everything else=80 (PNG maps its slot through
// pngCompressionLevel rather than using it directly as a quality).
type Qualities struct {
	JPEG int
	Alt  int
}

// DefaultQualities returns spec.md §4.3's default quality set.
func DefaultQualities() Qualities {
	return Qualities{JPEG: 82, Alt: 80}
}

func (q Qualities) forCodec(c profiles.Codec) int {
	if c == profiles.CodecJPEG {
		return q.JPEG
	}
	return q.Alt
}

// OriginalResult is the output of RenderOriginal: the (possibly downscaled)
// original, encoded once per requested codec.
type OriginalResult struct {
	Width  int
	Height int
	Bodies map[profiles.Codec][]byte
}

// RenderOriginal decodes data, downscales it (never enlarges) so its long
// edge is at most maxLongEdge, and encodes it into every codec in codecs
// that this libvips build supports. JPEG is always included regardless of
// whether it appears in codecs, since spec.md §4.3 requires it unconditionally.
func (e *Engine) RenderOriginal(data []byte, maxLongEdge int, codecs []profiles.Codec, q Qualities) (*OriginalResult, error) {
	ref, err := e.decode(data)
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	if err := e.checkMemory(ref.Width(), ref.Height()); err != nil {
		return nil, err
	}

	if maxLongEdge > 0 {
		scale := originalScale(ref.Width(), ref.Height(), maxLongEdge)
		if scale < 1 {
			if err := ref.Resize(scale, kernel()); err != nil {
				return nil, &EncodeFailed{Cause: err}
			}
		}
	}

	want := map[profiles.Codec]bool{profiles.CodecJPEG: true}
	for _, c := range codecs {
		want[c] = true
	}

	bodies := make(map[profiles.Codec][]byte, len(want))

	// Alpha-preserving codecs first: encoding does not mutate ref, so JPEG's
	// destructive flatten (below) can safely run last.
	if want[profiles.CodecWebP] && e.IsWebpSupported() {
		body, err := encodeWebp(ref, q.forCodec(profiles.CodecWebP))
		if err != nil {
			return nil, err
		}
		bodies[profiles.CodecWebP] = body
	}
	if want[profiles.CodecAVIF] && e.IsAvifSupported() {
		body, err := encodeAvif(ref, q.forCodec(profiles.CodecAVIF))
		if err != nil {
			return nil, err
		}
		bodies[profiles.CodecAVIF] = body
	}
	if want[profiles.CodecPNG] && e.IsPngSupported() {
		body, err := encodePng(ref, q.forCodec(profiles.CodecPNG))
		if err != nil {
			return nil, err
		}
		bodies[profiles.CodecPNG] = body
	}

	if err := flattenForJpeg(ref); err != nil {
		return nil, err
	}
	jpegBody, err := encodeJpeg(ref, q.forCodec(profiles.CodecJPEG))
	if err != nil {
		return nil, err
	}
	bodies[profiles.CodecJPEG] = jpegBody

	return &OriginalResult{Width: ref.Width(), Height: ref.Height(), Bodies: bodies}, nil
}

// VariantResult is the output of RenderVariant: one codec's rendition of
// one variant geometry.
type VariantResult struct {
	Width  int
	Height int
	Body   []byte
}

// RenderVariant decodes data fresh, applies the variant's COVER or CONTAIN
// geometry (never enlarging past the source), and encodes the single
// requested codec. Each call decodes independently so a destructive
// operation for one codec (JPEG's alpha flatten) never leaks into another.
func (e *Engine) RenderVariant(data []byte, v profiles.VariantDef, codec profiles.Codec, q Qualities) (*VariantResult, error) {
	ref, err := e.decode(data)
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	srcW, srcH := ref.Width(), ref.Height()
	if err := e.checkMemory(srcW, srcH); err != nil {
		return nil, err
	}

	targetW, targetH := clampNoUpscale(v.TargetW, v.TargetH, srcW, srcH)

	switch v.Fit {
	case profiles.FitCover:
		crop := coverCrop(srcW, srcH, targetW, targetH)
		if err := ref.ExtractArea(crop.Left, crop.Top, crop.Width, crop.Height); err != nil {
			return nil, &EncodeFailed{Codec: codec, Cause: err}
		}
		scale := float64(targetW) / float64(crop.Width)
		if scale != 1 {
			if err := ref.Resize(scale, kernel()); err != nil {
				return nil, &EncodeFailed{Codec: codec, Cause: err}
			}
		}
	default: // FitContain
		scale := containScale(srcW, srcH, targetW, targetH)
		if scale < 1 {
			if err := ref.Resize(scale, kernel()); err != nil {
				return nil, &EncodeFailed{Codec: codec, Cause: err}
			}
		}
	}

	if codec == profiles.CodecJPEG {
		if err := flattenForJpeg(ref); err != nil {
			return nil, err
		}
	}

	body, err := encodeOne(ref, codec, q.forCodec(codec))
	if err != nil {
		return nil, err
	}

	return &VariantResult{Width: ref.Width(), Height: ref.Height(), Body: body}, nil
}

func flattenForJpeg(ref *vips.ImageRef) error {
	if !ref.HasAlpha() {
		return nil
	}
	if err := ref.Flatten(whiteBackground()); err != nil {
		return &EncodeFailed{Codec: profiles.CodecJPEG, Cause: err}
	}
	return nil
}

func encodeOne(ref *vips.ImageRef, codec profiles.Codec, quality int) ([]byte, error) {
	switch codec {
	case profiles.CodecJPEG:
		return encodeJpeg(ref, quality)
	case profiles.CodecWebP:
		return encodeWebp(ref, quality)
	case profiles.CodecAVIF:
		return encodeAvif(ref, quality)
	case profiles.CodecPNG:
		return encodePng(ref, quality)
	default:
		return nil, &EncodeFailed{Codec: codec, Cause: errUnknownCodec(codec)}
	}
}

type errUnknownCodec profiles.Codec

func (e errUnknownCodec) Error() string { return "unknown codec: " + string(e) }

func encodeJpeg(ref *vips.ImageRef, quality int) ([]byte, error) {
	params := vips.NewJpegExportParams()
	params.Quality = quality
	params.Interlace = true
	body, _, err := ref.ExportJpeg(params)
	if err != nil {
		return nil, &EncodeFailed{Codec: profiles.CodecJPEG, Cause: err}
	}
	return body, nil
}

func encodeWebp(ref *vips.ImageRef, quality int) ([]byte, error) {
	params := vips.NewWebpExportParams()
	params.Quality = quality
	body, _, err := ref.ExportWebp(params)
	if err != nil {
		return nil, &EncodeFailed{Codec: profiles.CodecWebP, Cause: err}
	}
	return body, nil
}

func encodeAvif(ref *vips.ImageRef, quality int) ([]byte, error) {
	params := vips.NewAvifExportParams()
	params.Quality = quality
	body, _, err := ref.ExportAvif(params)
	if err != nil {
		return nil, &EncodeFailed{Codec: profiles.CodecAVIF, Cause: err}
	}
	return body, nil
}

func encodePng(ref *vips.ImageRef, quality int) ([]byte, error) {
	params := vips.NewPngExportParams()
	params.Compression = pngCompressionLevel(quality)
	body, _, err := ref.ExportPng(params)
	if err != nil {
		return nil, &EncodeFailed{Codec: profiles.CodecPNG, Cause: err}
	}
	return body, nil
}
