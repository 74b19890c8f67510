package imaging

import "math"

// clampNoUpscale applies spec.md §4.3's no-upscale rule: each target
// dimension is min'd with the corresponding source dimension before any
// geometry is computed, so COVER on a source smaller than the target
// collapses to at most the source size.
func clampNoUpscale(targetW, targetH, srcW, srcH int) (int, int) {
	if targetW > srcW {
		targetW = srcW
	}
	if targetH > srcH {
		targetH = srcH
	}
	return targetW, targetH
}

// roundHalfUp rounds x.5 toward +Inf, matching spec.md §4.3's tie-breaking
// rule for COVER crop centering ("round half-up toward higher coordinate").
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// cropRect is the source-space rectangle COVER crops before scaling.
type cropRect struct {
	Left, Top, Width, Height int
}

// coverCrop computes the centered crop rectangle of aspect ratio
// targetW/targetH out of a srcW×srcH source (spec.md §4.3 COVER geometry).
func coverCrop(srcW, srcH, targetW, targetH int) cropRect {
	targetRatio := float64(targetW) / float64(targetH)
	srcRatio := float64(srcW) / float64(srcH)

	var cropW, cropH int
	if srcRatio > targetRatio {
		cropH = srcH
		cropW = roundHalfUp(float64(srcH) * targetRatio)
	} else {
		cropW = srcW
		cropH = roundHalfUp(float64(srcW) / targetRatio)
	}
	if cropW > srcW {
		cropW = srcW
	}
	if cropH > srcH {
		cropH = srcH
	}

	left := roundHalfUp(float64(srcW-cropW) / 2)
	top := roundHalfUp(float64(srcH-cropH) / 2)
	return cropRect{Left: left, Top: top, Width: cropW, Height: cropH}
}

// containScale computes the uniform scale factor for CONTAIN geometry:
// min(targetW/srcW, targetH/srcH). Output dimensions are floor(src·scale),
// each at least 1 (spec.md §4.3).
func containScale(srcW, srcH, targetW, targetH int) float64 {
	sw := float64(targetW) / float64(srcW)
	sh := float64(targetH) / float64(srcH)
	if sw < sh {
		return sw
	}
	return sh
}

func scaledDim(src int, scale float64) int {
	d := int(math.Floor(float64(src) * scale))
	if d < 1 {
		d = 1
	}
	return d
}

// originalScale computes spec.md §4.3's renderOriginal scale: maxLongEdge /
// max(srcW, srcH), clamped so the original is never enlarged.
func originalScale(srcW, srcH, maxLongEdge int) float64 {
	longEdge := srcW
	if srcH > longEdge {
		longEdge = srcH
	}
	scale := float64(maxLongEdge) / float64(longEdge)
	if scale > 1 {
		scale = 1
	}
	return scale
}

// pngCompressionLevel maps a 0..100 quality value to a 0..9 zlib level:
// 9 - round(quality/100·9) (spec.md §4.3) so quality=100 -> level 0 and
// quality=0 -> level 9.
func pngCompressionLevel(quality int) int {
	level := 9 - int(math.Round(float64(quality)/100*9))
	if level < 0 {
		level = 0
	}
	if level > 9 {
		level = 9
	}
	return level
}
