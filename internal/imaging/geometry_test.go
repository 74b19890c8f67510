package imaging

import "testing"

func TestClampNoUpscale(t *testing.T) {
	w, h := clampNoUpscale(800, 800, 400, 300)
	if w != 400 || h != 300 {
		t.Fatalf("got %dx%d, want 400x300", w, h)
	}

	w, h = clampNoUpscale(200, 150, 400, 300)
	if w != 200 || h != 150 {
		t.Fatalf("got %dx%d, want 200x150", w, h)
	}
}

func TestRoundHalfUp(t *testing.T) {
	cases := map[float64]int{
		2.5:  3,
		2.4:  2,
		-0.5: 0,
		0.5:  1,
	}
	for in, want := range cases {
		if got := roundHalfUp(in); got != want {
			t.Errorf("roundHalfUp(%v) = %d, want %d", in, got, want)
		}
	}
}

func TestCoverCropWideSource(t *testing.T) {
	// 1000x500 source cropped to a 1:1 target crops down to 500x500, centered
	// horizontally.
	crop := coverCrop(1000, 500, 300, 300)
	if crop.Width != 500 || crop.Height != 500 {
		t.Fatalf("got crop %dx%d, want 500x500", crop.Width, crop.Height)
	}
	if crop.Left != 250 || crop.Top != 0 {
		t.Fatalf("got offset (%d,%d), want (250,0)", crop.Left, crop.Top)
	}
}

func TestCoverCropTallSource(t *testing.T) {
	crop := coverCrop(500, 1000, 300, 300)
	if crop.Width != 500 || crop.Height != 500 {
		t.Fatalf("got crop %dx%d, want 500x500", crop.Width, crop.Height)
	}
	if crop.Left != 0 || crop.Top != 250 {
		t.Fatalf("got offset (%d,%d), want (0,250)", crop.Left, crop.Top)
	}
}

func TestCoverCropOddTieRoundsUp(t *testing.T) {
	// 101x100 source, 1:1 target: cropW = round(100*1) = 100, leftover = 1,
	// offset = round(0.5) = 1 (half-up, toward the higher coordinate).
	crop := coverCrop(101, 100, 50, 50)
	if crop.Left != 1 {
		t.Fatalf("got left %d, want 1", crop.Left)
	}
}

func TestContainScale(t *testing.T) {
	scale := containScale(1000, 500, 300, 300)
	if scale != 0.3 {
		t.Fatalf("got scale %v, want 0.3", scale)
	}
}

func TestOriginalScaleNeverEnlarges(t *testing.T) {
	if s := originalScale(100, 100, 2000); s != 1 {
		t.Fatalf("got scale %v, want 1 (no enlargement)", s)
	}
	if s := originalScale(4000, 2000, 2000); s != 0.5 {
		t.Fatalf("got scale %v, want 0.5", s)
	}
}

func TestPngCompressionLevel(t *testing.T) {
	cases := map[int]int{
		100: 0,
		80:  2,
		0:   9,
		50:  4,
	}
	for quality, want := range cases {
		if got := pngCompressionLevel(quality); got != want {
			t.Errorf("pngCompressionLevel(%d) = %d, want %d", quality, got, want)
		}
	}
}
