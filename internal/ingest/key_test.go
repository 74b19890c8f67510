package ingest

import "testing"

func TestBaseKeyWithOwnerType(t *testing.T) {
	got := baseKey("listings/", "photo", 7, 42)
	want := "listings/photo/7/42"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBaseKeySanitizesOwnerType(t *testing.T) {
	got := baseKey("listings", "weird type!", 1, 2)
	want := "listings/weird_type_/1/2"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBaseKeyOmitsEmptyOwnerType(t *testing.T) {
	got := baseKey("listings", "", 7, 42)
	want := "listings/7/42"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestBaseKeyOmitsUnderscoreOwnerType(t *testing.T) {
	got := baseKey("listings", "_", 7, 42)
	want := "listings/7/42"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAsyncBaseKey(t *testing.T) {
	got := asyncBaseKey("listings/", 42)
	want := "listings/_asset/42"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestCodecExtAndContentType(t *testing.T) {
	cases := map[string]string{"JPEG": "jpg", "WEBP": "webp", "AVIF": "avif", "PNG": "png"}
	for codec, ext := range cases {
		if got := codecExt(codec); got != ext {
			t.Fatalf("codecExt(%s) = %q, want %q", codec, got, ext)
		}
	}
	if codecContentType("JPEG") != "image/jpeg" {
		t.Fatalf("unexpected content type for JPEG")
	}
	if codecContentType("PNG") != "image/png" {
		t.Fatalf("unexpected content type for PNG")
	}
}
