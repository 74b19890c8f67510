package ingest

import (
	"context"
	"strings"
	"testing"
)

func TestValidateImageBytesRejectsEmpty(t *testing.T) {
	err := validateImageBytes(nil)
	if err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestValidateImageBytesRejectsTooLarge(t *testing.T) {
	data := append([]byte{0xFF, 0xD8, 0xFF}, make([]byte, maxImageBytes+1)...)
	err := validateImageBytes(data)
	if err == nil {
		t.Fatal("expected error for oversized payload")
	}
}

func TestValidateImageBytesRejectsUnknownHeader(t *testing.T) {
	err := validateImageBytes([]byte("not an image"))
	if err == nil {
		t.Fatal("expected error for undecodable header")
	}
}

func TestValidateImageBytesAcceptsJPEGHeader(t *testing.T) {
	data := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	if err := validateImageBytes(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateImageBytesAcceptsWebP(t *testing.T) {
	data := append([]byte("RIFF\x00\x00\x00\x00WEBP"), []byte("VP8 ")...)
	if err := validateImageBytes(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateImageBytesAcceptsAVIF(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x1C, 'f', 't', 'y', 'p', 'a', 'v', 'i', 'f'}
	if err := validateImageBytes(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateSourceURLRejectsBadScheme(t *testing.T) {
	err := validateSourceURL(context.Background(), "ftp://example.com/a.jpg")
	if err == nil {
		t.Fatal("expected error for non-http(s) scheme")
	}
}

func TestValidateSourceURLRejectsLocalhost(t *testing.T) {
	err := validateSourceURL(context.Background(), "http://localhost/a.jpg")
	if err == nil {
		t.Fatal("expected error for localhost")
	}
}

func TestValidateSourceURLRejectsLoopbackIP(t *testing.T) {
	err := validateSourceURL(context.Background(), "http://127.0.0.1/a.jpg")
	if err == nil {
		t.Fatal("expected error for loopback literal")
	}
}

func TestValidateSourceURLRejectsPrivateIP(t *testing.T) {
	err := validateSourceURL(context.Background(), "http://10.0.0.5/a.jpg")
	if err == nil {
		t.Fatal("expected error for RFC-1918 literal")
	}
}

func TestValidateSourceURLRejectsUnparseable(t *testing.T) {
	err := validateSourceURL(context.Background(), "://not a url")
	if err == nil || !strings.Contains(err.Error(), "unparseable") {
		t.Fatalf("expected unparseable url error, got %v", err)
	}
}
