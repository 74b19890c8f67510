package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ValidationFailed is returned by every validation gate (spec.md §4.7.v,
// §4.7.u). The synchronous operations return it to the caller without
// retrying; inside ProcessAsset a validation failure is recorded as a failed
// attempt like any other error, so the worker requeues it until retryMax.
type ValidationFailed struct {
	Reason string
}

func (e *ValidationFailed) Error() string { return "validation failed: " + e.Reason }

const maxImageBytes = 50 * 1024 * 1024 // 50 MiB, spec.md §4.7.v

var allowedMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/avif": true,
}

// detectMIME sniffs magic bytes, the same set the teacher checks in
// internal/imaging/validator.go, mapped onto MIME types instead of bare
// format names.
func detectMIME(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "image/jpeg"
	case bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return "image/png"
	case bytes.HasPrefix(data, []byte{0x47, 0x49, 0x46, 0x38}):
		return "image/gif"
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp"
	case len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")):
		switch string(data[8:12]) {
		case "avif", "avis":
			return "image/avif"
		}
	}
	return ""
}

// validateImageBytes enforces spec.md §4.7.v: non-empty, at most
// maxImageBytes, and a decodable header whose sniffed MIME type is on the
// allowlist.
func validateImageBytes(data []byte) error {
	if len(data) == 0 {
		return &ValidationFailed{Reason: "empty image payload"}
	}
	if int64(len(data)) > maxImageBytes {
		return &ValidationFailed{Reason: fmt.Sprintf("image exceeds %d bytes", maxImageBytes)}
	}
	mime := detectMIME(data)
	if mime == "" {
		return &ValidationFailed{Reason: "undecodable image header"}
	}
	if !allowedMIMEs[mime] {
		return &ValidationFailed{Reason: fmt.Sprintf("mime type %s is not allowed", mime)}
	}
	return nil
}

var blockedHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
}

// validateSourceURL enforces spec.md §4.7.u before any network I/O is
// attempted: parseable, http(s) scheme, a host that isn't an obvious
// loopback alias, and — once resolved — an address outside the
// RFC-1918/link-local/loopback ranges. Grounded on the pack's resolved-IP
// SSRF gate (net.IP.IsPrivate/IsLoopback/IsLinkLocalUnicast).
func validateSourceURL(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return &ValidationFailed{Reason: fmt.Sprintf("unparseable url: %v", err)}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationFailed{Reason: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return &ValidationFailed{Reason: "missing host"}
	}
	if blockedHosts[host] {
		return &ValidationFailed{Reason: fmt.Sprintf("host %q is not publicly accessible", host)}
	}

	if ip := net.ParseIP(host); ip != nil {
		if isDisallowedIP(ip) {
			return &ValidationFailed{Reason: fmt.Sprintf("host %q resolves to a non-public address", host)}
		}
		return nil
	}

	resolver := net.DefaultResolver
	addrs, err := resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return &ValidationFailed{Reason: fmt.Sprintf("could not resolve host %q: %v", host, err)}
	}
	for _, addr := range addrs {
		if isDisallowedIP(addr.IP) {
			return &ValidationFailed{Reason: fmt.Sprintf("host %q resolves to a non-public address", host)}
		}
	}
	return nil
}

func isDisallowedIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsUnspecified() || ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast()
}
