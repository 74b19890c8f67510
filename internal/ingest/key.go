package ingest

import (
	"fmt"
	"regexp"
	"strings"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

func sanitizeOwnerType(t string) string {
	return unsafeKeyChars.ReplaceAllString(t, "_")
}

// baseKey implements spec.md §4.7.k: P/sanitize(T)/O/A, with the owner-type
// segment dropped when T is empty or "_", and any trailing slash on P
// stripped.
func baseKey(prefix, ownerType string, ownerID, assetID int64) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if ownerType == "" || ownerType == "_" {
		return fmt.Sprintf("%s/%d/%d", prefix, ownerID, assetID)
	}
	return fmt.Sprintf("%s/%s/%d/%d", prefix, sanitizeOwnerType(ownerType), ownerID, assetID)
}

// asyncBaseKey is the worker-side fallback used by processAsset's REMOTE
// dispatch (spec.md §4.7 step 5 and §6's "for async processing without a
// discoverable owner"): the asset has no single owner path to reconstruct
// since multiple owner-links may point at it.
func asyncBaseKey(prefix string, assetID int64) string {
	prefix = strings.TrimSuffix(prefix, "/")
	return fmt.Sprintf("%s/_asset/%d", prefix, assetID)
}

func codecExt(codec string) string {
	switch codec {
	case "JPEG":
		return "jpg"
	case "WEBP":
		return "webp"
	case "AVIF":
		return "avif"
	case "PNG":
		return "png"
	default:
		return strings.ToLower(codec)
	}
}

func codecContentType(codec string) string {
	switch codec {
	case "JPEG":
		return "image/jpeg"
	case "WEBP":
		return "image/webp"
	case "AVIF":
		return "image/avif"
	case "PNG":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
