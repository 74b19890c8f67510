// Package assetdb implements the AssetStore (C6, spec.md §4.6): a thin
// sqlx/Postgres persistence contract over the three-table schema
// (media_asset, media_variant, media_owner_link), grounded on the
// teacher's ImagingRepository (internal/repositories/imaging_repository.go)
// and its otelsqlx-wrapped *database.DB (internal/database/database.go).
package assetdb

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// SourceKind mirrors spec.md §3 ASSET.sourceKind.
type SourceKind string

const (
	SourceUpload SourceKind = "UPLOAD"
	SourceRemote SourceKind = "REMOTE"
)

// Status mirrors spec.md §4.7's asset state machine.
type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusProcessing Status = "PROCESSING"
	StatusReady      Status = "READY"
	StatusFailed     Status = "FAILED"
)

// OriginalKeys maps codec name ("JPEG", "WEBP", ...) to the object-store key
// of that codec's rendering of the original (spec.md §3 ASSET "optional
// original object keys per codec"). Stored as JSONB.
type OriginalKeys map[string]string

// Value implements driver.Valuer, following the same pattern as the
// teacher's CropConfig (internal/imaging/service.go).
func (k OriginalKeys) Value() (driver.Value, error) {
	if k == nil {
		return "{}", nil
	}
	return json.Marshal(k)
}

// Scan implements sql.Scanner.
func (k *OriginalKeys) Scan(value interface{}) error {
	if value == nil {
		*k = OriginalKeys{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			b = []byte(s)
		} else {
			return fmt.Errorf("assetdb: type assertion to []byte failed for OriginalKeys")
		}
	}
	return json.Unmarshal(b, k)
}

// Asset mirrors spec.md §3 ASSET.
type Asset struct {
	ID             int64        `db:"id"`
	Profile        string       `db:"profile"`
	SourceKind     SourceKind   `db:"source_kind"`
	SourceURL      *string      `db:"source_url"`
	Status         Status       `db:"status"`
	ChecksumSHA1   *string      `db:"checksum_sha1"`
	OriginalKeys   OriginalKeys `db:"original_keys"`
	OriginalWidth  *int         `db:"original_width"`
	OriginalHeight *int         `db:"original_height"`
	ErrorMessage   *string      `db:"error_message"`
	Attempts       int          `db:"attempts"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
}

// SetOriginal stamps the checksum and (when present) the codec keys and
// dimensions produced by the render-and-upload pipeline (spec.md §4.7.r
// step 7 — sha1 is always written, even when keepOriginal is false).
func (a *Asset) SetOriginal(sha1 string, keys OriginalKeys, width, height int) {
	a.ChecksumSHA1 = &sha1
	if len(keys) > 0 {
		a.OriginalKeys = keys
		w, h := width, height
		a.OriginalWidth = &w
		a.OriginalHeight = &h
	}
}

// Variant mirrors spec.md §3 RENDITION.
type Variant struct {
	ID         int64     `db:"id"`
	AssetID    int64     `db:"asset_id"`
	Variant    string    `db:"variant"`
	Codec      string    `db:"codec"`
	StorageKey string    `db:"storage_key"`
	Width      int       `db:"width"`
	Height     int       `db:"height"`
	SizeBytes  int       `db:"size_bytes"`
	CreatedAt  time.Time `db:"created_at"`
}

// OwnerLink mirrors spec.md §3 OWNER-LINK.
type OwnerLink struct {
	ID        int64     `db:"id"`
	AssetID   int64     `db:"asset_id"`
	OwnerType string    `db:"owner_type"`
	OwnerID   int64     `db:"owner_id"`
	Role      string    `db:"role"`
	Sort      int       `db:"sort"`
	CreatedAt time.Time `db:"created_at"`
}
