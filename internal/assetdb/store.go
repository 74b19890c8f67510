package assetdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ExtContext is satisfied by both *sqlx.DB and *sqlx.Tx. Every operation in
// this file takes one as its first argument so the Ingestor (C7) decides
// the transactional context, per spec.md §4.7 ("all take an AssetStore
// handle so the caller chooses the transactional context"). It deliberately
// excludes NamedQueryContext: sqlx only implements that method on *sqlx.DB,
// never on *sqlx.Tx, so a RETURNING insert run inside a transaction uses
// QueryRowContext with positional args instead, the way the teacher's
// photo_repository.go does it.
type ExtContext interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// ErrNotFound is returned by the single-row lookups when no row matches.
var ErrNotFound = errors.New("assetdb: not found")

// InsertAsset inserts a new asset row and populates its generated id.
func InsertAsset(ctx context.Context, ext ExtContext, a *Asset) error {
	const query = `
		INSERT INTO media_asset (profile, source_kind, source_url, status, attempts)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	row := ext.QueryRowContext(ctx, query, a.Profile, a.SourceKind, a.SourceURL, a.Status, a.Attempts)
	if err := row.Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

// UpdateAsset persists the asset's mutable fields (status, checksum,
// original keys/dimensions, error, attempts).
func UpdateAsset(ctx context.Context, ext ExtContext, a *Asset) error {
	const query = `
		UPDATE media_asset SET
			status = :status,
			checksum_sha1 = :checksum_sha1,
			original_keys = :original_keys,
			original_width = :original_width,
			original_height = :original_height,
			error_message = :error_message,
			attempts = :attempts,
			updated_at = now()
		WHERE id = :id`

	_, err := ext.NamedExecContext(ctx, query, a)
	if err != nil {
		return fmt.Errorf("update asset %d: %w", a.ID, err)
	}
	return nil
}

// FindAssetByID loads an asset, or ErrNotFound if absent.
func FindAssetByID(ctx context.Context, ext ExtContext, id int64) (*Asset, error) {
	var a Asset
	const query = `SELECT * FROM media_asset WHERE id = $1`
	if err := ext.GetContext(ctx, &a, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find asset %d: %w", id, err)
	}
	return &a, nil
}

// DeleteAsset removes the asset row. Variants and owner-links cascade.
func DeleteAsset(ctx context.Context, ext ExtContext, id int64) error {
	_, err := ext.ExecContext(ctx, `DELETE FROM media_asset WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete asset %d: %w", id, err)
	}
	return nil
}

// ClaimAsset is spec.md §4.6's single conditional update. affected==1 means
// this caller holds the claim; affected==0 means another worker already
// advanced the row.
func ClaimAsset(ctx context.Context, ext ExtContext, id int64) (affected int, err error) {
	const query = `
		UPDATE media_asset SET status = 'PROCESSING', updated_at = now()
		WHERE id = $1 AND status IN ('QUEUED', 'FAILED')`

	res, err := ext.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("claim asset %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("claim asset %d: rows affected: %w", id, err)
	}
	return int(n), nil
}

// FindReadyByChecksum returns a READY asset with the given sha1, or
// ErrNotFound if none exists (spec.md §4.6 findReadyByChecksum, used by
// the dedup-wrapped Ingestor operations).
func FindReadyByChecksum(ctx context.Context, ext ExtContext, sha1 string) (*Asset, error) {
	var a Asset
	const query = `SELECT * FROM media_asset WHERE checksum_sha1 = $1 AND status = 'READY' LIMIT 1`
	if err := ext.GetContext(ctx, &a, query, sha1); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find ready asset by checksum: %w", err)
	}
	return &a, nil
}

// FindFailedOlderThan lists FAILED assets last updated before cutoff, for
// a periodic re-queuer.
func FindFailedOlderThan(ctx context.Context, ext ExtContext, cutoff time.Time) ([]Asset, error) {
	var assets []Asset
	const query = `SELECT * FROM media_asset WHERE status = 'FAILED' AND updated_at < $1 ORDER BY updated_at ASC`
	if err := ext.SelectContext(ctx, &assets, query, cutoff); err != nil {
		return nil, fmt.Errorf("find failed assets older than %s: %w", cutoff, err)
	}
	return assets, nil
}

// InsertVariant inserts one rendition row.
func InsertVariant(ctx context.Context, ext ExtContext, v *Variant) error {
	const query = `
		INSERT INTO media_variant (asset_id, variant, codec, storage_key, width, height, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	row := ext.QueryRowContext(ctx, query, v.AssetID, v.Variant, v.Codec, v.StorageKey, v.Width, v.Height, v.SizeBytes)
	if err := row.Scan(&v.ID, &v.CreatedAt); err != nil {
		return fmt.Errorf("insert variant (asset %d, %s/%s): %w", v.AssetID, v.Variant, v.Codec, err)
	}
	return nil
}

// CountVariantsByAsset returns how many rendition rows exist for an asset.
// The render pipeline does not call it; it uses ListVariantsByAsset.
func CountVariantsByAsset(ctx context.Context, ext ExtContext, assetID int64) (int, error) {
	var n int
	const query = `SELECT count(*) FROM media_variant WHERE asset_id = $1`
	if err := ext.GetContext(ctx, &n, query, assetID); err != nil {
		return 0, fmt.Errorf("count variants for asset %d: %w", assetID, err)
	}
	return n, nil
}

// ListVariantsByAsset loads every rendition row for an asset, used by the
// render pipeline to avoid re-inserting (variant, codec) pairs already
// rendered by an earlier partial run (spec.md §4.7.r step 4).
func ListVariantsByAsset(ctx context.Context, ext ExtContext, assetID int64) ([]Variant, error) {
	var variants []Variant
	const query = `SELECT * FROM media_variant WHERE asset_id = $1`
	if err := ext.SelectContext(ctx, &variants, query, assetID); err != nil {
		return nil, fmt.Errorf("list variants for asset %d: %w", assetID, err)
	}
	return variants, nil
}

// InsertOwnerLink inserts one polymorphic owner-link row.
func InsertOwnerLink(ctx context.Context, ext ExtContext, l *OwnerLink) error {
	const query = `
		INSERT INTO media_owner_link (asset_id, owner_type, owner_id, role, sort)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	row := ext.QueryRowContext(ctx, query, l.AssetID, l.OwnerType, l.OwnerID, l.Role, l.Sort)
	if err := row.Scan(&l.ID, &l.CreatedAt); err != nil {
		return fmt.Errorf("insert owner-link (asset %d, %s/%d): %w", l.AssetID, l.OwnerType, l.OwnerID, err)
	}
	return nil
}

// FindFirstOwnerLink returns the first owner-link for an asset, used by
// processAsset's UPLOAD dispatch to reconstruct baseKey (spec.md §4.7 step 5).
func FindFirstOwnerLink(ctx context.Context, ext ExtContext, assetID int64) (*OwnerLink, error) {
	var l OwnerLink
	const query = `SELECT * FROM media_owner_link WHERE asset_id = $1 ORDER BY id ASC LIMIT 1`
	if err := ext.GetContext(ctx, &l, query, assetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find first owner-link for asset %d: %w", assetID, err)
	}
	return &l, nil
}
