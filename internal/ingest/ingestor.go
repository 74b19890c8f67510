// Package ingest implements the Ingestor (C7, spec.md §4.7): the
// orchestration core wiring AssetStore, ImageEngine, ObjectStore,
// Downloader, MessageBus, and TempSpool into the four ingestion operations
// (plus their dedup-wrapped variants) and the processAsset/deleteAsset pair.
// Transaction handling is grounded on the teacher's repository layer
// (internal/repositories/photo_repository.go's BeginTx/defer Rollback/Commit
// shape), generalized across every write path this package exposes.
package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"mediaforge/internal/assetdb"
	"mediaforge/internal/bus"
	"mediaforge/internal/fetch"
	"mediaforge/internal/imaging"
	"mediaforge/internal/objectstore"
	"mediaforge/internal/profiles"
	"mediaforge/internal/tempspool"
)

// ErrSpoolNotConfigured is returned by EnqueueLocal when no TempSpool was
// wired up (spec.md §4.7 — enqueueLocal "only if a TempSpool is configured").
var ErrSpoolNotConfigured = errors.New("ingest: no temp spool configured")

// OwnerRef names the polymorphic owner of an ingested asset (spec.md §3
// OWNER-LINK): a type+id pair plus the role and sort position of this
// particular link.
type OwnerRef struct {
	Type string
	ID   int64
	Role string
	Sort int
}

// ProcessResult is processAsset's outcome (spec.md §4.7), consumed by the
// Worker's decision matrix (§4.8).
type ProcessResult struct {
	Success         bool
	ExceededRetries bool
	Error           string
	Attempts        int
}

// Ingestor wires together every collaborator the orchestration needs.
type Ingestor struct {
	db         *assetdb.DB
	engine     *imaging.Engine
	store      *objectstore.Store
	bus        *bus.Bus
	registry   *profiles.Registry
	downloader *fetch.Downloader
	spool      *tempspool.Spool // nil disables EnqueueLocal
}

// New builds an Ingestor. spool may be nil.
func New(db *assetdb.DB, engine *imaging.Engine, store *objectstore.Store, b *bus.Bus, registry *profiles.Registry, downloader *fetch.Downloader, spool *tempspool.Spool) *Ingestor {
	return &Ingestor{db: db, engine: engine, store: store, bus: b, registry: registry, downloader: downloader, spool: spool}
}

func sha1Hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

func strPtr(s string) *string { return &s }

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func codecSupported(e *imaging.Engine, c profiles.Codec) bool {
	switch c {
	case profiles.CodecJPEG:
		return e.IsJpegSupported()
	case profiles.CodecWebP:
		return e.IsWebpSupported()
	case profiles.CodecAVIF:
		return e.IsAvifSupported()
	case profiles.CodecPNG:
		return e.IsPngSupported()
	default:
		return false
	}
}

func profileHasCodec(profile profiles.Profile, c profiles.Codec) bool {
	for _, want := range profile.Codecs {
		if want == c {
			return true
		}
	}
	return false
}

// renderAndUpload implements spec.md §4.7.r given an asset row already
// inserted (so asset.ID is populated), the validated source bytes, the
// resolved profile, and the computed baseKey. It mutates asset in place
// (sha1, original keys/dimensions) and inserts any new rendition rows, but
// leaves the final status transition and commit to the caller, since both
// callers (synchronous upload and processAsset) fold it into one write
// alongside the status change within the same transaction.
func (ing *Ingestor) renderAndUpload(ctx context.Context, tx assetdb.ExtContext, asset *assetdb.Asset, data []byte, profile profiles.Profile, key string) error {
	sum := sha1Hex(data)

	var batch []objectstore.Object
	var pending []assetdb.Variant

	keys := assetdb.OriginalKeys{}
	var origW, origH int

	if profile.KeepOriginal {
		orig, err := ing.engine.RenderOriginal(data, profile.MaxOriginalLongEdge, profile.Codecs, imaging.DefaultQualities())
		if err != nil {
			return fmt.Errorf("render original: %w", err)
		}
		origW, origH = orig.Width, orig.Height

		jpegKey := fmt.Sprintf("%s/original.jpg", key)
		batch = append(batch, objectstore.Object{Key: jpegKey, Body: orig.Bodies[profiles.CodecJPEG], ContentType: codecContentType(string(profiles.CodecJPEG))})
		keys[string(profiles.CodecJPEG)] = jpegKey

		for _, c := range []profiles.Codec{profiles.CodecWebP, profiles.CodecAVIF, profiles.CodecPNG} {
			body, ok := orig.Bodies[c]
			if !ok || !profileHasCodec(profile, c) {
				continue
			}
			k := fmt.Sprintf("%s/original.%s", key, codecExt(string(c)))
			batch = append(batch, objectstore.Object{Key: k, Body: body, ContentType: codecContentType(string(c))})
			keys[string(c)] = k
		}
	}

	existing, err := assetdb.ListVariantsByAsset(ctx, tx, asset.ID)
	if err != nil {
		return fmt.Errorf("list existing variants: %w", err)
	}
	existingSet := make(map[string]bool, len(existing))
	for _, v := range existing {
		existingSet[v.Variant+"/"+v.Codec] = true
	}

	q := imaging.DefaultQualities()
	for _, vName := range profile.VariantNames {
		vdef := profile.Variants[vName]
		for _, c := range profile.Codecs {
			if !codecSupported(ing.engine, c) {
				continue
			}
			result, err := ing.engine.RenderVariant(data, vdef, c, q)
			if err != nil {
				return fmt.Errorf("render variant %s/%s: %w", vName, c, err)
			}
			k := fmt.Sprintf("%s/%s.%s", key, vName, codecExt(string(c)))
			batch = append(batch, objectstore.Object{Key: k, Body: result.Body, ContentType: codecContentType(string(c))})

			if !existingSet[vName+"/"+string(c)] {
				pending = append(pending, assetdb.Variant{
					AssetID:    asset.ID,
					Variant:    vName,
					Codec:      string(c),
					StorageKey: k,
					Width:      result.Width,
					Height:     result.Height,
					SizeBytes:  len(result.Body),
				})
			}
		}
	}

	if err := ing.store.PutMultiple(ctx, batch); err != nil {
		return fmt.Errorf("upload renditions: %w", err)
	}

	asset.SetOriginal(sum, keys, origW, origH)

	for i := range pending {
		if err := assetdb.InsertVariant(ctx, tx, &pending[i]); err != nil {
			return fmt.Errorf("insert variant: %w", err)
		}
	}

	return nil
}

// UploadLocal is the synchronous upload path for already-in-memory bytes
// (spec.md §4.7 uploadLocal).
func (ing *Ingestor) UploadLocal(ctx context.Context, data []byte, profileName string, owner OwnerRef) (*assetdb.Asset, error) {
	if err := validateImageBytes(data); err != nil {
		return nil, err
	}
	profile, err := ing.registry.Lookup(profileName)
	if err != nil {
		return nil, err
	}

	tx, err := ing.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	asset := &assetdb.Asset{Profile: profileName, SourceKind: assetdb.SourceUpload, Status: assetdb.StatusProcessing}
	if err := assetdb.InsertAsset(ctx, tx, asset); err != nil {
		return nil, err
	}

	key := baseKey(profile.KeyPrefix, owner.Type, owner.ID, asset.ID)
	if err := ing.renderAndUpload(ctx, tx, asset, data, profile, key); err != nil {
		return nil, err
	}

	asset.Status = assetdb.StatusReady
	if err := assetdb.UpdateAsset(ctx, tx, asset); err != nil {
		return nil, err
	}

	link := &assetdb.OwnerLink{AssetID: asset.ID, OwnerType: owner.Type, OwnerID: owner.ID, Role: owner.Role, Sort: owner.Sort}
	if err := assetdb.InsertOwnerLink(ctx, tx, link); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return asset, nil
}

// UploadRemote SSRF-validates url, fetches it via the Downloader, then
// proceeds identically to UploadLocal with the downloaded bytes (spec.md
// §4.7 uploadRemote).
func (ing *Ingestor) UploadRemote(ctx context.Context, rawURL string, profileName string, owner OwnerRef) (*assetdb.Asset, error) {
	if err := validateSourceURL(ctx, rawURL); err != nil {
		return nil, err
	}
	profile, err := ing.registry.Lookup(profileName)
	if err != nil {
		return nil, err
	}
	result, err := ing.downloader.Download(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if err := validateImageBytes(result.Body); err != nil {
		return nil, err
	}

	tx, err := ing.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	asset := &assetdb.Asset{Profile: profileName, SourceKind: assetdb.SourceRemote, SourceURL: strPtr(rawURL), Status: assetdb.StatusProcessing}
	if err := assetdb.InsertAsset(ctx, tx, asset); err != nil {
		return nil, err
	}

	key := baseKey(profile.KeyPrefix, owner.Type, owner.ID, asset.ID)
	if err := ing.renderAndUpload(ctx, tx, asset, result.Body, profile, key); err != nil {
		return nil, err
	}

	asset.Status = assetdb.StatusReady
	if err := assetdb.UpdateAsset(ctx, tx, asset); err != nil {
		return nil, err
	}

	link := &assetdb.OwnerLink{AssetID: asset.ID, OwnerType: owner.Type, OwnerID: owner.ID, Role: owner.Role, Sort: owner.Sort}
	if err := assetdb.InsertOwnerLink(ctx, tx, link); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return asset, nil
}

// EnqueueRemote persists a QUEUED asset pointing at url and publishes its id
// for a worker to pick up (spec.md §4.7 enqueueRemote). No bytes are fetched
// here, so content-hash dedup cannot run at this stage — see
// EnqueueRemoteWithDedup.
func (ing *Ingestor) EnqueueRemote(ctx context.Context, rawURL string, profileName string, owner OwnerRef) (*assetdb.Asset, error) {
	if err := validateSourceURL(ctx, rawURL); err != nil {
		return nil, err
	}
	if _, err := ing.registry.Lookup(profileName); err != nil {
		return nil, err
	}

	tx, err := ing.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	asset := &assetdb.Asset{Profile: profileName, SourceKind: assetdb.SourceRemote, SourceURL: strPtr(rawURL), Status: assetdb.StatusQueued}
	if err := assetdb.InsertAsset(ctx, tx, asset); err != nil {
		return nil, err
	}

	link := &assetdb.OwnerLink{AssetID: asset.ID, OwnerType: owner.Type, OwnerID: owner.ID, Role: owner.Role, Sort: owner.Sort}
	if err := assetdb.InsertOwnerLink(ctx, tx, link); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if err := ing.bus.Publish(ctx, bus.ProcessJob{AssetID: asset.ID}); err != nil {
		// The commit above already happened; the asset stays QUEUED and is
		// recoverable by a periodic re-queuer or manual replay (spec.md §5).
		return asset, fmt.Errorf("publish enqueue job: %w", err)
	}
	return asset, nil
}

// EnqueueLocal spools data to disk, persists a QUEUED asset, and publishes
// the job with the spool path (spec.md §4.7 enqueueLocal). If anything
// after the spool write fails, the spooled file is deleted.
func (ing *Ingestor) EnqueueLocal(ctx context.Context, data []byte, profileName string, owner OwnerRef) (*assetdb.Asset, error) {
	if ing.spool == nil {
		return nil, ErrSpoolNotConfigured
	}
	if err := validateImageBytes(data); err != nil {
		return nil, err
	}
	if _, err := ing.registry.Lookup(profileName); err != nil {
		return nil, err
	}

	path, err := ing.spool.SaveUpload(data, "upload")
	if err != nil {
		return nil, fmt.Errorf("spool upload: %w", err)
	}

	asset, err := ing.persistQueuedUpload(ctx, profileName, owner)
	if err != nil {
		ing.spool.Delete(path)
		return nil, err
	}

	if err := ing.bus.Publish(ctx, bus.ProcessJob{AssetID: asset.ID, TempFilePath: path}); err != nil {
		// Asset is already committed as QUEUED; like every other failure
		// after the spool write, the spooled file is removed.
		ing.spool.Delete(path)
		return asset, fmt.Errorf("publish enqueue job: %w", err)
	}
	return asset, nil
}

func (ing *Ingestor) persistQueuedUpload(ctx context.Context, profileName string, owner OwnerRef) (*assetdb.Asset, error) {
	tx, err := ing.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	asset := &assetdb.Asset{Profile: profileName, SourceKind: assetdb.SourceUpload, Status: assetdb.StatusQueued}
	if err := assetdb.InsertAsset(ctx, tx, asset); err != nil {
		return nil, err
	}

	link := &assetdb.OwnerLink{AssetID: asset.ID, OwnerType: owner.Type, OwnerID: owner.ID, Role: owner.Role, Sort: owner.Sort}
	if err := assetdb.InsertOwnerLink(ctx, tx, link); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return asset, nil
}

// FindDuplicate wraps findReadyByChecksum (spec.md §4.7).
func (ing *Ingestor) FindDuplicate(ctx context.Context, sha1Hex string) (*assetdb.Asset, bool, error) {
	asset, err := assetdb.FindReadyByChecksum(ctx, ing.db, sha1Hex)
	if errors.Is(err, assetdb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return asset, true, nil
}

func (ing *Ingestor) linkExistingAsset(ctx context.Context, asset *assetdb.Asset, owner OwnerRef) (*assetdb.Asset, error) {
	tx, err := ing.db.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	link := &assetdb.OwnerLink{AssetID: asset.ID, OwnerType: owner.Type, OwnerID: owner.ID, Role: owner.Role, Sort: owner.Sort}
	if err := assetdb.InsertOwnerLink(ctx, tx, link); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return asset, nil
}

// UploadLocalWithDedup computes sha1 after validation and links to an
// existing READY asset with the same hash instead of re-rendering
// (spec.md §4.7).
func (ing *Ingestor) UploadLocalWithDedup(ctx context.Context, data []byte, profileName string, owner OwnerRef) (*assetdb.Asset, error) {
	if err := validateImageBytes(data); err != nil {
		return nil, err
	}
	if dup, ok, err := ing.FindDuplicate(ctx, sha1Hex(data)); err != nil {
		return nil, err
	} else if ok {
		return ing.linkExistingAsset(ctx, dup, owner)
	}
	return ing.UploadLocal(ctx, data, profileName, owner)
}

// UploadRemoteWithDedup is UploadLocalWithDedup's remote-fetch counterpart.
func (ing *Ingestor) UploadRemoteWithDedup(ctx context.Context, rawURL string, profileName string, owner OwnerRef) (*assetdb.Asset, error) {
	if err := validateSourceURL(ctx, rawURL); err != nil {
		return nil, err
	}
	result, err := ing.downloader.Download(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if err := validateImageBytes(result.Body); err != nil {
		return nil, err
	}
	if dup, ok, err := ing.FindDuplicate(ctx, sha1Hex(result.Body)); err != nil {
		return nil, err
	} else if ok {
		return ing.linkExistingAsset(ctx, dup, owner)
	}
	return ing.UploadRemote(ctx, rawURL, profileName, owner)
}

// EnqueueLocalWithDedup hashes the spooled bytes before persisting and
// links to an existing READY asset instead of enqueueing a render job.
func (ing *Ingestor) EnqueueLocalWithDedup(ctx context.Context, data []byte, profileName string, owner OwnerRef) (*assetdb.Asset, error) {
	if err := validateImageBytes(data); err != nil {
		return nil, err
	}
	if dup, ok, err := ing.FindDuplicate(ctx, sha1Hex(data)); err != nil {
		return nil, err
	} else if ok {
		return ing.linkExistingAsset(ctx, dup, owner)
	}
	return ing.EnqueueLocal(ctx, data, profileName, owner)
}

// EnqueueRemoteWithDedup cannot hash content before a worker downloads it —
// enqueueRemote never fetches bytes synchronously — so it is equivalent to
// EnqueueRemote. Dedup for this path only happens naturally once
// processAsset renders the bytes and a later duplicate upload is submitted
// against the now-READY asset.
func (ing *Ingestor) EnqueueRemoteWithDedup(ctx context.Context, rawURL string, profileName string, owner OwnerRef) (*assetdb.Asset, error) {
	return ing.EnqueueRemote(ctx, rawURL, profileName, owner)
}

func (ing *Ingestor) markFailed(ctx context.Context, asset *assetdb.Asset, cause error, retryMax int) (ProcessResult, error) {
	asset.Attempts++
	msg := cause.Error()
	asset.ErrorMessage = &msg
	asset.Status = assetdb.StatusFailed

	if err := assetdb.UpdateAsset(ctx, ing.db, asset); err != nil {
		return ProcessResult{}, fmt.Errorf("mark asset %d failed: %w", asset.ID, err)
	}
	return ProcessResult{
		Success:         false,
		ExceededRetries: asset.Attempts >= retryMax,
		Error:           msg,
		Attempts:        asset.Attempts,
	}, nil
}

// ProcessAsset runs the claim-render-commit sequence a Worker delivery
// drives (spec.md §4.7 processAsset).
func (ing *Ingestor) ProcessAsset(ctx context.Context, assetID int64, retryMax int, tempFilePath string) (ProcessResult, error) {
	asset, err := assetdb.FindAssetByID(ctx, ing.db, assetID)
	if errors.Is(err, assetdb.ErrNotFound) {
		return ProcessResult{Success: true}, nil
	}
	if err != nil {
		return ProcessResult{}, err
	}

	if asset.Status == assetdb.StatusReady {
		return ProcessResult{Success: true, Attempts: asset.Attempts}, nil
	}
	if asset.Attempts >= retryMax {
		return ProcessResult{Success: false, ExceededRetries: true, Error: derefString(asset.ErrorMessage), Attempts: asset.Attempts}, nil
	}

	affected, err := assetdb.ClaimAsset(ctx, ing.db, assetID)
	if err != nil {
		return ProcessResult{}, err
	}
	if affected == 0 {
		return ProcessResult{Success: true, Attempts: asset.Attempts}, nil
	}

	asset, err = assetdb.FindAssetByID(ctx, ing.db, assetID)
	if err != nil {
		return ProcessResult{}, err
	}

	profile, err := ing.registry.Lookup(asset.Profile)
	if err != nil {
		return ing.markFailed(ctx, asset, err, retryMax)
	}

	var data []byte
	var key string

	switch asset.SourceKind {
	case assetdb.SourceRemote:
		if asset.SourceURL == nil {
			return ing.markFailed(ctx, asset, fmt.Errorf("remote asset missing source url"), retryMax)
		}
		result, err := ing.downloader.Download(ctx, *asset.SourceURL)
		if err != nil {
			return ing.markFailed(ctx, asset, err, retryMax)
		}
		if err := validateImageBytes(result.Body); err != nil {
			return ing.markFailed(ctx, asset, err, retryMax)
		}
		data = result.Body
		key = asyncBaseKey(profile.KeyPrefix, assetID)

	case assetdb.SourceUpload:
		if tempFilePath == "" {
			return ing.markFailed(ctx, asset, fmt.Errorf("upload asset missing temp file path"), retryMax)
		}
		raw, err := os.ReadFile(tempFilePath)
		if err != nil {
			return ing.markFailed(ctx, asset, fmt.Errorf("read spool file: %w", err), retryMax)
		}
		if err := validateImageBytes(raw); err != nil {
			return ing.markFailed(ctx, asset, err, retryMax)
		}
		data = raw

		link, err := assetdb.FindFirstOwnerLink(ctx, ing.db, assetID)
		if err != nil {
			return ing.markFailed(ctx, asset, err, retryMax)
		}
		key = baseKey(profile.KeyPrefix, link.OwnerType, link.OwnerID, assetID)

	default:
		return ing.markFailed(ctx, asset, fmt.Errorf("unknown source kind %q", asset.SourceKind), retryMax)
	}

	tx, err := ing.db.BeginTx(ctx)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := ing.renderAndUpload(ctx, tx, asset, data, profile, key); err != nil {
		return ing.markFailed(ctx, asset, err, retryMax)
	}

	asset.Status = assetdb.StatusReady
	if err := assetdb.UpdateAsset(ctx, tx, asset); err != nil {
		return ing.markFailed(ctx, asset, err, retryMax)
	}

	if err := tx.Commit(); err != nil {
		return ing.markFailed(ctx, asset, err, retryMax)
	}

	if asset.SourceKind == assetdb.SourceUpload && tempFilePath != "" && ing.spool != nil {
		ing.spool.Delete(tempFilePath)
	}

	return ProcessResult{Success: true, Attempts: asset.Attempts}, nil
}

// ReprocessAsset resets a READY asset back to QUEUED and republishes it for
// a forced re-render, without touching attempts (this is an
// operator-triggered re-render, not a retry). Only a READY asset can be
// reprocessed. Grounded on the teacher's QueueReprocessing hook
// (internal/imaging/service.go); purely additive to the spec.md §4.7 state
// machine since it just introduces one more producer of QUEUED.
func (ing *Ingestor) ReprocessAsset(ctx context.Context, assetID int64) error {
	asset, err := assetdb.FindAssetByID(ctx, ing.db, assetID)
	if err != nil {
		return err
	}
	if asset.Status != assetdb.StatusReady {
		return fmt.Errorf("ingest: asset %d is not ready, cannot reprocess", assetID)
	}

	job := bus.ProcessJob{AssetID: asset.ID}
	if asset.SourceKind == assetdb.SourceUpload {
		path, err := ing.respoolOriginal(ctx, asset)
		if err != nil {
			return fmt.Errorf("respool original for reprocess: %w", err)
		}
		job.TempFilePath = path
	}

	tx, err := ing.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	asset.Status = assetdb.StatusQueued
	if err := assetdb.UpdateAsset(ctx, tx, asset); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if err := ing.bus.Publish(ctx, job); err != nil {
		return fmt.Errorf("publish reprocess job: %w", err)
	}
	return nil
}

// respoolOriginal re-fetches a previously rendered original from the
// ObjectStore and writes it back to the TempSpool, since the upload path's
// original spool file is deleted once an asset reaches READY.
func (ing *Ingestor) respoolOriginal(ctx context.Context, asset *assetdb.Asset) (string, error) {
	if ing.spool == nil {
		return "", ErrSpoolNotConfigured
	}
	key, ok := asset.OriginalKeys[string(profiles.CodecJPEG)]
	if !ok {
		return "", fmt.Errorf("asset %d has no stored original to reprocess from", asset.ID)
	}
	body, _, _, err := ing.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return ing.spool.SaveUpload(data, "reprocess")
}

// DeleteAsset removes an asset and every object it owns. Per-key deletes
// are best-effort; a missing asset is a no-op (spec.md §4.7 deleteAsset).
func (ing *Ingestor) DeleteAsset(ctx context.Context, assetID int64) error {
	asset, err := assetdb.FindAssetByID(ctx, ing.db, assetID)
	if errors.Is(err, assetdb.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	variants, err := assetdb.ListVariantsByAsset(ctx, ing.db, assetID)
	if err != nil {
		return err
	}

	// Best-effort: a failed object delete never blocks the row delete below.
	for _, k := range asset.OriginalKeys {
		_ = ing.store.Delete(ctx, k)
	}
	for _, v := range variants {
		_ = ing.store.Delete(ctx, v.StorageKey)
	}

	return assetdb.DeleteAsset(ctx, ing.db, assetID)
}
