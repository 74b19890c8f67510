// Package objectstore implements the ObjectStore (C4, spec.md §4.4): an
// S3-compatible object store wrapper built on aws-sdk-go-v2, grounded on
// the teacher's R2Client (internal/storage/r2_client.go) and generalized
// from a single bucket-aware client into the batch/atomic semantics this
// spec requires.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"
)

// Config mirrors spec.md §6 `s3`.
type Config struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKey       string
	SecretKey       string
	PublicBaseURL   string
	CacheSeconds    int
	UploadConcurrency int // default 5, spec.md §4.4 putMultiple
}

func (c Config) concurrency() int {
	if c.UploadConcurrency <= 0 {
		return 5
	}
	return c.UploadConcurrency
}

// Store is the S3-backed ObjectStore.
type Store struct {
	client *s3.Client
	cfg    Config
}

// New builds a Store configured the way the teacher configures R2: a
// static-credentials S3 client pointed at a single endpoint/region/bucket.
func New(cfg Config) *Store {
	client := s3.New(s3.Options{
		Region:       cfg.Region,
		BaseEndpoint: aws.String(cfg.Endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	})
	return &Store{client: client, cfg: cfg}
}

func normalizeKey(key string) string {
	return strings.TrimPrefix(key, "/")
}

// Object is one item of a batch upload (spec.md §4.4 putMultiple).
type Object struct {
	Key         string
	Body        []byte
	ContentType string
}

// PutFailed wraps a single-object upload failure.
type PutFailed struct {
	Key   string
	Cause error
}

func (e *PutFailed) Error() string { return fmt.Sprintf("put %s: %v", e.Key, e.Cause) }
func (e *PutFailed) Unwrap() error  { return e.Cause }

// Put uploads a single object, setting the Cache-Control header spec.md
// §4.4/§6 require. No ACL is set, matching the teacher's R2Client — R2 (and
// this store's own bucket) grant public read via bucket policy rather than
// per-object ACL, which S3-compatible providers that don't support the
// `x-amz-acl` header would otherwise reject.
func (s *Store) Put(ctx context.Context, obj Object) error {
	key := normalizeKey(obj.Key)
	cacheControl := fmt.Sprintf("public, max-age=%d", s.cacheSeconds())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.cfg.Bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(obj.Body),
		ContentType:  aws.String(obj.ContentType),
		CacheControl: aws.String(cacheControl),
	})
	if err != nil {
		return &PutFailed{Key: key, Cause: err}
	}
	return nil
}

func (s *Store) cacheSeconds() int {
	if s.cfg.CacheSeconds <= 0 {
		return 31_536_000
	}
	return s.cfg.CacheSeconds
}

// BatchFailed reports which object in a PutMultiple batch failed; the
// batch's already-uploaded members are rolled back on a best-effort basis
// before this is returned (spec.md §4.4 — atomic all-or-nothing semantics).
type BatchFailed struct {
	FailedKey    string
	Cause        error
	RollbackErrs []error
}

func (e *BatchFailed) Error() string {
	if len(e.RollbackErrs) == 0 {
		return fmt.Sprintf("batch upload failed at %s: %v", e.FailedKey, e.Cause)
	}
	return fmt.Sprintf("batch upload failed at %s: %v (rollback had %d errors)", e.FailedKey, e.Cause, len(e.RollbackErrs))
}
func (e *BatchFailed) Unwrap() error { return e.Cause }

// PutMultiple uploads every object concurrently, bounded by
// cfg.UploadConcurrency (default 5). On the first failure it cancels the
// remaining uploads and best-effort deletes every object that did make it
// to the store, so a batch never leaves a partial rendition set behind —
// the same errgroup+semaphore shape the teacher uses to fan out derivative
// uploads (internal/imaging/service.go processJob step 6).
func (s *Store) PutMultiple(ctx context.Context, objs []Object) error {
	if len(objs) == 0 {
		return nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, s.cfg.concurrency())

	var mu sync.Mutex
	var uploadedKeys []string

	for _, obj := range objs {
		obj := obj
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-gCtx.Done():
				return gCtx.Err()
			}
			defer func() { <-sem }()

			if err := s.Put(gCtx, obj); err != nil {
				return err
			}

			mu.Lock()
			uploadedKeys = append(uploadedKeys, obj.Key)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		var rollbackErrs []error
		for _, key := range uploadedKeys {
			if delErr := s.Delete(context.Background(), key); delErr != nil {
				rollbackErrs = append(rollbackErrs, delErr)
			}
		}
		failedKey := ""
		var pf *PutFailed
		if asPutFailed(err, &pf) {
			failedKey = pf.Key
		}
		return &BatchFailed{FailedKey: failedKey, Cause: err, RollbackErrs: rollbackErrs}
	}

	return nil
}

func asPutFailed(err error, target **PutFailed) bool {
	pf, ok := err.(*PutFailed)
	if !ok {
		return false
	}
	*target = pf
	return true
}

// Delete removes an object. Deleting an already-absent key is not an error
// (spec.md §4.4 — idempotent).
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(normalizeKey(key)),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Get streams an object back out. This is the supplemented read-through
// capability (SPEC_FULL.md SUPPLEMENTED FEATURES #2): the Ingestor uses it
// only in ReprocessAsset, to re-fetch a stored original, and a public proxy
// surface built on top of this store can use it as well.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, string, int64, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(normalizeKey(key)),
	})
	if err != nil {
		return nil, "", 0, fmt.Errorf("get %s: %w", key, err)
	}

	contentType := ""
	if out.ContentType != nil {
		contentType = *out.ContentType
	}
	size := int64(0)
	if out.ContentLength != nil {
		size = *out.ContentLength
	}
	return out.Body, contentType, size, nil
}

// PublicURL builds the CDN/public-facing URL for a key (spec.md §4.4
// publicUrl): publicBaseUrl + "/" + key, with any leading slash on the key
// stripped and no trailing slash duplicated. With no publicBaseUrl
// configured it returns the bare key, matching the teacher's GetPublicURL.
func (s *Store) PublicURL(key string) string {
	k := normalizeKey(key)
	if s.cfg.PublicBaseURL == "" {
		return k
	}
	base := strings.TrimSuffix(s.cfg.PublicBaseURL, "/")
	return fmt.Sprintf("%s/%s", base, k)
}
