package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/gcerrors"

	apperrors "agilecoach/internal/errors"
)

const (
	defaultCacheControl = "max-age=3600"
	// fileblob keeps object attributes in sidecar files with this suffix.
	reservedSuffix = ".attrs"
)

var bucketName = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

// ErrNotFound is returned by Open for missing objects.
var ErrNotFound = errors.New("object not found")

// UploadOptions mirror the object storage upload flags.
type UploadOptions struct {
	CacheControl string
	ContentType  string
	Upsert       bool
}

// Object describes a stored object.
type Object struct {
	Bucket       string    `json:"bucket"`
	Path         string    `json:"path"`
	PublicURL    string    `json:"public_url"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	CacheControl string    `json:"cache_control"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store is bucket-scoped object storage.
type Store interface {
	Upload(ctx context.Context, bucket, objectPath string, r io.Reader, opts UploadOptions) (*Object, error)
	PublicURL(bucket, objectPath string) string
	Open(ctx context.Context, bucket, objectPath string) (io.ReadSeekCloser, *Object, error)
}

// BucketOpener opens the blob bucket backing a named bucket.
type BucketOpener func(ctx context.Context, name string) (*blob.Bucket, error)

// BlobStore serves named buckets through gocloud blob. Buckets are opened
// on first use and kept until Close.
type BlobStore struct {
	open    BucketOpener
	baseURL string

	mu      sync.Mutex
	buckets map[string]*blob.Bucket
}

var _ Store = (*BlobStore)(nil)

// NewBlobStore creates a store whose public URLs start with baseURL
// (for example "https://site.example/storage").
func NewBlobStore(open BucketOpener, baseURL string) *BlobStore {
	return &BlobStore{
		open:    open,
		baseURL: strings.TrimRight(baseURL, "/"),
		buckets: make(map[string]*blob.Bucket),
	}
}

// NewFileStore keeps each bucket as a directory under root, created lazily.
func NewFileStore(root, baseURL string) *BlobStore {
	return NewBlobStore(func(_ context.Context, name string) (*blob.Bucket, error) {
		return fileblob.OpenBucket(filepath.Join(root, name), &fileblob.Options{
			CreateDir: true,
			NoTempDir: true,
		})
	}, baseURL)
}

func (s *BlobStore) bucket(ctx context.Context, name string) (*blob.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.buckets[name]; ok {
		return b, nil
	}
	b, err := s.open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", name, err)
	}
	s.buckets[name] = b
	return b, nil
}

// Upload writes r to bucket/objectPath. Without Upsert an existing object is an error.
func (s *BlobStore) Upload(ctx context.Context, bucket, objectPath string, r io.Reader, opts UploadOptions) (*Object, error) {
	key, err := objectKey(bucket, objectPath)
	if err != nil {
		return nil, err
	}
	b, err := s.bucket(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !opts.Upsert {
		exists, err := b.Exists(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("check object: %w", err)
		}
		if exists {
			return nil, apperrors.ErrObjectExists
		}
	}

	wo := &blob.WriterOptions{
		CacheControl: opts.CacheControl,
		ContentType:  opts.ContentType,
		IfNotExist:   !opts.Upsert,
	}
	if wo.CacheControl == "" {
		wo.CacheControl = defaultCacheControl
	}
	if wo.ContentType == "" {
		wo.ContentType = mime.TypeByExtension(path.Ext(key))
	}

	// Cancelling the writer context discards a partial upload.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w, err := b.NewWriter(wctx, key, wo)
	if err != nil {
		return nil, writeError(err)
	}
	if _, err := io.Copy(w, r); err != nil {
		cancel()
		w.Close()
		return nil, fmt.Errorf("write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, writeError(err)
	}

	attrs, err := b.Attributes(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read object attributes: %w", err)
	}
	return s.object(bucket, key, attrs), nil
}

// PublicURL returns the URL an object is served from. It does not check existence.
func (s *BlobStore) PublicURL(bucket, objectPath string) string {
	segments := strings.Split(strings.TrimPrefix(path.Clean("/"+objectPath), "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

// Open returns a reader over the object and its attributes; the caller closes the reader.
func (s *BlobStore) Open(ctx context.Context, bucket, objectPath string) (io.ReadSeekCloser, *Object, error) {
	key, err := objectKey(bucket, objectPath)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.bucket(ctx, bucket)
	if err != nil {
		return nil, nil, err
	}
	attrs, err := b.Attributes(ctx, key)
	if err != nil {
		return nil, nil, readError(err)
	}
	rd, err := b.NewReader(ctx, key, nil)
	if err != nil {
		return nil, nil, readError(err)
	}
	return rd, s.object(bucket, key, attrs), nil
}

// Close releases every opened bucket.
func (s *BlobStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for name, b := range s.buckets {
		errs = append(errs, b.Close())
		delete(s.buckets, name)
	}
	return errors.Join(errs...)
}

func (s *BlobStore) object(bucket, key string, attrs *blob.Attributes) *Object {
	obj := &Object{
		Bucket:       bucket,
		Path:         key,
		PublicURL:    s.PublicURL(bucket, key),
		Size:         attrs.Size,
		ContentType:  attrs.ContentType,
		CacheControl: attrs.CacheControl,
		UpdatedAt:    attrs.ModTime,
	}
	if obj.CacheControl == "" {
		obj.CacheControl = defaultCacheControl
	}
	return obj
}

func writeError(err error) error {
	if gcerrors.Code(err) == gcerrors.FailedPrecondition {
		return apperrors.ErrObjectExists
	}
	return fmt.Errorf("store object: %w", err)
}

func readError(err error) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		return ErrNotFound
	}
	return fmt.Errorf("open object: %w", err)
}

// objectKey validates bucket and path and returns the cleaned blob key.
func objectKey(bucket, objectPath string) (string, error) {
	if !bucketName.MatchString(bucket) {
		return "", apperrors.ErrInvalidObjectPath
	}
	if objectPath == "" || strings.Contains(objectPath, "\\") {
		return "", apperrors.ErrInvalidObjectPath
	}
	for _, seg := range strings.Split(objectPath, "/") {
		if seg == ".." {
			return "", apperrors.ErrInvalidObjectPath
		}
	}
	key := strings.TrimPrefix(path.Clean("/"+objectPath), "/")
	if key == "" || key == "." || strings.HasSuffix(key, reservedSuffix) {
		return "", apperrors.ErrInvalidObjectPath
	}
	return key, nil
}
