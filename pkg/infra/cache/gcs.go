package cache

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/ghchangelog/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/option"
)

// GCSStore keeps cache entries as objects in a Cloud Storage bucket
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// ParseGCSURL splits "gs://bucket/prefix" into bucket and prefix
func ParseGCSURL(s string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(s, "gs://")
	if !ok {
		return "", "", goerr.Wrap(model.ErrInvalidArgument, "cache location is not a gs:// URL", goerr.V("url", s))
	}

	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", goerr.Wrap(model.ErrInvalidArgument, "bucket name is empty", goerr.V("url", s))
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// IsGCSURL reports whether s names a Cloud Storage location
func IsGCSURL(s string) bool {
	return strings.HasPrefix(s, "gs://")
}

// NewGCSStore opens a GCSStore for a "gs://bucket/prefix" location
func NewGCSStore(ctx context.Context, location string, opts ...option.ClientOption) (*GCSStore, error) {
	bucket, prefix, err := ParseGCSURL(location)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client")
	}

	return &GCSStore{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}, nil
}

// Close releases the storage client
func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) object(key string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(path.Join(s.prefix, key+".json"))
}

// Get reads the object stored under key
func (s *GCSStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	r, err := s.object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to open cache object", goerr.V("bucket", s.bucket), goerr.V("key", key))
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false, goerr.Wrap(err, "failed to read cache object", goerr.V("bucket", s.bucket), goerr.V("key", key))
	}
	return data, true, nil
}

// Put uploads data under key
func (s *GCSStore) Put(ctx context.Context, key string, data []byte) error {
	w := s.object(key).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		w.Close()
		return goerr.Wrap(err, "failed to write cache object", goerr.V("bucket", s.bucket), goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to upload cache object", goerr.V("bucket", s.bucket), goerr.V("key", key))
	}
	return nil
}

// Delete removes the object stored under key. Deleting a missing object is not an error.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return goerr.Wrap(err, "failed to delete cache object", goerr.V("bucket", s.bucket), goerr.V("key", key))
	}
	return nil
}
