package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

var (
	_ Store  = (*GCSStore)(nil)
	_ Opener = (*GCSStore)(nil)
	_ Linker = (*GCSStore)(nil)
)

type GCSStore struct {
	client *gcs.Client
	bucket string
	prefix string
	public bool
}

type GCSOptions struct {
	Bucket          string
	Prefix          string // object key prefix, e.g. "attachments"
	CredentialsFile string // empty uses application default credentials
	Public          bool   // grant allUsers read on upload
}

func NewGCSStore(ctx context.Context, o GCSOptions) (*GCSStore, error) {
	if o.Bucket == "" {
		return nil, errors.New("GCS bucket is not set")
	}
	var opts []option.ClientOption
	if o.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(o.CredentialsFile))
	}
	c, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GCSStore{client: c, bucket: o.Bucket, prefix: strings.Trim(o.Prefix, "/"), public: o.Public}, nil
}

func (s *GCSStore) Close() error { return s.client.Close() }

func (s *GCSStore) Upload(ctx context.Context, objectName string, contentType string, r io.Reader) (string, error) {
	key := s.key(objectName)
	obj := s.client.Bucket(s.bucket).Object(key).If(gcs.Conditions{DoesNotExist: true})

	w := obj.NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	if s.public {
		if err := s.client.Bucket(s.bucket).Object(key).ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("gs://%s/%s", s.bucket, key), nil
}

func (s *GCSStore) Remove(ctx context.Context, storedPath string) error {
	bucket, key, ok := splitGSPath(storedPath)
	if !ok || bucket != s.bucket {
		return fmt.Errorf("not an object of bucket %q: %q", s.bucket, storedPath)
	}
	err := s.client.Bucket(bucket).Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (s *GCSStore) key(objectName string) string {
	return path.Join(s.prefix, path.Base("/"+objectName))
}

func (s *GCSStore) Open(ctx context.Context, objectName string) (*Object, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.key(objectName)).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, ErrNotExist
	}
	if err != nil {
		return nil, err
	}
	return &Object{Body: r, ContentType: r.Attrs.ContentType, Size: r.Attrs.Size}, nil
}

// PublicURL is where the object can be fetched without going through the
// server. Only set when uploads are made public.
func (s *GCSStore) PublicURL(objectName string) string {
	if !s.public {
		return ""
	}
	return publicObjectURL(s.bucket, s.key(objectName))
}

func publicObjectURL(bucket, key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, key)
}

func splitGSPath(p string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(p, "gs://")
	if !found {
		return "", "", false
	}
	bucket, key, ok = strings.Cut(rest, "/")
	return bucket, key, ok && bucket != "" && key != ""
}
