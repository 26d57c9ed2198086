package backend

import (
	"fmt"
	"net/url"
	"strings"
)

// ObjectStorage addresses the BaaS storage API: tus uploads go to one
// shared endpoint, public objects are served under /object/public.
type ObjectStorage struct {
	baseURL string
}

func NewObjectStorage(baseURL string) *ObjectStorage {
	return &ObjectStorage{baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *ObjectStorage) ResumableUploadEndpoint(string) string {
	return s.baseURL + "/storage/v1/upload/resumable"
}

func (s *ObjectStorage) PublicURL(bucket, objectKey string) string {
	return s.baseURL + "/storage/v1/object/public/" + url.PathEscape(bucket) + "/" + escapeKey(objectKey)
}

// S3Storage addresses an S3 compatible bucket. The upload endpoint is an
// s3:// URL understood by the multipart transport.
type S3Storage struct {
	region     string
	publicBase string
}

// NewS3Storage builds virtual-hosted AWS URLs unless publicBase is set, in
// which case objects are served path-style under it.
func NewS3Storage(region, publicBase string) *S3Storage {
	return &S3Storage{region: region, publicBase: strings.TrimRight(publicBase, "/")}
}

func (s *S3Storage) ResumableUploadEndpoint(bucket string) string {
	return "s3://" + bucket
}

func (s *S3Storage) PublicURL(bucket, objectKey string) string {
	if s.publicBase != "" {
		return s.publicBase + "/" + url.PathEscape(bucket) + "/" + escapeKey(objectKey)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.region, escapeKey(objectKey))
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
