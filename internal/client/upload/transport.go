package upload

import "context"

// CreateRequest describes a new remote upload.
type CreateRequest struct {
	Endpoint     string
	Token        string
	Bucket       string
	ObjectKey    string
	ContentType  string
	CacheControl string
	Size         int64
	Upsert       bool
}

// Transport is the wire side of a resumable upload. A location returned by
// Create identifies the upload in later calls.
type Transport interface {
	Create(ctx context.Context, req CreateRequest) (string, error)
	// Offset asks the server how many bytes it has committed.
	Offset(ctx context.Context, location, token string) (int64, error)
	// Patch sends chunk at offset and returns the new committed offset.
	Patch(ctx context.Context, location, token string, offset int64, chunk []byte) (int64, error)
	// Finish is called once every byte is committed.
	Finish(ctx context.Context, location, token string, size int64) error
}

// Aborter is implemented by transports whose unfinished uploads hold
// server-side resources worth releasing.
type Aborter interface {
	Abort(ctx context.Context, location, token string) error
}
