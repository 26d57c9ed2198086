// Package upload moves one local blob to object storage in fixed-size
// chunks over a resumable protocol.
//
// An Uploader starts Sessions. A session probes the local resume ledger for
// an unfinished upload of the same blob and target, continues it from the
// server's offset when possible, and otherwise creates a new upload. Each
// chunk is retried on a fixed delay schedule. A session reports progress
// after every committed chunk and ends with exactly one OnSuccess or
// OnError.
//
// Two transports implement the wire side: TUSTransport speaks tus 1.0.0 to
// the BaaS storage API and S3Transport maps the same calls onto an S3
// multipart upload.
package upload
