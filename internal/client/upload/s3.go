package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3API is the part of *s3.Client used by S3Transport.
type S3API interface {
	CreateMultipartUpload(ctx context.Context, in *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPart(ctx context.Context, in *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	ListParts(ctx context.Context, in *s3.ListPartsInput, optFns ...func(*s3.Options)) (*s3.ListPartsOutput, error)
	CompleteMultipartUpload(ctx context.Context, in *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, in *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

// S3Options configures NewS3Client. Empty keys fall back to the default
// AWS credential chain; Endpoint selects an S3 compatible server such as
// MinIO and switches to path-style addressing.
type S3Options struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

func NewS3Client(ctx context.Context, o S3Options) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(o.Region)}
	if o.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		}
	}), nil
}

// S3Transport maps the resumable calls onto an S3 multipart upload. Chunk
// n becomes part n+1, so every chunk but the last must be at least 5 MiB
// and the uploader's chunk size must equal partSize. The committed offset
// is the size of the unbroken run of parts starting at part 1. The token
// argument is ignored; requests are signed with the client's credentials.
type S3Transport struct {
	client   S3API
	partSize int64
}

func NewS3Transport(client S3API, partSize int64) *S3Transport {
	return &S3Transport{client: client, partSize: partSize}
}

type s3Location struct {
	bucket   string
	key      string
	uploadID string
}

func (l s3Location) String() string {
	u := url.URL{Scheme: "s3", Host: l.bucket, Path: "/" + l.key, RawQuery: url.Values{"uploadId": {l.uploadID}}.Encode()}
	return u.String()
}

func parseS3Location(raw string) (s3Location, error) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "s3" {
		return s3Location{}, fmt.Errorf("s3: bad upload location %q", raw)
	}
	loc := s3Location{bucket: u.Host, key: strings.TrimPrefix(u.Path, "/"), uploadID: u.Query().Get("uploadId")}
	if loc.bucket == "" || loc.key == "" || loc.uploadID == "" {
		return s3Location{}, fmt.Errorf("s3: incomplete upload location %q", raw)
	}
	return loc, nil
}

func (t *S3Transport) Create(ctx context.Context, r CreateRequest) (string, error) {
	in := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(r.Bucket),
		Key:    aws.String(r.ObjectKey),
	}
	if r.ContentType != "" {
		in.ContentType = aws.String(r.ContentType)
	}
	if r.CacheControl != "" {
		in.CacheControl = aws.String(r.CacheControl)
	}

	out, err := t.client.CreateMultipartUpload(ctx, in)
	if err != nil {
		return "", s3Error(err)
	}
	return s3Location{bucket: r.Bucket, key: r.ObjectKey, uploadID: aws.ToString(out.UploadId)}.String(), nil
}

func (t *S3Transport) listParts(ctx context.Context, loc s3Location) ([]types.Part, error) {
	var parts []types.Part
	var marker *string
	for {
		out, err := t.client.ListParts(ctx, &s3.ListPartsInput{
			Bucket:           aws.String(loc.bucket),
			Key:              aws.String(loc.key),
			UploadId:         aws.String(loc.uploadID),
			PartNumberMarker: marker,
		})
		if err != nil {
			return nil, s3Error(err)
		}
		parts = append(parts, out.Parts...)
		if !aws.ToBool(out.IsTruncated) {
			break
		}
		marker = out.NextPartNumberMarker
	}
	sort.Slice(parts, func(i, j int) bool {
		return aws.ToInt32(parts[i].PartNumber) < aws.ToInt32(parts[j].PartNumber)
	})
	return parts, nil
}

// committed returns the leading parts without gaps and their total size.
func committed(parts []types.Part) ([]types.Part, int64) {
	var size int64
	for i, p := range parts {
		if aws.ToInt32(p.PartNumber) != int32(i+1) {
			return parts[:i], size
		}
		size += aws.ToInt64(p.Size)
	}
	return parts, size
}

func (t *S3Transport) Offset(ctx context.Context, location, _ string) (int64, error) {
	loc, err := parseS3Location(location)
	if err != nil {
		return 0, err
	}
	parts, err := t.listParts(ctx, loc)
	if err != nil {
		return 0, err
	}
	_, size := committed(parts)
	return size, nil
}

func (t *S3Transport) Patch(ctx context.Context, location, _ string, offset int64, chunk []byte) (int64, error) {
	loc, err := parseS3Location(location)
	if err != nil {
		return 0, err
	}
	if offset%t.partSize != 0 {
		return 0, fmt.Errorf("s3: offset %d is not aligned to part size %d", offset, t.partSize)
	}

	_, err = t.client.UploadPart(ctx, &s3.UploadPartInput{
		Bucket:        aws.String(loc.bucket),
		Key:           aws.String(loc.key),
		UploadId:      aws.String(loc.uploadID),
		PartNumber:    aws.Int32(int32(offset/t.partSize) + 1),
		Body:          bytes.NewReader(chunk),
		ContentLength: aws.Int64(int64(len(chunk))),
	})
	if err != nil {
		return 0, s3Error(err)
	}
	return offset + int64(len(chunk)), nil
}

func (t *S3Transport) Finish(ctx context.Context, location, _ string, size int64) error {
	loc, err := parseS3Location(location)
	if err != nil {
		return err
	}
	parts, err := t.listParts(ctx, loc)
	if err != nil {
		return err
	}
	parts, got := committed(parts)
	if got != size {
		return fmt.Errorf("s3: %d of %d bytes committed", got, size)
	}

	completed := make([]types.CompletedPart, len(parts))
	for i, p := range parts {
		completed[i] = types.CompletedPart{ETag: p.ETag, PartNumber: p.PartNumber}
	}
	_, err = t.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(loc.bucket),
		Key:             aws.String(loc.key),
		UploadId:        aws.String(loc.uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return s3Error(err)
	}
	return nil
}

func (t *S3Transport) Abort(ctx context.Context, location, _ string) error {
	loc, err := parseS3Location(location)
	if err != nil {
		return err
	}
	_, err = t.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(loc.bucket),
		Key:      aws.String(loc.key),
		UploadId: aws.String(loc.uploadID),
	})
	return s3Error(err)
}

// s3Error turns SDK response errors into StatusError so the retry policy
// treats both transports alike.
func s3Error(err error) error {
	if err == nil {
		return nil
	}
	var re *awshttp.ResponseError
	if !errors.As(err, &re) {
		return err
	}
	body := re.Error()
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		body = apiErr.ErrorCode() + ": " + apiErr.ErrorMessage()
	}
	return &StatusError{Code: re.HTTPStatusCode(), Body: body}
}
