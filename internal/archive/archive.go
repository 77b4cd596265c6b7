package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/zstd"
)

// Putter is the part of *s3.Client used to store snapshots.
type Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 stores zstd compressed snapshots of raw import feeds in a bucket.
type S3 struct {
	client  Putter
	bucket  string
	encoder *zstd.Encoder
}

// NewS3 builds an archive with the default AWS credential chain.
func NewS3(ctx context.Context, bucket string) (*S3, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return New(s3.NewFromConfig(cfg), bucket)
}

func New(client Putter, bucket string) (*S3, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, err
	}

	return &S3{
		client:  client,
		bucket:  bucket,
		encoder: encoder,
	}, nil
}

// Key of the snapshot of a feed taken at the given time.
func Key(feed string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s.json.zst", feed, at.UTC().Format("2006/01/02"), at.UTC().Format("20060102T150405Z"))
}

// Store compresses and uploads a snapshot, returning its key.
func (archive *S3) Store(ctx context.Context, feed string, at time.Time, data []byte) (string, error) {
	key := Key(feed, at)
	compressed := archive.encoder.EncodeAll(data, make([]byte, 0, len(data)/4))

	_, err := archive.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(archive.bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(compressed),
		ContentType:     aws.String("application/json"),
		ContentEncoding: aws.String("zstd"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	return key, nil
}

// Decompress restores a stored snapshot.
func Decompress(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	return decoder.DecodeAll(data, nil)
}
