package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/gftdcojp/echo-memory/internal/types"
	"github.com/gftdcojp/echo-memory/pkg/s3util"
)

// S3Sink archives snapshots as JSON objects in an S3-compatible bucket.
type S3Sink struct {
	client *s3util.Client
}

// NewS3Sink creates an S3 snapshot sink over an existing client.
func NewS3Sink(client *s3util.Client) *S3Sink {
	return &S3Sink{client: client}
}

func (s *S3Sink) Name() string { return "s3" }

func (s *S3Sink) Write(ctx context.Context, snap types.Snapshot) error {
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	ts := snap.Timestamp.UTC()
	key := path.Join(
		s.client.Prefix,
		ts.Format("2006/01/02"),
		ts.Format("20060102T150405.000000000Z")+".json",
	)

	_, err = s.client.S3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.client.Bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	return err
}

func (s *S3Sink) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Ping(ctx)
}

func (s *S3Sink) Close() error { return nil }
