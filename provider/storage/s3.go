package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Dataset reads a snapshot object from S3.
type S3Dataset struct {
	bucket string
	key    string
	s3     s3Getter
}

func NewS3Dataset(client s3Getter, bucket, key string) *S3Dataset {
	return &S3Dataset{
		bucket: bucket,
		key:    key,
		s3:     client,
	}
}

func (d *S3Dataset) Load(ctx context.Context) ([]byte, error) {
	resp, err := d.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.bucket),
		Key:    aws.String(d.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset s3://%s/%s: %w", d.bucket, d.key, err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
