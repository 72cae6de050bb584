package drafts

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/RayKMAllen/email-assistant/internal/models"
)

// s3API is the slice of the S3 client the saver uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Saver uploads drafts to an S3 bucket.
type S3Saver struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Saver builds an S3Saver using the default AWS credential chain. The
// bucket must already exist; Save verifies reachability on first use.
func NewS3Saver(ctx context.Context, bucket, prefix string) (*S3Saver, error) {
	if bucket == "" {
		return nil, models.ErrBucketNotSet
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &S3Saver{client: s3.NewFromConfig(cfg), bucket: bucket, prefix: prefix}, nil
}

// newS3SaverWithClient is the test seam.
func newS3SaverWithClient(client s3API, bucket, prefix string) *S3Saver {
	return &S3Saver{client: client, bucket: bucket, prefix: prefix}
}

// Save uploads the draft and returns its s3:// URI. An empty target gets a
// timestamped key under the saver's prefix.
func (s *S3Saver) Save(ctx context.Context, draft, target string) (string, error) {
	if strings.TrimSpace(draft) == "" {
		return "", models.ErrEmptyDraft
	}
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return "", fmt.Errorf("bucket %s not reachable: %w", s.bucket, err)
	}

	key := target
	if key == "" {
		key = timestampedName()
	}
	if s.prefix != "" {
		key = strings.TrimSuffix(s.prefix, "/") + "/" + key
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   strings.NewReader(draft),
	})
	if err != nil {
		return "", fmt.Errorf("upload draft to s3://%s/%s: %w", s.bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
