// Package manifest publishes a JSON record of each release to S3 so other
// tooling can discover which commit ID is deployed under which image.
package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/thirukguru/image-release/model"
)

// NewService creates an S3 manifest publisher.
func NewService(cfg aws.Config, bucket, prefix string) Service {
	return NewServiceWithClient(s3.NewFromConfig(cfg), bucket, prefix)
}

// NewServiceWithClient creates a publisher around an existing client.
func NewServiceWithClient(client S3ClientAPI, bucket, prefix string) Service {
	return &service{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key of a release record.
func Key(prefix, image, commitID string) string {
	return path.Join(strings.Trim(prefix, "/"), image, commitID+".json")
}

func (s *service) Publish(ctx context.Context, result model.ReleaseResult) (string, error) {
	if s.bucket == "" {
		return "", fmt.Errorf("manifest bucket is not configured")
	}
	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode release manifest: %w", err)
	}
	key := Key(s.prefix, result.Image, result.CommitID)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"commit-id": result.CommitID,
			"image-ref": result.RemoteRef,
		},
	})
	if err != nil {
		return "", fmt.Errorf("s3 put-object s3://%s/%s: %w", s.bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key), nil
}
