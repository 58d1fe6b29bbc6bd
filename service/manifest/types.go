package manifest

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/thirukguru/image-release/model"
)

// S3ClientAPI is the subset of the S3 client used to publish manifests.
type S3ClientAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type service struct {
	client S3ClientAPI
	bucket string
	prefix string
}

// Service publishes release records.
type Service interface {
	Publish(ctx context.Context, result model.ReleaseResult) (uri string, err error)
}
