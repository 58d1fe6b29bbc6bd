package ecr

import (
	"context"
	"errors"
	"time"

	awsecr "github.com/aws/aws-sdk-go-v2/service/ecr"
)

// ErrRepositoryNotFound is returned when the repository is missing and may not be created.
var ErrRepositoryNotFound = errors.New("ecr repository not found")

// ECRClientAPI is the subset of the ECR client used by the service.
type ECRClientAPI interface {
	GetAuthorizationToken(ctx context.Context, params *awsecr.GetAuthorizationTokenInput, optFns ...func(*awsecr.Options)) (*awsecr.GetAuthorizationTokenOutput, error)
	DescribeRepositories(ctx context.Context, params *awsecr.DescribeRepositoriesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeRepositoriesOutput, error)
	CreateRepository(ctx context.Context, params *awsecr.CreateRepositoryInput, optFns ...func(*awsecr.Options)) (*awsecr.CreateRepositoryOutput, error)
	DescribeImages(ctx context.Context, params *awsecr.DescribeImagesInput, optFns ...func(*awsecr.Options)) (*awsecr.DescribeImagesOutput, error)
}

// LoginCredentials are docker login credentials for an ECR registry.
type LoginCredentials struct {
	Username  string
	Password  string
	Endpoint  string
	ExpiresAt time.Time
}

// RepositoryOptions control repository creation.
type RepositoryOptions struct {
	Create       bool
	ImmutableTag bool
	ScanOnPush   bool
}

type service struct {
	client    ECRClientAPI
	accountID string
}

// Service is the interface for ECR registry operations used during a release.
type Service interface {
	GetLoginCredentials(ctx context.Context) (LoginCredentials, error)
	EnsureRepository(ctx context.Context, name string, opts RepositoryOptions) (created bool, err error)
	TagExists(ctx context.Context, repository, tag string) (bool, error)
}
