// Package ecr provides the ECR operations a release needs: docker login
// credentials, repository provisioning and tag lookups.
package ecr

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsecr "github.com/aws/aws-sdk-go-v2/service/ecr"
	ecrtypes "github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/aws/smithy-go"
	"github.com/thirukguru/image-release/service/registry"
)

// NewService creates a new ECR service. accountID selects the registry; empty
// means the caller's default registry.
func NewService(cfg aws.Config, accountID string) Service {
	return NewServiceWithClient(awsecr.NewFromConfig(cfg), accountID)
}

// NewServiceWithClient creates a service around an existing client.
func NewServiceWithClient(client ECRClientAPI, accountID string) Service {
	return &service{client: client, accountID: accountID}
}

func (s *service) GetLoginCredentials(ctx context.Context) (LoginCredentials, error) {
	out, err := s.client.GetAuthorizationToken(ctx, &awsecr.GetAuthorizationTokenInput{})
	if err != nil {
		return LoginCredentials{}, fmt.Errorf("ecr get-authorization-token: %w", err)
	}
	if len(out.AuthorizationData) == 0 {
		return LoginCredentials{}, fmt.Errorf("ecr get-authorization-token: no authorization data returned")
	}
	data := out.AuthorizationData[0]
	user, password, err := registry.DecodeAuthToken(aws.ToString(data.AuthorizationToken))
	if err != nil {
		return LoginCredentials{}, err
	}
	creds := LoginCredentials{
		Username: user,
		Password: password,
		Endpoint: registry.NormalizeHost(aws.ToString(data.ProxyEndpoint)),
	}
	if data.ExpiresAt != nil {
		creds.ExpiresAt = *data.ExpiresAt
	}
	return creds, nil
}

func (s *service) EnsureRepository(ctx context.Context, name string, opts RepositoryOptions) (bool, error) {
	_, err := s.client.DescribeRepositories(ctx, &awsecr.DescribeRepositoriesInput{
		RegistryId:      s.registryID(),
		RepositoryNames: []string{name},
	})
	if err == nil {
		return false, nil
	}
	if !isErrorCode(err, "RepositoryNotFoundException") {
		return false, fmt.Errorf("ecr describe-repositories %s: %w", name, err)
	}
	if !opts.Create {
		return false, fmt.Errorf("%w: %s (enable repository creation to provision it)", ErrRepositoryNotFound, name)
	}

	mutability := ecrtypes.ImageTagMutabilityMutable
	if opts.ImmutableTag {
		mutability = ecrtypes.ImageTagMutabilityImmutable
	}
	_, err = s.client.CreateRepository(ctx, &awsecr.CreateRepositoryInput{
		RepositoryName:             aws.String(name),
		RegistryId:                 s.registryID(),
		ImageTagMutability:         mutability,
		ImageScanningConfiguration: &ecrtypes.ImageScanningConfiguration{ScanOnPush: opts.ScanOnPush},
	})
	if err != nil && !isErrorCode(err, "RepositoryAlreadyExistsException") {
		return false, fmt.Errorf("ecr create-repository %s: %w", name, err)
	}
	return err == nil, nil
}

func (s *service) TagExists(ctx context.Context, repository, tag string) (bool, error) {
	out, err := s.client.DescribeImages(ctx, &awsecr.DescribeImagesInput{
		RepositoryName: aws.String(repository),
		RegistryId:     s.registryID(),
		ImageIds:       []ecrtypes.ImageIdentifier{{ImageTag: aws.String(tag)}},
	})
	if err != nil {
		if isErrorCode(err, "ImageNotFoundException") || isErrorCode(err, "RepositoryNotFoundException") {
			return false, nil
		}
		return false, fmt.Errorf("ecr describe-images %s:%s: %w", repository, tag, err)
	}
	return len(out.ImageDetails) > 0, nil
}

func (s *service) registryID() *string {
	if s.accountID == "" {
		return nil
	}
	return aws.String(s.accountID)
}

func isErrorCode(err error, code string) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == code
}
