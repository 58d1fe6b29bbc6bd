// Package awssts resolves the caller's AWS account, which names the default ECR registry.
package awssts

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ErrNoAccount is returned when STS answers without an account ID.
var ErrNoAccount = errors.New("unable to resolve AWS account ID")

// NewService creates a new STS service.
func NewService(awsconfig aws.Config) Service {
	return NewServiceWithClient(sts.NewFromConfig(awsconfig))
}

// NewServiceWithClient creates a service around an existing client.
func NewServiceWithClient(client STSClientAPI) Service {
	return &service{client: client}
}

func (s *service) GetAccountID(ctx context.Context) (string, error) {
	out, err := s.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("sts get-caller-identity: %w", err)
	}
	if out == nil || aws.ToString(out.Account) == "" {
		return "", ErrNoAccount
	}
	return aws.ToString(out.Account), nil
}
