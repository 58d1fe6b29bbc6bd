// Package awsconfig loads the AWS configuration used for ECR and S3 access.
package awsconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// ErrNoRegion is returned when neither flags, env nor shared config name a region.
var ErrNoRegion = errors.New("no AWS region configured")

// fallbackSTSRegion is only used to reach STS for an MFA assume-role.
const fallbackSTSRegion = "us-east-1"

// loadSharedConfigProfile is a variable to allow mocking in tests.
var loadSharedConfigProfile = config.LoadSharedConfigProfile

// loadDefaultConfig is a variable to allow mocking in tests.
var loadDefaultConfig = config.LoadDefaultConfig

// NewService creates a new AWS configuration service.
func NewService() Service {
	return &service{}
}

func (s *service) GetAWSCfg(ctx context.Context, opts Options) (aws.Config, error) {
	if opts.Profile != "" {
		shared, err := loadSharedConfigProfile(ctx, opts.Profile)
		if err == nil && shared.RoleARN != "" && shared.MFASerial != "" {
			return s.loadWithMFA(ctx, opts, shared)
		}
	}

	cfg, err := loadDefaultConfig(ctx, loadOptions(opts)...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("unable to load AWS config: %w", err)
	}
	if cfg.Region == "" {
		return aws.Config{}, ErrNoRegion
	}
	return cfg, nil
}

func loadOptions(opts Options) []func(*config.LoadOptions) error {
	var out []func(*config.LoadOptions) error
	if opts.Region != "" {
		out = append(out, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		out = append(out, config.WithSharedConfigProfile(opts.Profile))
	}
	out = append(out, config.WithAssumeRoleCredentialOptions(func(o *stscreds.AssumeRoleOptions) {
		o.TokenProvider = stscreds.StdinTokenProvider
	}))
	return out
}

// loadWithMFA builds credentials from the source profile and assumes the
// profile's role, prompting for the MFA code on stdin before any spinner starts.
func (s *service) loadWithMFA(ctx context.Context, opts Options, shared config.SharedConfig) (aws.Config, error) {
	source := shared.SourceProfileName
	if source == "" {
		source = "default"
	}
	region := opts.Region
	if region == "" {
		region = shared.Region
	}
	stsRegion := region
	if stsRegion == "" {
		stsRegion = fallbackSTSRegion
	}

	baseCfg, err := loadDefaultConfig(ctx, config.WithSharedConfigProfile(source), config.WithRegion(stsRegion))
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load source profile %q: %w", source, err)
	}

	provider := stscreds.NewAssumeRoleProvider(sts.NewFromConfig(baseCfg), shared.RoleARN, func(o *stscreds.AssumeRoleOptions) {
		o.SerialNumber = aws.String(shared.MFASerial)
		o.TokenProvider = stscreds.StdinTokenProvider
	})

	finalOpts := []func(*config.LoadOptions) error{
		config.WithCredentialsProvider(aws.NewCredentialsCache(provider)),
	}
	if region != "" {
		finalOpts = append(finalOpts, config.WithRegion(region))
	}
	cfg, err := loadDefaultConfig(ctx, finalOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load config for profile %q: %w", opts.Profile, err)
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return aws.Config{}, fmt.Errorf("failed to assume role %s (MFA might have failed): %w", shared.RoleARN, err)
	}
	if cfg.Region == "" {
		return aws.Config{}, ErrNoRegion
	}
	return cfg, nil
}
