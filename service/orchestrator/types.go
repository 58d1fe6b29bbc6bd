package orchestrator

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/thirukguru/image-release/model"
	"github.com/thirukguru/image-release/service/commitid"
	"github.com/thirukguru/image-release/service/ecr"
	"github.com/thirukguru/image-release/service/imagebuild"
	"github.com/thirukguru/image-release/service/manifest"
	"github.com/thirukguru/image-release/service/storage"
	awssts "github.com/thirukguru/image-release/service/sts"
)

// Dependencies are the services a release is driven through. AWS-backed
// fields may be nil when the target registry is not ECR.
type Dependencies struct {
	CommitID commitid.Service
	Builder  imagebuild.Service
	STS      awssts.Service
	// NewECR builds an ECR client for the registry account.
	NewECR   func(accountID string) ecr.Service
	Manifest manifest.Service
	Storage  storage.Service

	Region     string
	Repository ecr.RepositoryOptions
	DryRun     bool
	Version    model.VersionInfo
	Logger     zerolog.Logger
	// OnStep is called as each step starts.
	OnStep     func(step string)
}

type service struct {
	commitIDService commitid.Service
	builder         imagebuild.Service
	stsService      awssts.Service
	newECR          func(accountID string) ecr.Service
	manifestService manifest.Service
	storageService  storage.Service

	region     string
	repository ecr.RepositoryOptions
	dryRun     bool
	version    model.VersionInfo
	logger     zerolog.Logger
	onStep     func(step string)
}

// Service is the interface for the release orchestrator.
type Service interface {
	Release(ctx context.Context, input model.ReleaseInput) (model.ReleaseResult, error)
}

// StepError is a release failure annotated with the step that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepErr(step string, err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Step: step, Err: err}
}
