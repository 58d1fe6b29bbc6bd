// Package orchestrator runs the release workflow: derive the commit ID,
// build, tag and push the image, then record the outcome.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/thirukguru/image-release/model"
	"github.com/thirukguru/image-release/service/dockerfile"
	"github.com/thirukguru/image-release/service/ecr"
	"github.com/thirukguru/image-release/service/imagebuild"
	"github.com/thirukguru/image-release/service/registry"
	"golang.org/x/sync/errgroup"
)

// ErrNoRegistry is returned when no registry is configured and none can be derived from AWS.
var ErrNoRegistry = errors.New("no registry configured and no AWS account available to derive an ECR registry")

// maxConcurrentPushes bounds extra tag pushes running at the same time.
const maxConcurrentPushes = 4

// NewService creates a new orchestrator service.
func NewService(deps Dependencies) Service {
	return &service{
		commitIDService: deps.CommitID,
		builder:         deps.Builder,
		stsService:      deps.STS,
		newECR:          deps.NewECR,
		manifestService: deps.Manifest,
		storageService:  deps.Storage,
		region:          deps.Region,
		repository:      deps.Repository,
		dryRun:          deps.DryRun,
		version:         deps.Version,
		logger:          deps.Logger,
		onStep:          deps.OnStep,
	}
}

// releasePlan is the resolved set of references for one release.
type releasePlan struct {
	host       string
	repository string
	localRef   string
	remoteRef  string
	extraRefs  []string
	ecr        ecr.Service
}

func (s *service) Release(ctx context.Context, input model.ReleaseInput) (model.ReleaseResult, error) {
	started := time.Now()
	result := model.ReleaseResult{
		ReleaseUUID: uuid.NewString(),
		Image:       input.Image,
		Status:      model.StatusSucceeded,
		DryRun:      s.dryRun,
		StartedAt:   started.UTC(),
		CLIVersion:  s.version.Version,
	}

	err := s.release(ctx, input, &result)
	elapsed := time.Since(started)
	result.Duration = elapsed.Round(time.Millisecond).String()
	if err != nil {
		result.Status = model.StatusFailed
		result.Error = err.Error()
		var se *StepError
		if errors.As(err, &se) {
			result.FailedStep = se.Step
		}
		s.logger.Error().Err(err).Str("step", result.FailedStep).Str("image", input.Image).Msg("release failed")
	}

	if recErr := s.persistReleaseIfEnabled(ctx, result, elapsed); recErr != nil {
		s.logger.Warn().Err(recErr).Msg("failed to record release history")
	}
	return result, err
}

func (s *service) release(ctx context.Context, input model.ReleaseInput, result *model.ReleaseResult) error {
	s.step(model.StepCommitID)
	commitID, err := s.commitIDService.Resolve(ctx, input.CommitID)
	if err != nil {
		return stepErr(model.StepCommitID, err)
	}
	result.CommitID = commitID
	s.logger.Info().Str("commit_id", commitID).Msg("resolved commit id")

	s.step(model.StepRecipe)
	if err := s.checkRecipe(input.Dockerfile); err != nil {
		return stepErr(model.StepRecipe, err)
	}

	s.step(model.StepRegistry)
	plan, err := s.plan(ctx, input, commitID)
	if err != nil {
		return stepErr(model.StepRegistry, err)
	}
	result.Registry = plan.host
	result.LocalRef = plan.localRef
	result.RemoteRef = plan.remoteRef
	result.ExtraRefs = plan.extraRefs

	if plan.ecr != nil && !s.dryRun {
		if _, err := plan.ecr.EnsureRepository(ctx, plan.repository, ecr.RepositoryOptions{
			Create:       input.CreateRepo,
			ImmutableTag: s.repository.ImmutableTag,
			ScanOnPush:   s.repository.ScanOnPush,
		}); err != nil {
			return stepErr(model.StepRegistry, err)
		}
		if !input.Force {
			exists, err := plan.ecr.TagExists(ctx, plan.repository, commitID)
			if err != nil {
				return stepErr(model.StepRegistry, err)
			}
			if exists {
				s.logger.Info().Str("ref", plan.remoteRef).Msg("commit already released, skipping build and push")
				result.Status = model.StatusSkipped
				return nil
			}
		}
	}

	if !input.SkipLogin {
		s.step(model.StepLogin)
		if err := s.login(ctx, plan); err != nil {
			return stepErr(model.StepLogin, err)
		}
	}

	s.step(model.StepBuild)
	if err := s.builder.Build(ctx, imagebuild.BuildInput{
		Dockerfile: input.Dockerfile,
		Context:    input.Context,
		LocalRef:   plan.localRef,
		CommitID:   commitID,
		Platform:   input.Platform,
		BuildArgs:  input.BuildArgs,
	}); err != nil {
		return stepErr(model.StepBuild, err)
	}

	s.step(model.StepTag)
	if err := s.builder.Tag(ctx, plan.localRef, plan.remoteRef); err != nil {
		return stepErr(model.StepTag, err)
	}

	s.step(model.StepPush)
	if err := s.builder.Push(ctx, plan.remoteRef); err != nil {
		return stepErr(model.StepPush, err)
	}
	if err := s.pushExtraTags(ctx, plan); err != nil {
		return stepErr(model.StepPush, err)
	}

	if s.manifestService != nil && !s.dryRun {
		s.step(model.StepManifest)
		result.Duration = time.Since(result.StartedAt).Round(time.Millisecond).String()
		uri, err := s.manifestService.Publish(ctx, *result)
		if err != nil {
			return stepErr(model.StepManifest, err)
		}
		result.ManifestURI = uri
	}
	return nil
}

func (s *service) step(name string) {
	if s.onStep != nil {
		s.onStep(name)
	}
}

// checkRecipe warns about Dockerfiles that would ignore the commit ID.
func (s *service) checkRecipe(path string) error {
	if path == "" {
		path = "Dockerfile"
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open dockerfile: %w", err)
	}
	defer f.Close()

	info, err := dockerfile.Inspect(f)
	if err != nil {
		return err
	}
	for _, w := range info.Warnings() {
		s.logger.Warn().Str("dockerfile", path).Msg(w)
	}
	return nil
}

func (s *service) plan(ctx context.Context, input model.ReleaseInput, commitID string) (releasePlan, error) {
	host := registry.NormalizeHost(input.Registry)
	var accountID string

	if host == "" {
		if s.stsService == nil {
			return releasePlan{}, ErrNoRegistry
		}
		id, err := s.stsService.GetAccountID(ctx)
		if err != nil {
			return releasePlan{}, fmt.Errorf("derive ECR registry: %w", err)
		}
		if s.region == "" {
			return releasePlan{}, fmt.Errorf("derive ECR registry: no AWS region configured")
		}
		accountID = id
		host = registry.ECRHostFor(id, s.region)
	} else if ecrHost, ok := registry.ParseECRHost(host); ok {
		accountID = ecrHost.AccountID
	}

	localRef, err := registry.LocalRef(input.Image, commitID)
	if err != nil {
		return releasePlan{}, err
	}
	remoteRef, err := registry.ImageRef(host, input.Image, commitID)
	if err != nil {
		return releasePlan{}, err
	}
	repo, err := registry.RepositoryPath(remoteRef)
	if err != nil {
		return releasePlan{}, err
	}

	p := releasePlan{host: host, repository: repo, localRef: localRef, remoteRef: remoteRef}
	seen := map[string]bool{commitID: true}
	for _, tag := range input.ExtraTags {
		if seen[tag] {
			continue
		}
		seen[tag] = true
		ref, err := registry.ImageRef(host, input.Image, tag)
		if err != nil {
			return releasePlan{}, err
		}
		p.extraRefs = append(p.extraRefs, ref)
	}

	if accountID != "" && s.newECR != nil {
		p.ecr = s.newECR(accountID)
	}
	return p, nil
}

func (s *service) login(ctx context.Context, plan releasePlan) error {
	if plan.ecr == nil {
		s.logger.Debug().Str("registry", plan.host).Msg("not an ECR registry, relying on existing builder credentials")
		return nil
	}
	if s.dryRun {
		return s.builder.Login(ctx, plan.host, "AWS", "<ecr-token>")
	}
	creds, err := plan.ecr.GetLoginCredentials(ctx)
	if err != nil {
		return err
	}
	host := creds.Endpoint
	if host == "" {
		host = plan.host
	}
	return s.builder.Login(ctx, host, creds.Username, creds.Password)
}

func (s *service) pushExtraTags(ctx context.Context, plan releasePlan) error {
	if len(plan.extraRefs) == 0 {
		return nil
	}
	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPushes)
	for _, ref := range plan.extraRefs {
		ref := ref
		g.Go(func() error {
			if err := s.builder.Tag(groupCtx, plan.localRef, ref); err != nil {
				return err
			}
			return s.builder.Push(groupCtx, ref)
		})
	}
	return g.Wait()
}
