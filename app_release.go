package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/thirukguru/image-release/model"
	awsconfig "github.com/thirukguru/image-release/service/aws_config"
	"github.com/thirukguru/image-release/service/commitid"
	"github.com/thirukguru/image-release/service/config"
	"github.com/thirukguru/image-release/service/ecr"
	"github.com/thirukguru/image-release/service/imagebuild"
	"github.com/thirukguru/image-release/service/manifest"
	"github.com/thirukguru/image-release/service/orchestrator"
	"github.com/thirukguru/image-release/service/output"
	"github.com/thirukguru/image-release/service/registry"
	"github.com/thirukguru/image-release/service/storage"
	awssts "github.com/thirukguru/image-release/service/sts"
	"github.com/thirukguru/image-release/service/vcs"
	"github.com/thirukguru/image-release/shared/command"
	"github.com/thirukguru/image-release/shared/logging"
	"github.com/thirukguru/image-release/shared/spinner"
)

var stepMessages = map[string]string{
	model.StepCommitID: "Deriving commit ID...",
	model.StepRecipe:   "Checking Dockerfile...",
	model.StepRegistry: "Resolving registry...",
	model.StepLogin:    "Logging in to registry...",
	model.StepBuild:    "Building image...",
	model.StepTag:      "Tagging image...",
	model.StepPush:     "Pushing image...",
	model.StepManifest: "Publishing release manifest...",
}

func runRelease(ctx context.Context, cfg config.Config, versionInfo model.VersionInfo, stdout io.Writer) error {
	if err := cfg.ValidateForRelease(); err != nil {
		return err
	}
	logger := logging.WithComponent("release")

	// Builder output would garble the spinner, so it is only streamed when no spinner runs.
	showSpinner := !cfg.DryRun && spinner.Enabled() && logging.Base().GetLevel() > zerolog.DebugLevel
	var builderLogs io.Writer = os.Stderr
	if showSpinner {
		builderLogs = io.Discard
	}

	runner := command.NewRunner(logging.WithComponent("command"))
	builderRunner := runner
	if cfg.DryRun {
		builderRunner = command.NewDryRunner(logging.WithComponent("command"), os.Stderr)
	}

	deps := orchestrator.Dependencies{
		CommitID: commitid.NewService(vcs.NewService(runner, cfg.WorkDir)),
		Builder:  imagebuild.NewService(builderRunner, cfg.Builder, cfg.WorkDir, builderLogs, logging.WithComponent("imagebuild")),
		Repository: ecr.RepositoryOptions{
			ImmutableTag: cfg.AWS.ImmutableTags,
			ScanOnPush:   cfg.AWS.ScanOnPushEnabled(),
		},
		DryRun:  cfg.DryRun,
		Version: versionInfo,
		Logger:  logger,
	}

	if needsAWS(cfg) {
		awsCfg, err := awsconfig.NewService().GetAWSCfg(ctx, awsOptions(cfg))
		if err != nil {
			return fmt.Errorf("failed to load AWS config: %w", err)
		}
		deps.Region = awsCfg.Region
		deps.STS = awssts.NewService(awsCfg)
		deps.NewECR = func(accountID string) ecr.Service {
			return ecr.NewService(awsCfg, accountID)
		}
		if cfg.Manifest.Bucket != "" {
			deps.Manifest = manifest.NewService(awsCfg, cfg.Manifest.Bucket, cfg.Manifest.Prefix)
		}
	}

	if !cfg.History.Disabled {
		store, err := storage.NewService(cfg.History.DBPath)
		if err != nil {
			logger.Warn().Err(err).Msg("release history unavailable")
		} else {
			defer store.Close()
			deps.Storage = store
		}
	}

	if showSpinner {
		spinner.StartSpinner("Releasing " + cfg.Image + "...")
		defer spinner.StopSpinner()
		deps.OnStep = func(step string) {
			spinner.UpdateSpinner(stepMessages[step])
		}
	}

	result, err := orchestrator.NewService(deps).Release(ctx, releaseInput(cfg))
	spinner.StopSpinner()

	outputService := output.NewService(cfg.Output, stdout)
	if err != nil {
		if cfg.Output == string(output.FormatJSON) {
			_ = outputService.RenderRelease(result)
		}
		return err
	}
	return outputService.RenderRelease(result)
}

// needsAWS reports whether the release talks to AWS: ECR registries, the
// default registry derived from the account, or manifest publication.
func needsAWS(cfg config.Config) bool {
	return cfg.Registry == "" || registry.IsECR(cfg.Registry) || cfg.Manifest.Bucket != ""
}

func awsOptions(cfg config.Config) awsconfig.Options {
	opts := awsconfig.Options{Profile: cfg.AWS.Profile, Region: cfg.AWS.Region}
	if host, ok := registry.ParseECRHost(cfg.Registry); ok && opts.Region == "" {
		opts.Region = host.Region
	}
	return opts
}

func releaseInput(cfg config.Config) model.ReleaseInput {
	return model.ReleaseInput{
		Registry:       cfg.Registry,
		Image:          cfg.Image,
		Dockerfile:     cfg.ResolvePath(cfg.Dockerfile),
		Context:        cfg.ResolvePath(cfg.Context),
		Platform:       cfg.Platform,
		BuildArgs:      cfg.BuildArgs,
		ExtraTags:      cfg.ExtraTags,
		CommitID:       cfg.CommitID,
		CreateRepo:     cfg.AWS.CreateRepo,
		SkipLogin:      cfg.AWS.SkipLogin,
		Force:          cfg.Force,
		ManifestBucket: cfg.Manifest.Bucket,
		ManifestPrefix: cfg.Manifest.Prefix,
	}
}
