// Package flag parses the release command line.
package flag

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/thirukguru/image-release/model"
)

// NewService creates a new flag service.
func NewService() Service {
	return &service{}
}

// GetParsedFlags parses args (without the program name) into model.Flags.
func (s *service) GetParsedFlags(args []string) (model.Flags, error) {
	fs := pflag.NewFlagSet("image-release", pflag.ContinueOnError)

	configPath := fs.StringP("config-path", "c", "", "Path to image-release config file (default .image-release.yaml in the work dir)")
	workDir := fs.StringP("work-dir", "C", ".", "Git work tree to release from")
	registry := fs.StringP("registry", "r", "", "Registry host to push to (default: ECR registry of the AWS account)")
	image := fs.StringP("image", "i", "", "Image (repository) name")
	dockerfile := fs.StringP("dockerfile", "f", "", "Dockerfile path relative to the work dir")
	buildContext := fs.String("context", "", "Build context relative to the work dir")
	platform := fs.String("platform", "", "Target platform, e.g. linux/amd64")
	builder := fs.String("builder", "", "Builder binary (docker or podman)")
	buildArgs := fs.StringArray("build-arg", nil, "Additional build argument KEY=VALUE (repeatable)")
	extraTags := fs.StringSlice("extra-tag", nil, "Additional tag to push alongside the commit ID (repeatable)")
	commitID := fs.String("commit-id", "", "Use this commit ID instead of deriving it from git")
	profile := fs.StringP("profile", "p", "", "AWS profile to use")
	region := fs.String("region", "", "AWS region to use")
	createRepo := fs.Bool("create-repo", false, "Create the ECR repository when it does not exist")
	skipLogin := fs.Bool("skip-login", false, "Do not log in to the registry before pushing")
	force := fs.Bool("force", false, "Push even when the commit ID tag already exists")
	dryRun := fs.Bool("dry-run", false, "Print builder commands without running them")
	noStore := fs.Bool("no-store", false, "Do not record the release in the local history database")
	dbPath := fs.String("db-path", "", "Custom SQLite database path (default ~/.image-release/history.db)")
	manifestBucket := fs.String("manifest-bucket", "", "S3 bucket to publish the release manifest to")
	output := fs.StringP("output", "o", "", "Output format (text, json, or table)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (console or json; default auto)")
	version := fs.BoolP("version", "v", false, "Show version information")

	if err := fs.Parse(args); err != nil {
		return model.Flags{}, err
	}

	flags := model.Flags{
		ConfigPath:     *configPath,
		WorkDir:        *workDir,
		Registry:       *registry,
		Image:          *image,
		Dockerfile:     *dockerfile,
		Context:        *buildContext,
		Platform:       *platform,
		Builder:        *builder,
		BuildArgs:      *buildArgs,
		ExtraTags:      cleanList(*extraTags),
		CommitID:       *commitID,
		Profile:        *profile,
		Region:         *region,
		CreateRepo:     *createRepo,
		SkipLogin:      *skipLogin,
		Force:          *force,
		DryRun:         *dryRun,
		NoStore:        *noStore,
		DBPath:         *dbPath,
		ManifestBucket: *manifestBucket,
		Output:         *output,
		LogLevel:       *logLevel,
		LogFormat:      *logFormat,
		Version:        *version,
	}

	return flags, nil
}

func cleanList(in []string) []string {
	var out []string
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
