// Package imagebuild drives the container builder CLI (docker or a
// compatible one such as podman).
package imagebuild

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/thirukguru/image-release/model"
	"github.com/thirukguru/image-release/shared/command"
)

// DefaultBinary is the builder CLI used when none is configured.
const DefaultBinary = "docker"

// NewService creates an image build service. Builder output is streamed to logs.
func NewService(runner command.Runner, binary, workDir string, logs io.Writer, logger zerolog.Logger) Service {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	return &service{runner: runner, binary: binary, workDir: workDir, logs: logs, logger: logger}
}

// BuildArgs returns the builder arguments for input, in a stable order.
func BuildArgs(input BuildInput) []string {
	args := []string{"build", "--build-arg", model.CommitIDBuildArg + "=" + input.CommitID}

	keys := make([]string, 0, len(input.BuildArgs))
	for k := range input.BuildArgs {
		if k == model.CommitIDBuildArg {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--build-arg", k+"="+input.BuildArgs[k])
	}

	if input.Platform != "" {
		args = append(args, "--platform", input.Platform)
	}
	if input.Dockerfile != "" {
		args = append(args, "-f", input.Dockerfile)
	}
	contextDir := input.Context
	if contextDir == "" {
		contextDir = "."
	}
	return append(args, "-t", input.LocalRef, contextDir)
}

func (s *service) Build(ctx context.Context, input BuildInput) error {
	if input.CommitID == "" {
		return fmt.Errorf("build: commit id is required")
	}
	if input.LocalRef == "" {
		return fmt.Errorf("build: local image reference is required")
	}
	s.logger.Info().Str("ref", input.LocalRef).Str("commit_id", input.CommitID).Msg("building image")
	return s.run(ctx, "build", BuildArgs(input), nil, nil)
}

func (s *service) Tag(ctx context.Context, source, target string) error {
	s.logger.Info().Str("source", source).Str("target", target).Msg("tagging image")
	return s.run(ctx, "tag", []string{"tag", source, target}, nil, nil)
}

func (s *service) Push(ctx context.Context, ref string) error {
	s.logger.Info().Str("ref", ref).Msg("pushing image")
	return s.run(ctx, "push", []string{"push", ref}, nil, nil)
}

func (s *service) Login(ctx context.Context, host, user, password string) error {
	s.logger.Info().Str("registry", host).Str("user", user).Msg("logging in to registry")
	args := []string{"login", "--username", user, "--password-stdin", host}
	return s.run(ctx, "login", args, strings.NewReader(password), []string{password})
}

func (s *service) run(ctx context.Context, step string, args []string, stdin io.Reader, redact []string) error {
	_, err := s.runner.Run(ctx, command.Spec{
		Name:   s.binary,
		Args:   args,
		Dir:    s.workDir,
		Stdin:  stdin,
		Stdout: s.logs,
		Stderr: s.logs,
		Redact: redact,
	})
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", s.binary, step, err)
	}
	return nil
}
