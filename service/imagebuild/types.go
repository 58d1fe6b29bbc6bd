package imagebuild

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/thirukguru/image-release/shared/command"
)

// BuildInput describes one image build.
type BuildInput struct {
	Dockerfile string
	Context    string
	LocalRef   string
	CommitID   string
	Platform   string
	BuildArgs  map[string]string
}

type service struct {
	runner  command.Runner
	binary  string
	workDir string
	logs    io.Writer
	logger  zerolog.Logger
}

// Service is the interface for building, tagging and pushing images.
type Service interface {
	Build(ctx context.Context, input BuildInput) error
	Tag(ctx context.Context, source, target string) error
	Push(ctx context.Context, ref string) error
	Login(ctx context.Context, host, user, password string) error
}
