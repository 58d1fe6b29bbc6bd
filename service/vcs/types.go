package vcs

import (
	"context"
	"errors"

	"github.com/thirukguru/image-release/model"
	"github.com/thirukguru/image-release/shared/command"
)

// ErrNoCommit is returned when no commit metadata can be read from the work tree.
var ErrNoCommit = errors.New("no commit metadata available")

type service struct {
	runner  command.Runner
	workDir string
	binary  string
}

// Service is the interface for reading source-control metadata.
type Service interface {
	LastCommit(ctx context.Context) (model.Commit, error)
}
