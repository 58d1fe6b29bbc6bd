// Package vcs reads commit metadata from a git work tree.
package vcs

import (
	"context"
	"fmt"
	"strings"

	"github.com/thirukguru/image-release/model"
	"github.com/thirukguru/image-release/shared/command"
)

// logFormat asks git for the committer date (ISO-like) and abbreviated hash,
// separated by the ASCII unit separator.
const logFormat = "--format=%ci%x1f%h"

// NewService creates a git-backed VCS service rooted at workDir.
func NewService(runner command.Runner, workDir string) Service {
	return &service{runner: runner, workDir: workDir, binary: "git"}
}

func (s *service) LastCommit(ctx context.Context) (model.Commit, error) {
	res, err := s.runner.Run(ctx, command.Spec{
		Name: s.binary,
		Args: []string{"log", "-1", logFormat},
		Dir:  s.workDir,
	})
	if err != nil {
		return model.Commit{}, fmt.Errorf("%w: %v", ErrNoCommit, err)
	}
	return ParseLogLine(res.Stdout)
}

// ParseLogLine splits the output of `git log -1 --format=%ci%x1f%h`.
func ParseLogLine(out string) (model.Commit, error) {
	line := strings.TrimSpace(out)
	if line == "" {
		return model.Commit{}, fmt.Errorf("%w: git log returned no output", ErrNoCommit)
	}
	ts, hash, ok := strings.Cut(line, "\x1f")
	ts = strings.TrimSpace(ts)
	hash = strings.TrimSpace(hash)
	if !ok || ts == "" || hash == "" {
		return model.Commit{}, fmt.Errorf("%w: unexpected git log output %q", ErrNoCommit, line)
	}
	return model.Commit{Timestamp: ts, ShortHash: hash}, nil
}
