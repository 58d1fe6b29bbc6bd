// Package commitid turns commit metadata into the release identifier used as
// both the image tag and the COMMIT_ID build argument.
package commitid

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/thirukguru/image-release/model"
	"github.com/thirukguru/image-release/service/vcs"
)

const maxTagLength = 128

// midnightArtifact matches a date immediately followed by a zero time and a
// zero UTC offset, i.e. what "YYYY-MM-DD 00:00:00 +0000" reduces to.
var midnightArtifact = regexp.MustCompile(`^([0-9]{8})0{10}_`)

// NewService creates a commit ID service.
func NewService(vcsService vcs.Service) Service {
	return &service{vcsService: vcsService}
}

func (s *service) Derive(ctx context.Context) (string, error) {
	c, err := s.vcsService.LastCommit(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read last commit: %w", err)
	}
	id := Sanitize(Format(c))
	if err := Validate(id); err != nil {
		return "", err
	}
	if _, hash, ok := strings.Cut(id, "_"); !ok || hash == "" {
		return "", fmt.Errorf("%w: no hash segment in %q", ErrEmptyCommitID, id)
	}
	return id, nil
}

func (s *service) Resolve(ctx context.Context, override string) (string, error) {
	if strings.TrimSpace(override) == "" {
		return s.Derive(ctx)
	}
	id := Sanitize(strings.ToLower(override))
	if err := Validate(id); err != nil {
		return "", fmt.Errorf("invalid commit id override %q: %w", override, err)
	}
	return id, nil
}

// Format joins commit metadata as <timestamp>_<hash>.
func Format(c model.Commit) string {
	return c.Timestamp + "_" + c.ShortHash
}

// Sanitize drops every character outside [a-z0-9_] and collapses the
// midnight artifact.
func Sanitize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteByte(c)
		}
	}
	return midnightArtifact.ReplaceAllString(b.String(), "${1}_")
}

// Validate checks that id is usable as an image tag.
func Validate(id string) error {
	if id == "" || strings.Trim(id, "_") == "" {
		return ErrEmptyCommitID
	}
	if len(id) > maxTagLength {
		return ErrTooLong
	}
	return nil
}
