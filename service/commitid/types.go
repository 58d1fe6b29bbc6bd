package commitid

import (
	"context"
	"errors"

	"github.com/thirukguru/image-release/service/vcs"
)

var (
	// ErrEmptyCommitID is returned when derivation produced nothing usable.
	ErrEmptyCommitID = errors.New("commit id is empty")
	// ErrTooLong is returned when the commit id cannot be used as an image tag.
	ErrTooLong = errors.New("commit id exceeds the 128 character image tag limit")
)

type service struct {
	vcsService vcs.Service
}

// Service derives release commit IDs.
type Service interface {
	// Derive computes the commit ID from the most recent commit.
	Derive(ctx context.Context) (string, error)
	// Resolve returns the lowercased, sanitized override when set, otherwise Derive.
	Resolve(ctx context.Context, override string) (string, error)
}
