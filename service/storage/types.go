package storage

import (
	"context"
	"time"
)

// Service defines persistence of release history.
type Service interface {
	SaveRelease(ctx context.Context, input SaveReleaseInput) (int64, error)
	GetRecentReleases(ctx context.Context, image string, limit int) ([]ReleaseSummary, error)
	GetRelease(ctx context.Context, commitID string) (*ReleaseDetail, error)
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
	Vacuum(ctx context.Context) error
	Close() error
}

// SaveReleaseInput is the payload saved for a finished release.
type SaveReleaseInput struct {
	ReleaseUUID  string
	CommitID     string
	Image        string
	LocalRef     string
	RemoteRef    string
	ExtraRefs    []string
	Registry     string
	Status       string
	FailedStep   string
	ErrorMessage string
	DryRun       bool
	Duration     time.Duration
	ManifestURI  string
	Version      string
	StartedAt    time.Time
}

// ReleaseSummary provides compact release metadata.
type ReleaseSummary struct {
	ReleaseID  int64     `json:"release_id"`
	CommitID   string    `json:"commit_id"`
	Image      string    `json:"image"`
	RemoteRef  string    `json:"remote_ref"`
	Status     string    `json:"status"`
	FailedStep string    `json:"failed_step,omitempty"`
	DryRun     bool      `json:"dry_run"`
	DurationMS int64     `json:"duration_ms"`
	StartedAt  time.Time `json:"started_at"`
}

// ReleaseDetail is the full record of the latest release of a commit.
type ReleaseDetail struct {
	ReleaseSummary
	ReleaseUUID  string   `json:"release_uuid"`
	LocalRef     string   `json:"local_ref"`
	Registry     string   `json:"registry"`
	ErrorMessage string   `json:"error,omitempty"`
	ManifestURI  string   `json:"manifest_uri,omitempty"`
	CLIVersion   string   `json:"cli_version"`
	ExtraRefs    []string `json:"extra_refs,omitempty"`
}
