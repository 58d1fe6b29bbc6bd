package model

import "time"

// DefaultCommitID is the value the image recipe falls back to when no
// COMMIT_ID build argument is supplied.
const DefaultCommitID = "No commit ID specified"

// CommitIDBuildArg is the build argument (and runtime env var) carrying the commit ID.
const CommitIDBuildArg = "COMMIT_ID"

// Release status values persisted in history.
const (
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusSkipped   = "SKIPPED"
)

// Release step names used to annotate failures.
const (
	StepCommitID = "commit-id"
	StepRecipe   = "recipe"
	StepRegistry = "registry"
	StepLogin    = "login"
	StepBuild    = "build"
	StepTag      = "tag"
	StepPush     = "push"
	StepManifest = "manifest"
)

// Commit is the source-control metadata of the most recent commit.
type Commit struct {
	Timestamp string
	ShortHash string
}

// ReleaseInput is everything the orchestrator needs for one release.
type ReleaseInput struct {
	Registry       string
	Image          string
	Dockerfile     string
	Context        string
	Platform       string
	BuildArgs      map[string]string
	ExtraTags      []string
	CommitID       string
	CreateRepo     bool
	SkipLogin      bool
	Force          bool
	ManifestBucket string
	ManifestPrefix string
}

// ReleaseResult describes the outcome of a release.
type ReleaseResult struct {
	ReleaseUUID string    `json:"release_uuid"`
	CommitID    string    `json:"commit_id"`
	Image       string    `json:"image"`
	LocalRef    string    `json:"local_ref"`
	RemoteRef   string    `json:"remote_ref"`
	ExtraRefs   []string  `json:"extra_refs,omitempty"`
	Registry    string    `json:"registry"`
	Status      string    `json:"status"`
	FailedStep  string    `json:"failed_step,omitempty"`
	Error       string    `json:"error,omitempty"`
	DryRun      bool      `json:"dry_run"`
	ManifestURI string    `json:"manifest_uri,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	Duration    string    `json:"duration"`
	CLIVersion  string    `json:"cli_version"`
}
