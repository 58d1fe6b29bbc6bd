package flag

import (
	"testing"
)

func TestGetParsedFlagsAllOptions(t *testing.T) {
	svc := NewService()
	flags, err := svc.GetParsedFlags([]string{
		"--config-path", "/tmp/release.yaml",
		"-C", "/src",
		"--registry", "registry.example.com",
		"--image", "dashboard-api",
		"--dockerfile", "Dockerfile.80",
		"--context", "app",
		"--platform", "linux/arm64",
		"--builder", "podman",
		"--build-arg", "A=1",
		"--build-arg", "B=x,y",
		"--extra-tag", "latest, stable",
		"--commit-id", "manual",
		"--profile", "prod",
		"--region", "eu-west-1",
		"--create-repo",
		"--skip-login",
		"--force",
		"--dry-run",
		"--no-store",
		"--db-path", "/tmp/history.db",
		"--manifest-bucket", "releases",
		"--output", "json",
		"--log-level", "debug",
		"--log-format", "json",
	})
	if err != nil {
		t.Fatalf("GetParsedFlags failed: %v", err)
	}

	if flags.ConfigPath != "/tmp/release.yaml" || flags.WorkDir != "/src" {
		t.Fatalf("unexpected paths: %+v", flags)
	}
	if flags.Registry != "registry.example.com" || flags.Image != "dashboard-api" || flags.Dockerfile != "Dockerfile.80" {
		t.Fatalf("unexpected image flags: %+v", flags)
	}
	if len(flags.BuildArgs) != 2 || flags.BuildArgs[1] != "B=x,y" {
		t.Fatalf("build args must not be split on commas: %v", flags.BuildArgs)
	}
	if len(flags.ExtraTags) != 2 || flags.ExtraTags[0] != "latest" || flags.ExtraTags[1] != "stable" {
		t.Fatalf("unexpected extra tags: %v", flags.ExtraTags)
	}
	if flags.Profile != "prod" || flags.Region != "eu-west-1" || !flags.CreateRepo || !flags.SkipLogin {
		t.Fatalf("unexpected aws flags: %+v", flags)
	}
	if !flags.Force || !flags.DryRun || !flags.NoStore || flags.DBPath != "/tmp/history.db" {
		t.Fatalf("unexpected behaviour flags: %+v", flags)
	}
	if flags.ManifestBucket != "releases" || flags.Output != "json" || flags.LogLevel != "debug" || flags.LogFormat != "json" {
		t.Fatalf("unexpected output flags: %+v", flags)
	}
	if flags.CommitID != "manual" || flags.Builder != "podman" || flags.Platform != "linux/arm64" || flags.Context != "app" {
		t.Fatalf("unexpected build flags: %+v", flags)
	}
}

func TestGetParsedFlagsDefaults(t *testing.T) {
	flags, err := NewService().GetParsedFlags(nil)
	if err != nil {
		t.Fatalf("GetParsedFlags failed: %v", err)
	}
	if flags.WorkDir != "." || flags.Output != "" || flags.DryRun || flags.Version {
		t.Fatalf("unexpected defaults: %+v", flags)
	}
}

func TestGetParsedFlagsUnknownFlag(t *testing.T) {
	if _, err := NewService().GetParsedFlags([]string{"--bogus"}); err == nil {
		t.Fatalf("expected error for unknown flag")
	}
}
