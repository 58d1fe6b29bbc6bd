package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestStorage(t *testing.T) Service {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "nested", "history.db")
	svc, err := NewService(dbPath)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestSaveReleaseAndQueries(t *testing.T) {
	svc := newTestStorage(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	id, err := svc.SaveRelease(ctx, SaveReleaseInput{
		CommitID:    "20240102_abc123",
		Image:       "dashboard-api",
		LocalRef:    "dashboard-api:20240102_abc123",
		RemoteRef:   "registry.example.com/dashboard-api:20240102_abc123",
		ExtraRefs:   []string{"registry.example.com/dashboard-api:latest"},
		Registry:    "registry.example.com",
		Status:      "SUCCEEDED",
		Duration:    1500 * time.Millisecond,
		ManifestURI: "s3://bucket/dashboard-api/20240102_abc123.json",
		Version:     "1.0.0",
		StartedAt:   started,
	})
	if err != nil {
		t.Fatalf("SaveRelease failed: %v", err)
	}
	if id <= 0 {
		t.Fatalf("expected positive id, got %d", id)
	}

	recent, err := svc.GetRecentReleases(ctx, "dashboard-api", 10)
	if err != nil {
		t.Fatalf("GetRecentReleases failed: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 release, got %d", len(recent))
	}
	if recent[0].DurationMS != 1500 || !recent[0].StartedAt.Equal(started) {
		t.Fatalf("unexpected summary: %+v", recent[0])
	}

	detail, err := svc.GetRelease(ctx, "20240102_abc123")
	if err != nil {
		t.Fatalf("GetRelease failed: %v", err)
	}
	if detail.ReleaseUUID == "" || detail.CLIVersion != "1.0.0" || detail.Registry != "registry.example.com" {
		t.Fatalf("unexpected detail: %+v", detail)
	}
	if len(detail.ExtraRefs) != 1 || detail.ExtraRefs[0] != "registry.example.com/dashboard-api:latest" {
		t.Fatalf("unexpected extra refs: %v", detail.ExtraRefs)
	}
}

func TestGetRecentReleasesOrderingAndFilter(t *testing.T) {
	svc := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	inputs := []SaveReleaseInput{
		{CommitID: "a", Image: "api", Status: "SUCCEEDED", StartedAt: base},
		{CommitID: "b", Image: "api", Status: "FAILED", FailedStep: "push", ErrorMessage: "denied", StartedAt: base.Add(500 * time.Millisecond)},
		{CommitID: "c", Image: "worker", Status: "SUCCEEDED", StartedAt: base.Add(time.Second)},
	}
	for _, in := range inputs {
		if _, err := svc.SaveRelease(ctx, in); err != nil {
			t.Fatalf("SaveRelease(%s) failed: %v", in.CommitID, err)
		}
	}

	all, err := svc.GetRecentReleases(ctx, "", 0)
	if err != nil {
		t.Fatalf("GetRecentReleases failed: %v", err)
	}
	if len(all) != 3 || all[0].CommitID != "c" || all[1].CommitID != "b" || all[2].CommitID != "a" {
		t.Fatalf("unexpected order: %+v", all)
	}

	api, err := svc.GetRecentReleases(ctx, "api", 1)
	if err != nil {
		t.Fatalf("GetRecentReleases failed: %v", err)
	}
	if len(api) != 1 || api[0].CommitID != "b" || api[0].FailedStep != "push" {
		t.Fatalf("unexpected filtered result: %+v", api)
	}
}

func TestGetReleaseReturnsLatestAttempt(t *testing.T) {
	svc := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, _ = svc.SaveRelease(ctx, SaveReleaseInput{CommitID: "x", Image: "api", Status: "FAILED", ErrorMessage: "boom", StartedAt: base})
	_, _ = svc.SaveRelease(ctx, SaveReleaseInput{CommitID: "x", Image: "api", Status: "SUCCEEDED", StartedAt: base.Add(time.Minute)})

	d, err := svc.GetRelease(ctx, "x")
	if err != nil {
		t.Fatalf("GetRelease failed: %v", err)
	}
	if d.Status != "SUCCEEDED" || d.ErrorMessage != "" {
		t.Fatalf("expected latest attempt, got %+v", d)
	}

	_, err = svc.GetRelease(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetReleasePrefersRealAttemptOverLaterDryRun(t *testing.T) {
	svc := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, _ = svc.SaveRelease(ctx, SaveReleaseInput{CommitID: "x", Image: "api", Status: "SUCCEEDED", RemoteRef: "registry.example.com/api:x", StartedAt: base})
	_, _ = svc.SaveRelease(ctx, SaveReleaseInput{CommitID: "x", Image: "api", Status: "SUCCEEDED", DryRun: true, StartedAt: base.Add(time.Minute)})

	d, err := svc.GetRelease(ctx, "x")
	if err != nil {
		t.Fatalf("GetRelease failed: %v", err)
	}
	if d.DryRun || d.RemoteRef != "registry.example.com/api:x" {
		t.Fatalf("expected the pushed release, got %+v", d)
	}

	_, _ = svc.SaveRelease(ctx, SaveReleaseInput{CommitID: "y", Image: "api", Status: "SUCCEEDED", DryRun: true, StartedAt: base})
	d, err = svc.GetRelease(ctx, "y")
	if err != nil {
		t.Fatalf("GetRelease failed: %v", err)
	}
	if !d.DryRun {
		t.Fatalf("expected the dry run when it is the only attempt, got %+v", d)
	}
}

func TestSaveReleaseValidation(t *testing.T) {
	svc := newTestStorage(t)
	ctx := context.Background()

	cases := []SaveReleaseInput{
		{Image: "api", Status: "SUCCEEDED"},
		{CommitID: "x", Status: "SUCCEEDED"},
		{CommitID: "x", Image: "api"},
	}
	for _, in := range cases {
		if _, err := svc.SaveRelease(ctx, in); err == nil {
			t.Fatalf("expected validation error for %+v", in)
		}
	}
}

func TestPurgeAndMaintenance(t *testing.T) {
	svc := newTestStorage(t)
	ctx := context.Background()

	_, _ = svc.SaveRelease(ctx, SaveReleaseInput{CommitID: "old", Image: "api", Status: "SUCCEEDED", StartedAt: time.Now().AddDate(0, 0, -90), ExtraRefs: []string{"r/api:latest"}})
	_, _ = svc.SaveRelease(ctx, SaveReleaseInput{CommitID: "new", Image: "api", Status: "SUCCEEDED", StartedAt: time.Now()})

	n, err := svc.PurgeOlderThan(ctx, 30)
	if err != nil {
		t.Fatalf("PurgeOlderThan failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged release, got %d", n)
	}
	if _, err := svc.PurgeOlderThan(ctx, 0); err == nil {
		t.Fatalf("expected error for zero days")
	}
	if err := svc.Vacuum(ctx); err != nil {
		t.Fatalf("Vacuum failed: %v", err)
	}

	left, _ := svc.GetRecentReleases(ctx, "", 10)
	if len(left) != 1 || left[0].CommitID != "new" {
		t.Fatalf("unexpected remaining releases: %+v", left)
	}
}

func TestResolvePathExpandsHome(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p, err := resolvePath("")
	if err != nil {
		t.Fatalf("resolvePath failed: %v", err)
	}
	if filepath.Base(p) != "history.db" || !filepath.IsAbs(p) {
		t.Fatalf("unexpected path: %s", p)
	}
}
