package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/thirukguru/image-release/model"
	"github.com/thirukguru/image-release/service/storage"
)

func TestRunRenderWritesPort80Variant(t *testing.T) {
	out := filepath.Join(t.TempDir(), "Dockerfile.80")
	if err := run(context.Background(), []string{"render", "--port", "80", "--out", out}, &bytes.Buffer{}); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read rendered file: %v", err)
	}
	text := string(b)
	for _, want := range []string{"EXPOSE 80\n", `ARG COMMIT_ID="No commit ID specified"`, "ENV COMMIT_ID=${COMMIT_ID}", "main:app"} {
		if !strings.Contains(text, want) {
			t.Fatalf("rendered Dockerfile missing %q:\n%s", want, text)
		}
	}
}

func TestRunRenderToStdoutDefaultsTo8000(t *testing.T) {
	var buf bytes.Buffer
	if err := run(context.Background(), []string{"render"}, &buf); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "EXPOSE 8000") {
		t.Fatalf("expected default port 8000, got:\n%s", buf.String())
	}
}

func TestRunRenderUnknownPort(t *testing.T) {
	err := run(context.Background(), []string{"render", "--port", "9090"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "9090") {
		t.Fatalf("expected unknown port error, got %v", err)
	}
}

func TestRunCommitIDOverrideIsSanitized(t *testing.T) {
	var buf bytes.Buffer
	err := run(context.Background(), []string{"commit-id", "-C", t.TempDir(), "--commit-id", "Hotfix-1.2"}, &buf)
	if err != nil {
		t.Fatalf("commit-id failed: %v", err)
	}
	if buf.String() != "hotfix12\n" {
		t.Fatalf("unexpected commit id output %q", buf.String())
	}
}

func TestRunInspect(t *testing.T) {
	dir := t.TempDir()
	body := "FROM python:3.11-slim\nCOPY requirements.txt .\nEXPOSE 8000\n"
	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := run(context.Background(), []string{"inspect", "-C", dir, "--output", "json"}, &buf); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"declares_commit_id_arg": false`) || !strings.Contains(out, "8000") {
		t.Fatalf("unexpected inspect output:\n%s", out)
	}
}

func TestRunVersion(t *testing.T) {
	var buf bytes.Buffer
	if err := run(context.Background(), []string{"--version"}, &buf); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(buf.String(), "image-release version dev") {
		t.Fatalf("unexpected version output %q", buf.String())
	}
}

func TestRunDryRunReleasePrintsCommitID(t *testing.T) {
	dir := t.TempDir()
	body := "FROM python:3.11-slim\nARG COMMIT_ID=\"No commit ID specified\"\nENV COMMIT_ID=${COMMIT_ID}\nEXPOSE 8000\n"
	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	err := run(context.Background(), []string{
		"-C", dir,
		"--registry", "registry.example.com",
		"--image", "dashboard-api",
		"--commit-id", "20240102_abc123",
		"--dry-run",
		"--no-store",
		"--skip-login",
		"--output", "text",
	}, &buf)
	if err != nil {
		t.Fatalf("dry-run release failed: %v", err)
	}
	if buf.String() != "20240102_abc123\n" {
		t.Fatalf("stdout must carry only the commit id, got %q", buf.String())
	}
}

func TestRunReleaseRequiresImage(t *testing.T) {
	err := run(context.Background(), []string{"-C", t.TempDir(), "--registry", "registry.example.com", "--dry-run"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "image name is required") {
		t.Fatalf("expected missing image error, got %v", err)
	}
}

func TestRunHistoryAndDBCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := storage.NewService(dbPath)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	_, err = store.SaveRelease(context.Background(), storage.SaveReleaseInput{
		CommitID:  "20240102_abc123",
		Image:     "dashboard-api",
		RemoteRef: "registry.example.com/dashboard-api:20240102_abc123",
		Status:    model.StatusSucceeded,
		Duration:  2 * time.Second,
		StartedAt: time.Now().Add(-time.Hour),
	})
	if err != nil {
		t.Fatalf("save release: %v", err)
	}
	store.Close()

	var list bytes.Buffer
	if err := run(context.Background(), []string{"history", "--db-path", dbPath, "list"}, &list); err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	if !strings.Contains(list.String(), "20240102_abc123\tdashboard-api\tSUCCEEDED") {
		t.Fatalf("unexpected history list output %q", list.String())
	}

	var show bytes.Buffer
	if err := run(context.Background(), []string{"history", "--db-path", dbPath, "show", "20240102_abc123"}, &show); err != nil {
		t.Fatalf("history show failed: %v", err)
	}
	if !strings.Contains(show.String(), "registry.example.com/dashboard-api:20240102_abc123") {
		t.Fatalf("unexpected history show output %q", show.String())
	}

	if err := run(context.Background(), []string{"history", "--db-path", dbPath, "show", "missing"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unknown commit id")
	}

	var purge bytes.Buffer
	if err := run(context.Background(), []string{"db", "--db-path", dbPath, "purge", "--older-than", "30"}, &purge); err != nil {
		t.Fatalf("db purge failed: %v", err)
	}
	if purge.String() != "Purged 0 releases\n" {
		t.Fatalf("unexpected purge output %q", purge.String())
	}
	if err := run(context.Background(), []string{"db", "--db-path", dbPath, "vacuum"}, &bytes.Buffer{}); err != nil {
		t.Fatalf("db vacuum failed: %v", err)
	}
}

func TestHistoryUsesDBPathFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(t.TempDir(), "cfg.db")
	cfgBody := "image: api\nregistry: registry.example.com\nhistory:\n  db_path: " + dbPath + "\n"
	if err := os.WriteFile(filepath.Join(dir, ".image-release.yaml"), []byte(cfgBody), 0o600); err != nil {
		t.Fatal(err)
	}
	body := "FROM python:3.11-slim\nARG COMMIT_ID=\"No commit ID specified\"\nENV COMMIT_ID=${COMMIT_ID}\nEXPOSE 8000\n"
	if err := os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	err := run(context.Background(), []string{"-C", dir, "--commit-id", "20240102_abc123", "--dry-run", "--skip-login"}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("dry-run release failed: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("release did not write the configured history db: %v", err)
	}

	var list bytes.Buffer
	if err := run(context.Background(), []string{"history", "-C", dir, "list"}, &list); err != nil {
		t.Fatalf("history list failed: %v", err)
	}
	if !strings.Contains(list.String(), "\t20240102_abc123\tapi\tSUCCEEDED (dry run)\n") {
		t.Fatalf("history list did not read the configured db, got %q", list.String())
	}

	var purge bytes.Buffer
	if err := run(context.Background(), []string{"db", "-C", dir, "purge", "--older-than", "1"}, &purge); err != nil {
		t.Fatalf("db purge failed: %v", err)
	}
	if purge.String() != "Purged 0 releases\n" {
		t.Fatalf("unexpected purge output %q", purge.String())
	}
}
