package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"github.com/thirukguru/image-release/model"
	"github.com/thirukguru/image-release/service/commitid"
	"github.com/thirukguru/image-release/service/dockerfile"
	"github.com/thirukguru/image-release/service/output"
	"github.com/thirukguru/image-release/service/storage"
	"github.com/thirukguru/image-release/service/vcs"
	"github.com/thirukguru/image-release/shared/command"
	"github.com/thirukguru/image-release/shared/logging"
)

func runCommitIDCommand(ctx context.Context, args []string, stdout io.Writer) error {
	cfg, err := parseConfig(args)
	if err != nil {
		return err
	}
	runner := command.NewRunner(logging.WithComponent("command"))
	id, err := commitid.NewService(vcs.NewService(runner, cfg.WorkDir)).Resolve(ctx, cfg.CommitID)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, id)
	return err
}

func runRenderCommand(args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("render", pflag.ContinueOnError)
	port := fs.Int("port", dockerfile.PortDefault, "Exposed port of the recipe variant")
	out := fs.String("out", "", "Write the Dockerfile to this path instead of stdout")
	baseImage := fs.String("base-image", "", "Override the base image")
	if err := fs.Parse(args); err != nil {
		return err
	}

	variant, ok := dockerfile.VariantForPort(*port)
	if !ok {
		return fmt.Errorf("no recipe variant for port %d (known ports: %v)", *port, dockerfile.KnownPorts())
	}
	recipe := variant.Recipe
	if *baseImage != "" {
		recipe.BaseImage = *baseImage
	}

	if *out == "" {
		return dockerfile.Render(stdout, recipe)
	}
	var buf bytes.Buffer
	if err := dockerfile.Render(&buf, recipe); err != nil {
		return err
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *out, err)
	}
	return nil
}

func runInspectCommand(args []string, stdout io.Writer) error {
	cfg, err := parseConfig(args)
	if err != nil {
		return err
	}
	path := cfg.ResolvePath(cfg.Dockerfile)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open dockerfile: %w", err)
	}
	defer f.Close()

	info, err := dockerfile.Inspect(f)
	if err != nil {
		return err
	}
	return output.NewService(cfg.Output, stdout).RenderInspect(output.InspectReport{
		Path:     path,
		Info:     info,
		Warnings: info.Warnings(),
	})
}

func runStorageCommand(ctx context.Context, cmd string, args []string, stdout io.Writer) error {
	switch cmd {
	case "db":
		return runDBCommand(ctx, args, stdout)
	case "history":
		return runHistoryCommand(ctx, args, stdout)
	default:
		return fmt.Errorf("unsupported command: %s", cmd)
	}
}

func runDBCommand(ctx context.Context, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("db", pflag.ContinueOnError)
	loc := addStoreFlags(fs)
	olderThan := fs.Int("older-than", 90, "Purge releases older than N days")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("usage: image-release db <vacuum|purge> [--db-path ...]")
	}

	store, err := loc.open()
	if err != nil {
		return err
	}
	defer store.Close()

	switch rest[0] {
	case "vacuum":
		return store.Vacuum(ctx)
	case "purge":
		count, err := store.PurgeOlderThan(ctx, *olderThan)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Purged %d releases\n", count)
		return nil
	default:
		return fmt.Errorf("unsupported db command: %s", rest[0])
	}
}

func runHistoryCommand(ctx context.Context, args []string, stdout io.Writer) error {
	fs := pflag.NewFlagSet("history", pflag.ContinueOnError)
	loc := addStoreFlags(fs)
	image := fs.String("image", "", "Image name filter")
	limit := fs.Int("limit", 20, "Number of rows to list")
	format := fs.StringP("output", "o", "text", "Output format (text, json, or table)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return fmt.Errorf("usage: image-release history <list|show>")
	}

	store, err := loc.open()
	if err != nil {
		return err
	}
	defer store.Close()
	out := output.NewService(*format, stdout)

	switch rest[0] {
	case "list":
		releases, err := store.GetRecentReleases(ctx, *image, *limit)
		if err != nil {
			return err
		}
		return out.RenderHistory(releases)
	case "show":
		if len(rest) < 2 {
			return fmt.Errorf("usage: image-release history show <commit-id>")
		}
		detail, err := store.GetRelease(ctx, rest[1])
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("no release recorded for commit id %q", rest[1])
		}
		if err != nil {
			return err
		}
		return out.RenderReleaseDetail(*detail)
	default:
		return fmt.Errorf("unsupported history command: %s", rest[0])
	}
}

// storeLocation locates the history database the same way a release does:
// --db-path, then IMAGE_RELEASE_DB_PATH, then history.db_path in the config file.
type storeLocation struct {
	workDir    *string
	configPath *string
	dbPath     *string
}

func addStoreFlags(fs *pflag.FlagSet) storeLocation {
	return storeLocation{
		workDir:    fs.StringP("work-dir", "C", ".", "Work tree holding the image-release config file"),
		configPath: fs.StringP("config-path", "c", "", "Path to image-release config file"),
		dbPath:     fs.String("db-path", "", "SQLite database path (default from config, then ~/.image-release/history.db)"),
	}
}

func (l storeLocation) open() (storage.Service, error) {
	cfg, err := loadConfig(model.Flags{
		WorkDir:    *l.workDir,
		ConfigPath: *l.configPath,
		DBPath:     *l.dbPath,
	})
	if err != nil {
		return nil, err
	}
	return storage.NewService(cfg.History.DBPath)
}
