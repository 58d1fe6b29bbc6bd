// Package main is the entry point for the image-release application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/thirukguru/image-release/model"
	"github.com/thirukguru/image-release/service/config"
	"github.com/thirukguru/image-release/service/flag"
	"github.com/thirukguru/image-release/service/output"
	"github.com/thirukguru/image-release/shared/ansi"
	"github.com/thirukguru/image-release/shared/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ansi.EnableANSI()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) > 0 {
		switch args[0] {
		case "commit-id":
			return runCommitIDCommand(ctx, args[1:], stdout)
		case "render":
			return runRenderCommand(args[1:], stdout)
		case "inspect":
			return runInspectCommand(args[1:], stdout)
		case "db", "history":
			return runStorageCommand(ctx, args[0], args[1:], stdout)
		}
	}

	flags, err := flag.NewService().GetParsedFlags(args)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("failed to parse flags: %w", err)
	}

	versionInfo := model.VersionInfo{Version: version, Commit: commit, Date: date}
	if flags.Version {
		return output.NewService(flags.Output, stdout).RenderVersion(versionInfo)
	}

	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	return runRelease(ctx, cfg, versionInfo, stdout)
}

// parseConfig parses args with the release flag set and loads the effective configuration.
func parseConfig(args []string) (config.Config, error) {
	flags, err := flag.NewService().GetParsedFlags(args)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to parse flags: %w", err)
	}
	return loadConfig(flags)
}

func loadConfig(flags model.Flags) (config.Config, error) {
	cfg, err := config.Load(flags, os.LookupEnv)
	if err != nil {
		return config.Config{}, err
	}
	abs, err := filepath.Abs(cfg.WorkDir)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to resolve work dir: %w", err)
	}
	cfg.WorkDir = abs

	logging.Configure(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Version: version,
	})
	return cfg, nil
}
