// Package config resolves release configuration from an optional YAML file,
// IMAGE_RELEASE_* environment variables and command line flags, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/thirukguru/image-release/model"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the work tree when no config path is given.
const DefaultFileName = ".image-release.yaml"

const envPrefix = "IMAGE_RELEASE_"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		WorkDir:    ".",
		Dockerfile: "Dockerfile",
		Context:    ".",
		Builder:    "docker",
		Output:     "text",
		BuildArgs:  map[string]string{},
		Manifest:   ManifestConfig{Prefix: "releases/"},
	}
}

// Load builds the effective configuration for flags. lookupEnv is normally os.LookupEnv.
func Load(flags model.Flags, lookupEnv func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if flags.WorkDir != "" {
		cfg.WorkDir = flags.WorkDir
	}

	path, explicit := flags.ConfigPath, flags.ConfigPath != ""
	if !explicit {
		path = filepath.Join(cfg.WorkDir, DefaultFileName)
	}
	if err := mergeFile(&cfg, path, explicit); err != nil {
		return Config{}, err
	}
	if err := mergeEnv(&cfg, lookupEnv); err != nil {
		return Config{}, err
	}
	mergeFlags(&cfg, flags)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	overlay(cfg, fileCfg)
	return nil
}

// overlay copies every non-zero field of src onto dst.
func overlay(dst *Config, src Config) {
	setString(&dst.Registry, src.Registry)
	setString(&dst.Image, src.Image)
	setString(&dst.Dockerfile, src.Dockerfile)
	setString(&dst.Context, src.Context)
	setString(&dst.Platform, src.Platform)
	setString(&dst.Builder, src.Builder)
	setString(&dst.Output, src.Output)
	for k, v := range src.BuildArgs {
		dst.BuildArgs[k] = v
	}
	if len(src.ExtraTags) > 0 {
		dst.ExtraTags = append([]string(nil), src.ExtraTags...)
	}

	setString(&dst.AWS.Profile, src.AWS.Profile)
	setString(&dst.AWS.Region, src.AWS.Region)
	dst.AWS.CreateRepo = dst.AWS.CreateRepo || src.AWS.CreateRepo
	dst.AWS.ImmutableTags = dst.AWS.ImmutableTags || src.AWS.ImmutableTags
	dst.AWS.SkipLogin = dst.AWS.SkipLogin || src.AWS.SkipLogin
	if src.AWS.ScanOnPush != nil {
		dst.AWS.ScanOnPush = src.AWS.ScanOnPush
	}

	setString(&dst.Manifest.Bucket, src.Manifest.Bucket)
	setString(&dst.Manifest.Prefix, src.Manifest.Prefix)
	dst.History.Disabled = dst.History.Disabled || src.History.Disabled
	setString(&dst.History.DBPath, src.History.DBPath)
	setString(&dst.Log.Level, src.Log.Level)
	setString(&dst.Log.Format, src.Log.Format)
}

func mergeEnv(cfg *Config, lookupEnv func(string) (string, bool)) error {
	if lookupEnv == nil {
		return nil
	}
	str := func(name string, dst *string) {
		if v, ok := lookupEnv(envPrefix + name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("REGISTRY", &cfg.Registry)
	str("IMAGE", &cfg.Image)
	str("DOCKERFILE", &cfg.Dockerfile)
	str("CONTEXT", &cfg.Context)
	str("PLATFORM", &cfg.Platform)
	str("BUILDER", &cfg.Builder)
	str("OUTPUT", &cfg.Output)
	str("MANIFEST_BUCKET", &cfg.Manifest.Bucket)
	str("DB_PATH", &cfg.History.DBPath)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)
	str("AWS_PROFILE", &cfg.AWS.Profile)
	str("AWS_REGION", &cfg.AWS.Region)

	if v, ok := lookupEnv(model.CommitIDBuildArg); ok && strings.TrimSpace(v) != "" {
		cfg.CommitID = strings.TrimSpace(v)
	}
	if v, ok := lookupEnv(envPrefix + "EXTRA_TAGS"); ok && strings.TrimSpace(v) != "" {
		cfg.ExtraTags = splitList(v)
	}
	if v, ok := lookupEnv(envPrefix + "CREATE_REPO"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sCREATE_REPO=%q: %v", ErrInvalid, envPrefix, v, err)
		}
		cfg.AWS.CreateRepo = b
	}
	return nil
}

func mergeFlags(cfg *Config, flags model.Flags) {
	setString(&cfg.Registry, flags.Registry)
	setString(&cfg.Image, flags.Image)
	setString(&cfg.Dockerfile, flags.Dockerfile)
	setString(&cfg.Context, flags.Context)
	setString(&cfg.Platform, flags.Platform)
	setString(&cfg.Builder, flags.Builder)
	setString(&cfg.CommitID, flags.CommitID)
	setString(&cfg.Output, flags.Output)
	setString(&cfg.AWS.Profile, flags.Profile)
	setString(&cfg.AWS.Region, flags.Region)
	setString(&cfg.Manifest.Bucket, flags.ManifestBucket)
	setString(&cfg.History.DBPath, flags.DBPath)
	setString(&cfg.Log.Level, flags.LogLevel)
	setString(&cfg.Log.Format, flags.LogFormat)

	for _, kv := range flags.BuildArgs {
		k, v, _ := strings.Cut(kv, "=")
		if k = strings.TrimSpace(k); k != "" {
			cfg.BuildArgs[k] = v
		}
	}
	if len(flags.ExtraTags) > 0 {
		cfg.ExtraTags = flags.ExtraTags
	}
	cfg.AWS.CreateRepo = cfg.AWS.CreateRepo || flags.CreateRepo
	cfg.AWS.SkipLogin = cfg.AWS.SkipLogin || flags.SkipLogin
	cfg.History.Disabled = cfg.History.Disabled || flags.NoStore
	cfg.DryRun = flags.DryRun
	cfg.Force = flags.Force
}

// Validate checks the configuration for a release run.
func (c Config) Validate() error {
	switch c.Output {
	case "text", "json", "table":
	default:
		return fmt.Errorf("%w: output must be text, json or table, got %q", ErrInvalid, c.Output)
	}
	if strings.TrimSpace(c.Builder) == "" {
		return fmt.Errorf("%w: builder binary is required", ErrInvalid)
	}
	for _, tag := range c.ExtraTags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("%w: extra tags must not be empty", ErrInvalid)
		}
	}
	return nil
}

// ValidateForRelease adds the checks that only matter when an image is built.
func (c Config) ValidateForRelease() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Image) == "" {
		return fmt.Errorf("%w: image name is required (--image, %sIMAGE or config file)", ErrInvalid, envPrefix)
	}
	return nil
}

// ResolvePath joins p onto the work dir unless it is absolute.
func (c Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.WorkDir, p)
}

func setString(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
