package config

// Config is the resolved release configuration.
type Config struct {
	WorkDir    string            `yaml:"-"`
	Registry   string            `yaml:"registry"`
	Image      string            `yaml:"image"`
	Dockerfile string            `yaml:"dockerfile"`
	Context    string            `yaml:"context"`
	Platform   string            `yaml:"platform"`
	Builder    string            `yaml:"builder"`
	BuildArgs  map[string]string `yaml:"build_args"`
	ExtraTags  []string          `yaml:"extra_tags"`
	CommitID   string            `yaml:"-"`
	DryRun     bool              `yaml:"-"`
	Force      bool              `yaml:"-"`
	Output     string            `yaml:"output"`

	AWS      AWSConfig      `yaml:"aws"`
	Manifest ManifestConfig `yaml:"manifest"`
	History  HistoryConfig  `yaml:"history"`
	Log      LogConfig      `yaml:"log"`
}

// AWSConfig controls ECR access.
type AWSConfig struct {
	Profile       string `yaml:"profile"`
	Region        string `yaml:"region"`
	CreateRepo    bool   `yaml:"create_repository"`
	ImmutableTags bool   `yaml:"immutable_tags"`
	ScanOnPush    *bool  `yaml:"scan_on_push"`
	SkipLogin     bool   `yaml:"skip_login"`
}

// ManifestConfig controls S3 publication of release records.
type ManifestConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// HistoryConfig controls the local release history store.
type HistoryConfig struct {
	Disabled bool   `yaml:"disabled"`
	DBPath   string `yaml:"db_path"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ScanOnPushEnabled reports the effective scan-on-push setting (default on).
func (a AWSConfig) ScanOnPushEnabled() bool {
	return a.ScanOnPush == nil || *a.ScanOnPush
}
