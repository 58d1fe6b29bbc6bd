package model

// Flags represents the command line flags for a release run.
type Flags struct {
	ConfigPath     string
	WorkDir        string
	Registry       string
	Image          string
	Dockerfile     string
	Context        string
	Platform       string
	Builder        string
	BuildArgs      []string
	ExtraTags      []string
	CommitID       string
	Profile        string
	Region         string
	CreateRepo     bool
	SkipLogin      bool
	Force          bool
	DryRun         bool
	NoStore        bool
	DBPath         string
	ManifestBucket string
	Output         string
	LogLevel       string
	LogFormat      string
	Version        bool
}
