package dockerfile

// Recipe describes the application image the release builds.
type Recipe struct {
	BaseImage       string
	Manifest        string
	WorkDir         string
	Port            int
	Module          string
	AppObject       string
	DefaultCommitID string
}

// Info is what Inspect learns about an existing Dockerfile.
type Info struct {
	BaseImages      []string `json:"base_images"`
	DeclaresArg     bool     `json:"declares_commit_id_arg"`
	ArgDefault      string   `json:"commit_id_default,omitempty"`
	PromotesToEnv   bool     `json:"promotes_to_env"`
	ExposedPorts    []int    `json:"exposed_ports"`
	DependencyFiles []string `json:"dependency_files,omitempty"`
}

// Variant is a named recipe.
type Variant struct {
	Name   string
	Recipe Recipe
}
