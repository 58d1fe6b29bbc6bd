package output

import (
	"github.com/thirukguru/image-release/model"
	"github.com/thirukguru/image-release/service/dockerfile"
	"github.com/thirukguru/image-release/service/storage"
)

// Format represents the output format type
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

// InspectReport is what the inspect command prints about a Dockerfile.
type InspectReport struct {
	Path     string          `json:"path"`
	Info     dockerfile.Info `json:"info"`
	Warnings []string        `json:"warnings,omitempty"`
}

// Service defines the interface for output operations
type Service interface {
	RenderRelease(result model.ReleaseResult) error
	RenderVersion(info model.VersionInfo) error
	RenderInspect(report InspectReport) error
	RenderHistory(releases []storage.ReleaseSummary) error
	RenderReleaseDetail(detail storage.ReleaseDetail) error
}
