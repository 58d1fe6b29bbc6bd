// Package output renders release results to stdout.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/thirukguru/image-release/model"
)

type service struct {
	format Format
	w      io.Writer
}

// NewService creates a new output service with the specified format
func NewService(format string, w io.Writer) Service {
	f := FormatText
	switch format {
	case "json":
		f = FormatJSON
	case "table":
		f = FormatTable
	}
	return &service{format: f, w: w}
}

func (s *service) RenderRelease(result model.ReleaseResult) error {
	switch s.format {
	case FormatJSON:
		return s.writeJSON(result)
	case FormatTable:
		t := s.newTable()
		t.AppendHeader(table.Row{"Field", "Value"})
		t.AppendRow(table.Row{"Commit ID", result.CommitID})
		t.AppendRow(table.Row{"Status", colorStatus(result.Status, false)})
		t.AppendRow(table.Row{"Image", result.RemoteRef})
		if len(result.ExtraRefs) > 0 {
			t.AppendRow(table.Row{"Extra tags", strings.Join(result.ExtraRefs, "\n")})
		}
		if result.ManifestURI != "" {
			t.AppendRow(table.Row{"Manifest", result.ManifestURI})
		}
		if result.Error != "" {
			t.AppendRow(table.Row{"Failed step", result.FailedStep})
			t.AppendRow(table.Row{"Error", result.Error})
		}
		if result.DryRun {
			t.AppendRow(table.Row{"Dry run", "yes"})
		}
		t.AppendRow(table.Row{"Duration", result.Duration})
		t.Render()
		return nil
	default:
		_, err := fmt.Fprintln(s.w, result.CommitID)
		return err
	}
}

func (s *service) RenderVersion(info model.VersionInfo) error {
	if s.format == FormatJSON {
		return s.writeJSON(info)
	}
	_, err := fmt.Fprintf(s.w, "image-release version %s\ncommit: %s\nbuilt at: %s\n", info.Version, info.Commit, info.Date)
	return err
}

func (s *service) writeJSON(v any) error {
	enc := json.NewEncoder(s.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json output: %w", err)
	}
	return nil
}
