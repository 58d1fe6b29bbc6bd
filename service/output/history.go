package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/thirukguru/image-release/service/storage"
)

const timeFormat = "2006-01-02 15:04:05"

func (s *service) RenderInspect(report InspectReport) error {
	if s.format == FormatJSON {
		return s.writeJSON(report)
	}

	ports := make([]string, 0, len(report.Info.ExposedPorts))
	for _, p := range report.Info.ExposedPorts {
		ports = append(ports, strconv.Itoa(p))
	}
	rows := []table.Row{
		{"Dockerfile", report.Path},
		{"Base images", strings.Join(report.Info.BaseImages, ", ")},
		{"Declares ARG COMMIT_ID", yesNo(report.Info.DeclaresArg)},
		{"ARG default", report.Info.ArgDefault},
		{"Promoted to ENV", yesNo(report.Info.PromotesToEnv)},
		{"Exposed ports", strings.Join(ports, ", ")},
		{"Dependency files", strings.Join(report.Info.DependencyFiles, ", ")},
	}

	if s.format == FormatTable {
		t := s.newTable()
		t.AppendHeader(table.Row{"Field", "Value"})
		t.AppendRows(rows)
		t.Render()
	} else {
		for _, r := range rows {
			fmt.Fprintf(s.w, "%-24s %v\n", fmt.Sprint(r[0])+":", r[1])
		}
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(s.w, "%s %s\n", text.FgYellow.Sprint("warning:"), w)
	}
	return nil
}

func (s *service) RenderHistory(releases []storage.ReleaseSummary) error {
	switch s.format {
	case FormatJSON:
		if releases == nil {
			releases = []storage.ReleaseSummary{}
		}
		return s.writeJSON(releases)
	case FormatTable:
		t := s.newTable()
		t.AppendHeader(table.Row{"ID", "Started", "Commit ID", "Image", "Status", "Step", "Duration"})
		for _, r := range releases {
			t.AppendRow(table.Row{r.ReleaseID, r.StartedAt.Local().Format(timeFormat), r.CommitID, r.Image, colorStatus(r.Status, r.DryRun), r.FailedStep, formatMillis(r.DurationMS)})
		}
		t.Render()
		return nil
	default:
		for _, r := range releases {
			fmt.Fprintf(s.w, "%d\t%s\t%s\t%s\t%s\n", r.ReleaseID, r.StartedAt.Local().Format(timeFormat), r.CommitID, r.Image, statusLabel(r.Status, r.DryRun))
		}
		return nil
	}
}

func (s *service) RenderReleaseDetail(d storage.ReleaseDetail) error {
	if s.format == FormatJSON {
		return s.writeJSON(d)
	}

	rows := []table.Row{
		{"Release", d.ReleaseUUID},
		{"Commit ID", d.CommitID},
		{"Image", d.Image},
		{"Local ref", d.LocalRef},
		{"Remote ref", d.RemoteRef},
		{"Registry", d.Registry},
		{"Status", statusLabel(d.Status, d.DryRun)},
		{"Started", d.StartedAt.Local().Format(timeFormat)},
		{"Duration", formatMillis(d.DurationMS)},
		{"CLI version", d.CLIVersion},
	}
	if len(d.ExtraRefs) > 0 {
		rows = append(rows, table.Row{"Extra tags", strings.Join(d.ExtraRefs, "\n")})
	}
	if d.FailedStep != "" {
		rows = append(rows, table.Row{"Failed step", d.FailedStep}, table.Row{"Error", d.ErrorMessage})
	}
	if d.ManifestURI != "" {
		rows = append(rows, table.Row{"Manifest", d.ManifestURI})
	}
	if d.DryRun {
		rows = append(rows, table.Row{"Dry run", "yes"})
	}

	if s.format == FormatTable {
		t := s.newTable()
		t.AppendHeader(table.Row{"Field", "Value"})
		t.AppendRows(rows)
		t.Render()
		return nil
	}
	for _, r := range rows {
		fmt.Fprintf(s.w, "%-12s %v\n", fmt.Sprint(r[0])+":", r[1])
	}
	return nil
}

func (s *service) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(s.w)
	t.SetStyle(table.StyleRounded)
	return t
}

func statusLabel(status string, dryRun bool) string {
	if dryRun {
		return status + " (dry run)"
	}
	return status
}

func colorStatus(status string, dryRun bool) string {
	label := statusLabel(status, dryRun)
	switch status {
	case "SUCCEEDED":
		return text.FgGreen.Sprint(label)
	case "FAILED":
		return text.FgRed.Sprint(label)
	default:
		return text.FgYellow.Sprint(label)
	}
}

func formatMillis(ms int64) string {
	return strconv.FormatFloat(float64(ms)/1000, 'f', 1, 64) + "s"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
