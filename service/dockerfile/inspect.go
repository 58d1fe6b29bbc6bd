package dockerfile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/thirukguru/image-release/model"
)

// Inspect scans a Dockerfile for the instructions a release relies on.
// Line continuations are joined; other instructions are ignored.
func Inspect(r io.Reader) (Info, error) {
	var info Info
	scanner := bufio.NewScanner(r)
	var pending strings.Builder
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasSuffix(line, "\\") {
			pending.WriteString(strings.TrimSuffix(line, "\\"))
			pending.WriteByte(' ')
			continue
		}
		pending.WriteString(line)
		inspectInstruction(&info, pending.String())
		pending.Reset()
	}
	if pending.Len() > 0 {
		inspectInstruction(&info, pending.String())
	}
	if err := scanner.Err(); err != nil {
		return Info{}, fmt.Errorf("failed to read dockerfile: %w", err)
	}
	return info, nil
}

func inspectInstruction(info *Info, line string) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return
	}
	args := fields[1:]
	switch strings.ToUpper(fields[0]) {
	case "FROM":
		info.BaseImages = append(info.BaseImages, args[0])
	case "ARG":
		name, def, hasDefault := strings.Cut(strings.Join(args, " "), "=")
		if strings.TrimSpace(name) == model.CommitIDBuildArg {
			info.DeclaresArg = true
			if hasDefault {
				info.ArgDefault = strings.Trim(strings.TrimSpace(def), `"'`)
			}
		}
	case "ENV":
		for _, a := range args {
			name, _, _ := strings.Cut(a, "=")
			if name == model.CommitIDBuildArg {
				info.PromotesToEnv = true
			}
		}
	case "EXPOSE":
		for _, a := range args {
			port, _, _ := strings.Cut(a, "/")
			if n, err := strconv.Atoi(port); err == nil {
				info.ExposedPorts = append(info.ExposedPorts, n)
			}
		}
	case "COPY", "ADD":
		for _, a := range args[:len(args)-1] {
			if strings.HasPrefix(a, "--") {
				continue
			}
			if strings.HasSuffix(a, ".txt") || strings.HasSuffix(a, ".toml") || strings.HasSuffix(a, ".lock") {
				info.DependencyFiles = append(info.DependencyFiles, a)
			}
		}
	}
}

// Warnings lists problems that would stop COMMIT_ID reaching the running container.
func (i Info) Warnings() []string {
	var out []string
	if !i.DeclaresArg {
		out = append(out, fmt.Sprintf("ARG %s is not declared; the build argument will be ignored", model.CommitIDBuildArg))
	} else if !i.PromotesToEnv {
		out = append(out, fmt.Sprintf("ARG %s is not promoted with ENV; it will not be visible at runtime", model.CommitIDBuildArg))
	}
	if len(i.ExposedPorts) == 0 {
		out = append(out, "no EXPOSE instruction found")
	}
	return out
}
