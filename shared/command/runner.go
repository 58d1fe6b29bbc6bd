// Package command runs the external tools a release shells out to (git and
// the image builder).
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned when the requested binary is not on PATH.
var ErrNotFound = errors.New("command not found")

// Spec describes a single invocation.
type Spec struct {
	Name  string
	Args  []string
	Dir   string
	Env   []string
	Stdin io.Reader
	// Stdout and Stderr receive streamed output; Output is always captured.
	Stdout io.Writer
	Stderr io.Writer
	// Redact lists argument values that must not be logged.
	Redact []string
}

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, spec Spec) (Result, error)
}

// ExitError reports a non-zero exit with the tail of stderr.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	if tail := lastLine(e.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

type execRunner struct {
	logger zerolog.Logger
}

// NewRunner returns a Runner backed by os/exec.
func NewRunner(logger zerolog.Logger) Runner {
	return &execRunner{logger: logger}
}

func (r *execRunner) Run(ctx context.Context, spec Spec) (Result, error) {
	path, err := exec.LookPath(spec.Name)
	if err != nil {
		return Result{ExitCode: -1}, fmt.Errorf("%w: %s", ErrNotFound, spec.Name)
	}

	cmd := exec.CommandContext(ctx, path, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.Stdin = spec.Stdin
	cmd.WaitDelay = 5 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = teeWriter(&stdout, spec.Stdout)
	cmd.Stderr = teeWriter(&stderr, spec.Stderr)

	r.logger.Debug().Str("cmd", Display(spec)).Str("dir", spec.Dir).Msg("running command")

	start := time.Now()
	err = cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, fmt.Errorf("%s: %w", spec.Name, ctxErr)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return res, &ExitError{Command: Display(spec), ExitCode: exitErr.ExitCode(), Stderr: res.Stderr}
		}
		return res, fmt.Errorf("failed to run %s: %w", spec.Name, err)
	}
	return res, nil
}

type dryRunner struct {
	logger zerolog.Logger
	out    io.Writer
}

// NewDryRunner returns a Runner that prints each command instead of running it.
// Read-only commands still need a real runner; callers pick per tool.
func NewDryRunner(logger zerolog.Logger, out io.Writer) Runner {
	return &dryRunner{logger: logger, out: out}
}

func (r *dryRunner) Run(_ context.Context, spec Spec) (Result, error) {
	line := Display(spec)
	r.logger.Info().Str("cmd", line).Msg("dry-run: skipping command")
	if r.out != nil {
		fmt.Fprintf(r.out, "+ %s\n", line)
	}
	return Result{}, nil
}

// Display renders the command line with redacted values masked.
func Display(spec Spec) string {
	parts := make([]string, 0, len(spec.Args)+1)
	parts = append(parts, spec.Name)
	for _, a := range spec.Args {
		for _, secret := range spec.Redact {
			if secret != "" && strings.Contains(a, secret) {
				a = strings.ReplaceAll(a, secret, "****")
			}
		}
		if strings.ContainsAny(a, " \t\"'") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

func teeWriter(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
