package command

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestExecRunnerCapturesOutput(t *testing.T) {
	requireShell(t)
	var streamed bytes.Buffer
	r := NewRunner(zerolog.Nop())

	res, err := r.Run(context.Background(), Spec{
		Name:   "sh",
		Args:   []string{"-c", "echo hello; read line; echo got-$line"},
		Stdin:  strings.NewReader("input\n"),
		Stdout: &streamed,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello\ngot-input\n", res.Stdout)
	assert.Equal(t, res.Stdout, streamed.String())
	assert.Equal(t, 0, res.ExitCode)
}

func TestExecRunnerExitError(t *testing.T) {
	requireShell(t)
	r := NewRunner(zerolog.Nop())

	res, err := r.Run(context.Background(), Spec{Name: "sh", Args: []string{"-c", "echo first >&2; echo boom >&2; exit 3"}})
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode)
	assert.Equal(t, 3, res.ExitCode)
	assert.Contains(t, err.Error(), "boom")
	assert.NotContains(t, err.Error(), "first")
}

func TestExecRunnerMissingBinary(t *testing.T) {
	r := NewRunner(zerolog.Nop())
	_, err := r.Run(context.Background(), Spec{Name: "definitely-not-a-real-binary-xyz"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDryRunnerPrintsRedactedCommand(t *testing.T) {
	var out bytes.Buffer
	r := NewDryRunner(zerolog.Nop(), &out)

	_, err := r.Run(context.Background(), Spec{
		Name:   "docker",
		Args:   []string{"login", "--password", "s3cret", "registry.example.com"},
		Redact: []string{"s3cret"},
	})
	require.NoError(t, err)
	assert.Equal(t, "+ docker login --password **** registry.example.com\n", out.String())
}

func TestDisplayQuotesArgsWithSpaces(t *testing.T) {
	got := Display(Spec{Name: "docker", Args: []string{"build", "--build-arg", "NOTE=two words"}})
	assert.Equal(t, `docker build --build-arg "NOTE=two words"`, got)
}
