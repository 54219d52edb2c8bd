package util

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRunner(stdout *bytes.Buffer) *commandRunner {
	return &commandRunner{
		logger: zap.NewNop(),
		stdin:  bytes.NewReader(nil),
		stdout: stdout,
		stderr: stdout,
	}
}

func TestCommandRunnerSuccess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	var out bytes.Buffer
	err := newTestRunner(&out).Run(context.Background(), "sh", "-c", "echo built")
	require.NoError(t, err)
	assert.Equal(t, "built\n", out.String())
}

func TestCommandRunnerExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}

	var out bytes.Buffer
	err := newTestRunner(&out).Run(context.Background(), "sh", "-c", "exit 3")

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.Code)
}

func TestCommandRunnerMissingBinary(t *testing.T) {
	var out bytes.Buffer
	err := newTestRunner(&out).Run(context.Background(), "kb-definitely-not-installed")
	require.Error(t, err)

	var exitErr *ExitError
	assert.False(t, errors.As(err, &exitErr))
	assert.True(t, errors.Is(err, exec.ErrNotFound))
	assert.Contains(t, err.Error(), "kb-definitely-not-installed")
}
