package util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

type ICommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// ExitError 外部指令以非 0 結束
type ExitError struct {
	Command string
	Code    int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("指令 %q 結束代碼 %d", e.Command, e.Code)
}

// NewCommandRunner 建立執行外部指令的 runner，標準輸入輸出直接沿用目前的 process
func NewCommandRunner(logger *zap.Logger) ICommandRunner {
	return &commandRunner{
		logger: logger,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

type commandRunner struct {
	logger *zap.Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func (r *commandRunner) Run(ctx context.Context, name string, args ...string) error {
	commandLine := strings.Join(append([]string{name}, args...), " ")
	r.logger.Debug("執行外部指令", zap.String("cmd", commandLine))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Command: commandLine, Code: exitErr.ExitCode()}
		}
		return xerrors.Errorf("執行指令 %q 失敗: %w", commandLine, err)
	}

	return nil
}
