package util

import (
	"context"
	"strconv"

	"github.com/marco79423/kb/pkg/model"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

type IRemoteTransport interface {
	// RunRemoteCommand 在遠端主機執行指令
	RunRemoteCommand(ctx context.Context, host, command string) error
	// CopyFiles 將本地檔案複製到遠端目錄，同名檔案會被覆蓋
	CopyFiles(ctx context.Context, paths []string, host, remoteDir string) error
	Close() error
}

// NewRemoteTransport 依設定建立對應的傳輸方式
func NewRemoteTransport(cfg model.TransportConfig, runner ICommandRunner, logger *zap.Logger) (IRemoteTransport, error) {
	switch cfg.Kind {
	case model.TransportExec, "":
		return NewExecTransport(cfg, runner, logger), nil
	case model.TransportNative:
		return NewSSHTransport(cfg, logger), nil
	default:
		return nil, xerrors.Errorf("不支援的傳輸方式 %q", cfg.Kind)
	}
}

// NewExecTransport 透過本機的 ssh / scp 指令傳輸
func NewExecTransport(cfg model.TransportConfig, runner ICommandRunner, logger *zap.Logger) IRemoteTransport {
	return &execTransport{
		cfg:    cfg,
		runner: runner,
		logger: logger,
	}
}

type execTransport struct {
	cfg    model.TransportConfig
	runner ICommandRunner
	logger *zap.Logger
}

func (t *execTransport) RunRemoteCommand(ctx context.Context, host, command string) error {
	t.logger.Debug("透過 ssh 執行遠端指令", zap.String("host", host), zap.String("cmd", command))

	args := []string{}
	if t.cfg.Port != 0 {
		args = append(args, "-p", strconv.Itoa(t.cfg.Port))
	}
	if t.cfg.KeyFile != "" {
		args = append(args, "-i", t.cfg.KeyFile)
	}
	// -- 之後不再解析選項，避免以 - 開頭的主機名稱被當成 ssh 選項
	args = append(args, "--", t.cfg.Target(host), command)

	if err := t.runner.Run(ctx, "ssh", args...); err != nil {
		return xerrors.Errorf("執行遠端指令 %q 失敗: %w", command, err)
	}
	return nil
}

func (t *execTransport) CopyFiles(ctx context.Context, paths []string, host, remoteDir string) error {
	if len(paths) == 0 {
		return xerrors.New("沒有要複製的檔案")
	}
	t.logger.Debug("透過 scp 複製檔案", zap.String("host", host), zap.String("dir", remoteDir), zap.Strings("files", paths))

	args := []string{}
	if t.cfg.Port != 0 {
		args = append(args, "-P", strconv.Itoa(t.cfg.Port))
	}
	if t.cfg.KeyFile != "" {
		args = append(args, "-i", t.cfg.KeyFile)
	}
	args = append(args, "--")
	args = append(args, paths...)
	args = append(args, t.cfg.Target(host)+":"+remoteDir)

	if err := t.runner.Run(ctx, "scp", args...); err != nil {
		return xerrors.Errorf("複製檔案到 %s:%s 失敗: %w", host, remoteDir, err)
	}
	return nil
}

func (t *execTransport) Close() error {
	return nil
}
