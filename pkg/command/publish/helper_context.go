package publish

import (
	"context"
	"io"
	"os"

	"github.com/marco79423/kb/pkg/model"
	"github.com/marco79423/kb/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

type contextKey string

const (
	ctxKeyConfig    contextKey = "config"
	ctxKeyLogger    contextKey = "logger"
	ctxKeyStdout    contextKey = "stdout"
	ctxKeyRunner    contextKey = "runner"
	ctxKeyTransport contextKey = "transport"
	ctxKeyConfirmer contextKey = "confirmer"
	ctxKeyGitRepo   contextKey = "gitRepo"
)

type dependencies struct {
	logger    *zap.Logger
	stdout    io.Writer
	runner    util.ICommandRunner
	transport util.IRemoteTransport
	confirmer util.IConfirmer
	gitRepo   util.IGitRepository
}

// 測試時替換成假的依賴
var newContext = prepareContext

// 準備所需要的 Context
func prepareContext(parent context.Context, cfg model.PublishConfig, verbose bool, stdout io.Writer) (context.Context, error) {
	// 建立 logger
	logger, err := util.NewLogger(verbose)
	if err != nil {
		return nil, xerrors.Errorf("準備 Context 失敗: %w", err)
	}

	// 建立傳輸方式
	runner := util.NewCommandRunner(logger)
	transport, err := util.NewRemoteTransport(cfg.Transport, runner, logger)
	if err != nil {
		return nil, xerrors.Errorf("準備 Context 失敗: %w", err)
	}

	// 開啟 git repo，不在 repo 內就略過版本資訊
	var gitRepo util.IGitRepository
	if workDir, err := os.Getwd(); err == nil {
		gitRepo, err = util.NewGitRepo(workDir)
		if err != nil {
			logger.Debug("無法取得 Git Repository", zap.Error(err))
		}
	}

	return withDependencies(parent, cfg, dependencies{
		logger:    logger,
		stdout:    stdout,
		runner:    runner,
		transport: transport,
		confirmer: util.NewConfirmer(),
		gitRepo:   gitRepo,
	}), nil
}

func withDependencies(ctx context.Context, cfg model.PublishConfig, deps dependencies) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxKeyConfig, cfg)
	ctx = context.WithValue(ctx, ctxKeyLogger, deps.logger)
	ctx = context.WithValue(ctx, ctxKeyStdout, deps.stdout)
	ctx = context.WithValue(ctx, ctxKeyRunner, deps.runner)
	ctx = context.WithValue(ctx, ctxKeyTransport, deps.transport)
	ctx = context.WithValue(ctx, ctxKeyConfirmer, deps.confirmer)
	if deps.gitRepo != nil {
		ctx = context.WithValue(ctx, ctxKeyGitRepo, deps.gitRepo)
	}
	return ctx
}

// 釋放 Context 中的資源
func closeContext(ctx context.Context) {
	logger := getCtxLogger(ctx)
	if err := getCtxTransport(ctx).Close(); err != nil {
		logger.Warn("關閉遠端連線失敗", zap.Error(err))
	}
	_ = logger.Sync()
}

func getCtxConfig(ctx context.Context) model.PublishConfig {
	return ctx.Value(ctxKeyConfig).(model.PublishConfig)
}

func getCtxLogger(ctx context.Context) *zap.Logger {
	logger, ok := ctx.Value(ctxKeyLogger).(*zap.Logger)
	if !ok || logger == nil {
		return zap.NewNop()
	}
	return logger
}

func getCtxStdout(ctx context.Context) io.Writer {
	stdout, ok := ctx.Value(ctxKeyStdout).(io.Writer)
	if !ok || stdout == nil {
		return os.Stdout
	}
	return stdout
}

func getCtxRunner(ctx context.Context) util.ICommandRunner {
	return ctx.Value(ctxKeyRunner).(util.ICommandRunner)
}

func getCtxTransport(ctx context.Context) util.IRemoteTransport {
	return ctx.Value(ctxKeyTransport).(util.IRemoteTransport)
}

func getCtxConfirmer(ctx context.Context) util.IConfirmer {
	return ctx.Value(ctxKeyConfirmer).(util.IConfirmer)
}

func getCtxGitRepo(ctx context.Context) (util.IGitRepository, bool) {
	gitRepo, ok := ctx.Value(ctxKeyGitRepo).(util.IGitRepository)
	return gitRepo, ok
}
