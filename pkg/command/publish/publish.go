package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marco79423/kb/pkg/config"
	"github.com/marco79423/kb/pkg/model"
	"github.com/marco79423/kb/pkg/util"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
)

// NewApp 建立 kb 指令
func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "kb"
	app.Usage = "建置知識庫並發布到遠端主機"
	app.UsageText = "kb --hostname <HOSTNAME> --scp-loc <REMOTE_DIR> [選項]"
	app.HideHelp = true
	app.Flags = Flags()
	app.Action = Action
	app.OnUsageError = func(c *cli.Context, err error, isSubcommand bool) error {
		_ = cli.ShowAppHelp(c)
		return xerrors.Errorf("%s: %w", err.Error(), ErrUsage)
	}
	return app
}

func Flags() []cli.Flag {
	// --scp-loc 與 -s 共用同一個值，兩者合計只能出現一次
	remoteDirectory := &onceValue{}

	return []cli.Flag{
		&cli.GenericFlag{
			Name:  "hostname",
			Usage: "遠端主機名稱或 IP",
			Value: &onceValue{},
		},
		&cli.GenericFlag{
			Name:  "scp-loc",
			Usage: "遠端目錄，必須以 /kb 結尾 (也可用 -s)",
			Value: remoteDirectory,
		},
		&cli.GenericFlag{
			Name:   "s",
			Hidden: true,
			Value:  remoteDirectory,
		},
		&cli.PathFlag{
			Name:  "config",
			Usage: "設定檔路徑",
			Value: config.DefaultFileName,
		},
		&cli.StringFlag{
			Name:  "build-cmd",
			Usage: "建置指令 (預設 mdbook build)",
		},
		&cli.PathFlag{
			Name:  "book-dir",
			Usage: "建置輸出目錄 (預設 book)",
		},
		&cli.StringFlag{
			Name:  "transport",
			Usage: "傳輸方式: exec (使用 ssh/scp 指令) 或 native",
		},
		&cli.StringFlag{
			Name:  "user",
			Usage: "遠端使用者",
		},
		&cli.IntFlag{
			Name:  "port",
			Usage: "SSH 連接埠",
		},
		&cli.PathFlag{
			Name:    "keyfile",
			Aliases: []string{"f"},
			Usage:   "Private Key 檔案路徑",
		},
		&cli.StringFlag{
			Name:  "keyfile-password",
			Usage: "Private Key 的密碼",
		},
		&cli.PathFlag{
			Name:  "known-hosts",
			Usage: "known_hosts 檔案路徑 (native)",
		},
		&cli.BoolFlag{
			Name:  "insecure-host-key",
			Usage: "不驗證遠端 host key (native)",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "顯示除錯訊息",
		},
		&cli.BoolFlag{
			Name:    "help",
			Aliases: []string{"h"},
			Usage:   "顯示說明",
		},
	}
}

func Action(c *cli.Context) error {
	cfg, err := parseOptions(c)
	if err != nil {
		return err
	}

	ctx, err := newContext(c.Context, cfg, c.Bool("verbose"), c.App.Writer)
	if err != nil {
		return xerrors.Errorf("程式執行失敗: %w", err)
	}
	defer closeContext(ctx)

	if err := publish(ctx); err != nil {
		return xerrors.Errorf("程式執行失敗: %w", err)
	}
	return nil
}

// 解析並檢查參數
func parseOptions(c *cli.Context) (model.PublishConfig, error) {
	if c.Bool("help") {
		_ = cli.ShowAppHelp(c)
		return model.PublishConfig{}, xerrors.Errorf("顯示說明: %w", ErrUsage)
	}

	if c.Args().Present() {
		_ = cli.ShowAppHelp(c)
		return model.PublishConfig{}, xerrors.Errorf("不接受的參數 %v: %w", c.Args().Slice(), ErrUsage)
	}

	remoteDirectory := parseOnceValue(c.Generic("scp-loc"))
	if remoteDirectory == "" {
		_ = cli.ShowAppHelp(c)
		return model.PublishConfig{}, xerrors.Errorf("缺少 --scp-loc: %w", ErrUsage)
	}

	hostname := parseOnceValue(c.Generic("hostname"))
	if hostname == "" {
		_ = cli.ShowAppHelp(c)
		return model.PublishConfig{}, xerrors.Errorf("缺少 --hostname: %w", ErrUsage)
	}

	if err := validateRemoteDirectory(remoteDirectory); err != nil {
		fmt.Fprintf(c.App.Writer, "警告: 發布時會先刪除遠端目錄 %s 下的檔案，但這個目錄不是 kb 目錄，為了安全不會執行\n", remoteDirectory)
		return model.PublishConfig{}, err
	}

	settings, err := loadSettings(c)
	if err != nil {
		return model.PublishConfig{}, xerrors.Errorf("%s: %w", err.Error(), ErrUsage)
	}

	return model.PublishConfig{
		Hostname:        hostname,
		RemoteDirectory: remoteDirectory,
		Build:           settings.Build,
		Transport:       settings.Transport,
	}, nil
}

// 讀取設定檔，有指定的參數優先
func loadSettings(c *cli.Context) (config.Settings, error) {
	settings, err := config.Load(c.Path("config"), c.IsSet("config"))
	if err != nil {
		return config.Settings{}, err
	}

	if c.IsSet("build-cmd") {
		command, err := parseBuildCommand(c.String("build-cmd"))
		if err != nil {
			return config.Settings{}, err
		}
		settings.Build.Command = command
	}
	if c.IsSet("book-dir") {
		settings.Build.OutputDir = c.Path("book-dir")
	}
	if c.IsSet("transport") {
		settings.Transport.Kind = c.String("transport")
	}
	if c.IsSet("user") {
		settings.Transport.User = c.String("user")
	}
	if c.IsSet("port") {
		settings.Transport.Port = c.Int("port")
	}
	if c.IsSet("keyfile") {
		settings.Transport.KeyFile = c.Path("keyfile")
	}
	if c.IsSet("keyfile-password") {
		settings.Transport.KeyFilePassword = c.String("keyfile-password")
	}
	if c.IsSet("known-hosts") {
		settings.Transport.KnownHostsFile = c.Path("known-hosts")
	}
	if c.IsSet("insecure-host-key") {
		settings.Transport.InsecureHostKey = c.Bool("insecure-host-key")
	}

	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

// 發布知識庫
func publish(ctx context.Context) error {
	cfg := getCtxConfig(ctx)
	out := getCtxStdout(ctx)

	// 顯示來源版本
	showRevision(ctx)

	// 確認是否要覆蓋遠端檔案
	fmt.Fprintf(out, "警告: 接下來會刪除並覆蓋 %s:%s 上的 HTML 與搜尋索引檔案\n", cfg.Hostname, cfg.RemoteDirectory)
	if !getCtxConfirmer(ctx).Confirm("確定要繼續嗎?") {
		return ErrUserAborted
	}

	// 建置
	output, err := buildBook(ctx)
	if err != nil {
		return xerrors.Errorf("發布失敗: %w", err)
	}

	// 刪除遠端舊檔並上傳
	if err := syncRemote(ctx, output); err != nil {
		return xerrors.Errorf("發布失敗: %w", err)
	}

	fmt.Fprintf(out, "已發布 %d 個 HTML 檔案到 %s:%s\n", len(output.HTMLFiles), cfg.Hostname, cfg.RemoteDirectory)
	return nil
}

func showRevision(ctx context.Context) {
	gitRepo, ok := getCtxGitRepo(ctx)
	if !ok {
		return
	}

	revision, err := gitRepo.HeadRevision()
	if err != nil {
		getCtxLogger(ctx).Warn("取得 Git 版本失敗", zap.Error(err))
		return
	}

	out := getCtxStdout(ctx)
	fmt.Fprintf(out, "發布版本: %s\n", revision.String())
	if revision.Dirty {
		fmt.Fprintln(out, "注意: 工作目錄有尚未提交的變更")
	}
}

// 執行建置指令並收集產物
func buildBook(ctx context.Context) (model.BuildOutput, error) {
	cfg := getCtxConfig(ctx)
	logger := getCtxLogger(ctx)

	logger.Info("開始建置", zap.Strings("cmd", cfg.Build.Command))
	if err := getCtxRunner(ctx).Run(ctx, cfg.Build.Command[0], cfg.Build.Command[1:]...); err != nil {
		var exitErr *util.ExitError
		if errors.As(err, &exitErr) {
			return model.BuildOutput{}, &BuildError{ExitCode: exitErr.Code, Err: err}
		}
		return model.BuildOutput{}, &BuildError{ExitCode: 1, Err: err}
	}

	output, err := collectBuildOutput(cfg.Build.OutputDir)
	if err != nil {
		return model.BuildOutput{}, &BuildError{ExitCode: 1, Err: err}
	}
	return output, nil
}

func collectBuildOutput(outputDir string) (model.BuildOutput, error) {
	htmlFiles, err := filepath.Glob(filepath.Join(outputDir, "*.html"))
	if err != nil {
		return model.BuildOutput{}, xerrors.Errorf("搜尋 HTML 檔案失敗: %w", err)
	}
	if len(htmlFiles) == 0 {
		return model.BuildOutput{}, xerrors.Errorf("%s 中沒有 HTML 檔案", outputDir)
	}

	output := model.BuildOutput{
		HTMLFiles:       htmlFiles,
		SearchIndexJS:   filepath.Join(outputDir, model.SearchIndexJS),
		SearchIndexJSON: filepath.Join(outputDir, model.SearchIndexJSON),
	}
	for _, path := range []string{output.SearchIndexJS, output.SearchIndexJSON} {
		if _, err := os.Stat(path); err != nil {
			return model.BuildOutput{}, xerrors.Errorf("找不到建置產物: %w", err)
		}
	}

	return output, nil
}

type transferStep struct {
	name string
	run  func() error
}

// 刪除遠端的舊檔案後上傳新檔案，任何一步失敗就停止
func syncRemote(ctx context.Context, output model.BuildOutput) error {
	cfg := getCtxConfig(ctx)
	logger := getCtxLogger(ctx)
	transport := getCtxTransport(ctx)

	host := cfg.Hostname
	dir := cfg.RemoteDirectory

	remove := func(target string) func() error {
		return func() error {
			return transport.RunRemoteCommand(ctx, host, "rm -f "+target)
		}
	}
	upload := func(paths ...string) func() error {
		return func() error {
			return transport.CopyFiles(ctx, paths, host, dir)
		}
	}

	steps := []transferStep{
		// glob 放在引號外讓遠端 shell 展開
		{name: "刪除遠端 HTML 檔案", run: remove(util.ShellQuotePath(dir) + "/*.html")},
		{name: "刪除遠端 " + model.SearchIndexJS, run: remove(util.ShellQuotePath(dir + "/" + model.SearchIndexJS))},
		{name: "刪除遠端 " + model.SearchIndexJSON, run: remove(util.ShellQuotePath(dir + "/" + model.SearchIndexJSON))},
		{name: "上傳 HTML 檔案", run: upload(output.HTMLFiles...)},
		{name: "上傳 " + model.SearchIndexJS, run: upload(output.SearchIndexJS)},
		{name: "上傳 " + model.SearchIndexJSON, run: upload(output.SearchIndexJSON)},
	}

	for _, step := range steps {
		logger.Info(step.name, zap.String("host", host), zap.String("dir", dir))
		if err := step.run(); err != nil {
			logger.Error("遠端傳輸失敗，遠端目錄可能只更新了一部分", zap.String("step", step.name), zap.Error(err))
			return &TransferError{Step: step.name, Err: err}
		}
	}

	return nil
}
