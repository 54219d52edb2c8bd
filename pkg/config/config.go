package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marco79423/kb/pkg/model"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

const DefaultFileName = ".kb-publish.yaml"

// Settings 設定檔內容，hostname 與 scp-loc 只能從參數指定
type Settings struct {
	Build     model.BuildConfig     `yaml:"build"`
	Transport model.TransportConfig `yaml:"transport"`
}

func Default() Settings {
	return Settings{
		Build: model.BuildConfig{
			Command:   []string{"mdbook", "build"},
			OutputDir: "book",
		},
		Transport: model.TransportConfig{
			Kind:           model.TransportExec,
			KnownHostsFile: filepath.Join("~", ".ssh", "known_hosts"),
			DialTimeout:    10 * time.Second,
		},
	}
}

// Load 讀取設定檔，沒寫到的欄位保留預設值
//
// 若 explicit 為 false 且檔案不存在，直接回傳預設值
func Load(path string, explicit bool) (Settings, error) {
	settings := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return Settings{}, xerrors.Errorf("讀取設定檔失敗: %w", err)
	}

	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return Settings{}, xerrors.Errorf("解析設定檔 %s 失敗: %w", path, err)
	}

	return settings, nil
}

// Validate 檢查設定值並展開路徑中的 ~
func (s *Settings) Validate() error {
	if len(s.Build.Command) == 0 || strings.TrimSpace(s.Build.Command[0]) == "" {
		return xerrors.New("建置指令不可為空")
	}
	if s.Build.OutputDir == "" {
		return xerrors.New("建置輸出目錄不可為空")
	}

	switch s.Transport.Kind {
	case model.TransportExec, model.TransportNative:
	default:
		return xerrors.Errorf("不支援的傳輸方式 %q (可用: %s, %s)", s.Transport.Kind, model.TransportExec, model.TransportNative)
	}

	if s.Transport.Port < 0 || s.Transport.Port > 65535 {
		return xerrors.Errorf("不合法的連接埠 %d", s.Transport.Port)
	}

	keyFile, err := homedir.Expand(s.Transport.KeyFile)
	if err != nil {
		return xerrors.Errorf("展開 Private Key 路徑失敗: %w", err)
	}
	s.Transport.KeyFile = keyFile

	knownHostsFile, err := homedir.Expand(s.Transport.KnownHostsFile)
	if err != nil {
		return xerrors.Errorf("展開 known_hosts 路徑失敗: %w", err)
	}
	s.Transport.KnownHostsFile = knownHostsFile

	return nil
}
