package publish

import (
	"strings"

	"github.com/mattn/go-shellwords"
	"golang.org/x/xerrors"
)

const remoteDirectorySuffix = "/kb"

// onceValue 只能被指定一次的參數值
type onceValue struct {
	value string
	count int
}

func (v *onceValue) Set(value string) error {
	v.count++
	if v.count > 1 {
		return xerrors.New("參數只能指定一次")
	}
	v.value = value
	return nil
}

func (v *onceValue) String() string {
	if v == nil {
		return ""
	}
	return v.value
}

func parseOnceValue(raw interface{}) string {
	v, ok := raw.(*onceValue)
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(v.value)
}

// validateRemoteDirectory 遠端目錄必須以 /kb 結尾，避免誤刪其他目錄
func validateRemoteDirectory(remoteDirectory string) error {
	if !strings.HasSuffix(remoteDirectory, remoteDirectorySuffix) {
		return xerrors.Errorf("%s: %w", remoteDirectory, ErrUnsafeDestination)
	}
	return nil
}

// parseBuildCommand 依 shell 的引號規則切分建置指令，不展開環境變數與反引號
func parseBuildCommand(rawCommand string) ([]string, error) {
	fields, err := shellwords.Parse(rawCommand)
	if err != nil {
		return nil, xerrors.Errorf("解析建置指令失敗: %w", err)
	}
	if len(fields) == 0 || strings.TrimSpace(fields[0]) == "" {
		return nil, xerrors.New("建置指令不可為空")
	}
	return fields, nil
}
