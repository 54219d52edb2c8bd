package publish

import (
	"errors"
	"fmt"

	"golang.org/x/xerrors"
)

var (
	ErrUsage             = xerrors.New("參數錯誤")
	ErrUnsafeDestination = xerrors.New("遠端目錄不是 kb 目錄，拒絕執行刪除")
	ErrUserAborted       = xerrors.New("使用者取消發布")
)

// BuildError 建置失敗，ExitCode 為建置指令的結束代碼
type BuildError struct {
	ExitCode int
	Err      error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("建置失敗 (結束代碼 %d): %v", e.ExitCode, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// TransferError 遠端刪除或上傳失敗，Step 為失敗的步驟
type TransferError struct {
	Step string
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("遠端傳輸失敗 (%s): %v", e.Step, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// ExitCode 取得錯誤對應的 process 結束代碼
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var buildErr *BuildError
	if errors.As(err, &buildErr) && buildErr.ExitCode != 0 {
		return buildErr.ExitCode
	}
	return 1
}
