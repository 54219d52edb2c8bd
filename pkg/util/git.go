package util

import (
	"github.com/go-git/go-git/v5"
	"github.com/marco79423/kb/pkg/model"
	"golang.org/x/xerrors"
)

type IGitRepository interface {
	HeadRevision() (model.Revision, error)
}

// NewGitRepo 開啟 repoPath 所在的 Git Repository，會往上層尋找 .git
//
// 不在 Git Repository 內時回傳 git.ErrRepositoryNotExists
func NewGitRepo(repoPath string) (IGitRepository, error) {
	repository, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, xerrors.Errorf("取得 Git Repository 失敗: %w", err)
	}

	return &gitRepository{
		repo: repository,
	}, nil
}

type gitRepository struct {
	repo *git.Repository
}

func (gitRepo *gitRepository) HeadRevision() (model.Revision, error) {
	headRef, err := gitRepo.repo.Head()
	if err != nil {
		return model.Revision{}, xerrors.Errorf("取得 Git HEAD 失敗: %w", err)
	}

	revision := model.Revision{
		Hash: headRef.Hash().String(),
	}
	if headRef.Name().IsBranch() {
		revision.Branch = headRef.Name().Short()
	}

	w, err := gitRepo.repo.Worktree()
	if err != nil {
		return model.Revision{}, xerrors.Errorf("取得 Git worktree 失敗: %w", err)
	}

	status, err := w.Status()
	if err != nil {
		return model.Revision{}, xerrors.Errorf("取得 Git 狀態失敗: %w", err)
	}
	revision.Dirty = !status.IsClean()

	return revision, nil
}
