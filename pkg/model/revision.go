package model

import "fmt"

// Revision 發布內容所在的 Git 版本
type Revision struct {
	Branch string
	Hash   string
	Dirty  bool
}

func (r Revision) ShortHash() string {
	if len(r.Hash) > 7 {
		return r.Hash[:7]
	}
	return r.Hash
}

func (r Revision) String() string {
	if r.Branch == "" {
		return r.ShortHash()
	}
	return fmt.Sprintf("%s@%s", r.Branch, r.ShortHash())
}
