package util

import "strings"

func isShellSafe(s string, extra string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		}
		return !strings.ContainsRune(extra, r)
	}) == -1
}

// ShellQuote 將參數以 POSIX shell 單引號包起來，只含安全字元時原樣回傳
func ShellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if isShellSafe(s, "-_./@:,+=") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ShellQuotePath 引用遠端路徑，開頭的 ~ 或 ~user 留在引號外讓遠端 shell 展開
//
// 例如 ~/my kb 會變成 ~/'my kb'，和 scp 對 host:~/my kb 的解讀一致
func ShellQuotePath(p string) string {
	if !strings.HasPrefix(p, "~") {
		return ShellQuote(p)
	}

	home, rest, found := strings.Cut(p, "/")
	if !isShellSafe(home[1:], "-_.") {
		return ShellQuote(p)
	}
	if !found {
		return home
	}
	if rest == "" {
		return home + "/"
	}
	return home + "/" + ShellQuote(rest)
}
