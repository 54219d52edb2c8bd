package util

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/c-bata/go-prompt"
	"github.com/mattn/go-isatty"
)

type IConfirmer interface {
	Confirm(message string) bool
}

// NewConfirmer 終端機使用 go-prompt 互動輸入，否則逐行讀取標準輸入
func NewConfirmer() IConfirmer {
	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		return &promptConfirmer{out: os.Stdout}
	}
	return NewReaderConfirmer(os.Stdin, os.Stdout)
}

// NewReaderConfirmer 從 in 逐行讀取回答，讀到結尾視為拒絕
func NewReaderConfirmer(in io.Reader, out io.Writer) IConfirmer {
	return &readerConfirmer{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
}

type promptConfirmer struct {
	out io.Writer
}

func (c *promptConfirmer) Confirm(message string) bool {
	return askYesNo(c.out, message, func(question string) (string, bool) {
		interrupted, submitted := false, false
		submit := func(*prompt.Buffer) { submitted = true }
		answer := prompt.Input(question,
			func(d prompt.Document) []prompt.Suggest {
				s := []prompt.Suggest{
					{Text: "y", Description: "繼續"},
					{Text: "n", Description: "取消"},
				}
				return prompt.FilterHasPrefix(s, d.GetWordBeforeCursor(), true)
			},
			// Ctrl-C 預設只清除輸入，這裡改成直接結束輸入
			prompt.OptionAddKeyBind(prompt.KeyBind{
				Key: prompt.ControlC,
				Fn:  func(*prompt.Buffer) { interrupted = true },
			}),
			prompt.OptionAddKeyBind(
				prompt.KeyBind{Key: prompt.Enter, Fn: submit},
				prompt.KeyBind{Key: prompt.ControlM, Fn: submit},
				prompt.KeyBind{Key: prompt.ControlJ, Fn: submit},
			),
			prompt.OptionSetExitCheckerOnInput(func(string, bool) bool {
				return interrupted
			}),
		)
		return promptAnswer(answer, interrupted, submitted)
	})
}

// promptAnswer Ctrl-C 或空白行按 Ctrl-D 結束輸入時視為取消，按 Enter 送出的空白行則重新詢問
func promptAnswer(answer string, interrupted, submitted bool) (string, bool) {
	if interrupted || (answer == "" && !submitted) {
		return "", false
	}
	return answer, true
}

type readerConfirmer struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (c *readerConfirmer) Confirm(message string) bool {
	return askYesNo(c.out, message, func(question string) (string, bool) {
		fmt.Fprint(c.out, question)
		if !c.scanner.Scan() {
			fmt.Fprintln(c.out)
			return "", false
		}
		return c.scanner.Text(), true
	})
}

// askYesNo 重複詢問直到取得 y/Y 或 n/N
func askYesNo(out io.Writer, message string, read func(question string) (string, bool)) bool {
	question := message + " [y/n] "
	for {
		answer, ok := read(question)
		if !ok {
			return false
		}

		switch strings.TrimSpace(answer) {
		case "y", "Y":
			return true
		case "n", "N":
			return false
		}
		fmt.Fprintln(out, "請輸入 y 或 n")
	}
}
