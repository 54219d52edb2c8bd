package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/marco79423/kb/pkg/command/publish"
)

func main() {
	app := publish.NewApp()

	err := app.Run(os.Args)
	if err != nil {
		switch {
		case errors.Is(err, publish.ErrUserAborted):
		case errors.Is(err, publish.ErrUsage), errors.Is(err, publish.ErrUnsafeDestination):
			fmt.Fprintln(os.Stderr, err)
		default:
			fmt.Fprintf(os.Stderr, "%+v\n", err)
		}
		os.Exit(publish.ExitCode(err))
	}
}
