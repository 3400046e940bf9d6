package main

import (
	"fmt"
	"os"

	"github.com/BrandonKowalski/vista/internal/cli"
	"github.com/BrandonKowalski/vista/pkg/vista"
)

func main() {
	cmd := cli.NewRootCommand()
	err := cmd.Execute()
	vista.CloseLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
