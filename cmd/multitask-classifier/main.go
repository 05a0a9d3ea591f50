// Command multitask-classifier accepts the runbook's training flags and is
// equivalent to "mtexp train".
package main

import (
	"os"

	"mtexp/internal/cli"
)

func main() {
	os.Exit(cli.MainWithArgs(append([]string{"train"}, os.Args[1:]...)))
}
