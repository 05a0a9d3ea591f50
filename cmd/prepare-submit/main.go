// Command prepare-submit is equivalent to "mtexp prepare-submit".
package main

import (
	"os"

	"mtexp/internal/cli"
)

func main() {
	os.Exit(cli.MainWithArgs(append([]string{"prepare-submit"}, os.Args[1:]...)))
}
