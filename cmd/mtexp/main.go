package main

import (
	"os"

	"mtexp/internal/cli"
)

func main() { os.Exit(cli.Main()) }
