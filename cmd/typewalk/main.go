package main

import (
	"os"

	"typewalk/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
