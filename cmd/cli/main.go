package main

import (
	"os"

	"github.com/dmitrijs2005/filestream/internal/cli"
)

func main() {
	os.Exit(cli.NewApp(os.Stdout, os.Stderr).Run(os.Args[1:]))
}
