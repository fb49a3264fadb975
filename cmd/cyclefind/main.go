package main

import (
	"os"

	"github.com/routehop/cyclefind/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
