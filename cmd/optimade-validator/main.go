package main

import (
	"os"

	"github.com/fivetwenty-io/optimade-validator/cmd/optimade-validator/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(commands.Execute(version, commit, date))
}
