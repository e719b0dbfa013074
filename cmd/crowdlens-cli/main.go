// Package main provides the entry point for the crowdlens CLI.
package main

import (
	"github.com/crowdlens/crowdlens/cmd/cli"
)

func main() {
	cli.Execute()
}
