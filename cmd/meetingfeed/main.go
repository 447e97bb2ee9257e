// Package main provides the entry point for the meetingfeed CLI tool.
package main

import (
	"github.com/opencivic/meetingfeed/cmd/meetingfeed/cmd"
)

// Version information populated by goreleaser.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	cmd.Execute(version, commit, date)
}
