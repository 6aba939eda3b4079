// Command cartaudit reconciles the dispatch and picklist exports of a
// warehouse shift and prints or exports the resulting loading waves.
package main

import (
	"os"

	"cartaudit/cmd/cartaudit/cmd"
)

// Version information populated at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(cmd.Execute(cmd.BuildInfo{Version: version, Commit: commit, Date: date}))
}
