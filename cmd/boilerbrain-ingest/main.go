// Command boilerbrain-ingest extracts structured service data from boiler manuals.
package main

import (
	"os"

	"github.com/custodia-labs/boilerbrain-ingest/internal/adapters/driving/cli"
)

// Set by -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrapper(bootstrap)
	os.Exit(cli.Execute())
}
