// Command docsuite manages schema-driven document collections.
package main

import (
	"os"

	"github.com/custodia-labs/docsuite/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
