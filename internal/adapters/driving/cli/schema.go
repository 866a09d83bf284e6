package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [application[/collection]]",
	Short: "Print JSON Schema documents",
	Long: `Prints the suite schema, the schema of an application or the composed
schema of a collection.

With --full an application's collection schemas are inlined.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchema,
}

var schemaFull bool

func init() {
	schemaCmd.Flags().BoolVar(&schemaFull, "full", false, "Inline collection schemas in application schemas")
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	suite, release, err := openSuite(context.Background())
	if err != nil {
		return err
	}
	defer release()

	if len(args) == 0 {
		return writeJSON(cmd, suite.Schema())
	}

	target := strings.Trim(args[0], "/")
	if strings.Contains(target, "/") {
		coll, err := collectionArg(suite, target)
		if err != nil {
			return err
		}
		return writeJSON(cmd, coll.Schema())
	}

	app, ok := suite.Application(target)
	if !ok {
		return errUnknownApplication(target)
	}
	if schemaFull {
		return writeJSON(cmd, app.FullSchema())
	}
	return writeJSON(cmd, app.Schema())
}
