package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsuite/internal/core/services"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [url]",
	Short: "Look up an address",
	Long: `Resolves a URL under the suite base URL and prints what it addresses:
a document as JSON, or a summary of an application or collection.

Append ";schema" to print the schema of the addressed entity.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	suite, release, err := openSuite(ctx)
	if err != nil {
		return err
	}
	defer release()

	target, err := suite.Lookup(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", args[0], err)
	}

	switch t := target.(type) {
	case *services.Document:
		out, err := t.Collection().JSON(t)
		if err != nil {
			return err
		}
		return writeJSON(cmd, out)
	case *services.Collection:
		n, err := t.Len(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("Collection: %s\n\n", t.Name())
		cmd.Printf("  URL:         %s\n", t.URL())
		cmd.Printf("  Schema:      %s\n", t.SchemaURL())
		cmd.Printf("  Table:       %s\n", t.Table())
		cmd.Printf("  Primary key: %s\n", t.PrimaryKey())
		cmd.Printf("  Documents:   %d\n", n)
		return nil
	case *services.Application:
		cmd.Printf("Application: %s\n\n", t.Name())
		cmd.Printf("  URL:    %s\n", t.URL())
		cmd.Printf("  Schema: %s\n", t.SchemaURL())
		cmd.Println("\n  Collections:")
		for _, c := range t.Collections() {
			cmd.Printf("    %s\n", c.URL())
		}
		return nil
	case *services.Suite:
		cmd.Printf("Suite: %s\n\n", t.Name())
		cmd.Printf("  URL: %s\n", t.URL())
		cmd.Println("\n  Applications:")
		for _, app := range t.Applications() {
			cmd.Printf("    %s\n", app.URL())
		}
		return nil
	default:
		return writeJSON(cmd, t)
	}
}
