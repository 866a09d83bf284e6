package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsuite/internal/core/domain"
	"github.com/custodia-labs/docsuite/internal/core/services"
)

var provisionCmd = &cobra.Command{
	Use:   "provision [application...]",
	Short: "Create tables and indexes",
	Long: `Creates the table and indexes of every collection in the named
applications, or in all applications when none are named. Tables that
already exist with the same definition are left alone.`,
	RunE: runProvision,
}

var dropCmd = &cobra.Command{
	Use:   "drop [application...]",
	Short: "Drop collection tables",
	Long:  `Drops the tables of every collection in the named applications. All stored documents are lost.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDrop,
}

func init() {
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(dropCmd)
}

func runProvision(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	suite, release, err := openSuite(ctx)
	if err != nil {
		return err
	}
	defer release()

	apps, err := selectApplications(suite, args)
	if err != nil {
		return err
	}
	for _, app := range apps {
		if err := app.CreateTables(ctx); err != nil {
			return fmt.Errorf("failed to provision %s: %w", app.Slug(), err)
		}
		cmd.Printf("Provisioned %s (%d collections)\n", app.Slug(), len(app.Collections()))
	}
	return nil
}

func runDrop(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	suite, release, err := openSuite(ctx)
	if err != nil {
		return err
	}
	defer release()

	apps, err := selectApplications(suite, args)
	if err != nil {
		return err
	}
	for _, app := range apps {
		if err := app.DropTables(ctx); err != nil {
			return fmt.Errorf("failed to drop %s: %w", app.Slug(), err)
		}
		cmd.Printf("Dropped %s\n", app.Slug())
	}
	return nil
}

// selectApplications returns the named applications, or all of them when
// no names are given.
func selectApplications(suite *services.Suite, slugs []string) ([]*services.Application, error) {
	if len(slugs) == 0 {
		return suite.Applications(), nil
	}
	apps := make([]*services.Application, 0, len(slugs))
	for _, slug := range slugs {
		app, ok := suite.Application(slug)
		if !ok {
			return nil, errUnknownApplication(slug)
		}
		apps = append(apps, app)
	}
	return apps, nil
}

func errUnknownApplication(slug string) error {
	return fmt.Errorf("%w: application %s", domain.ErrNotFound, slug)
}
