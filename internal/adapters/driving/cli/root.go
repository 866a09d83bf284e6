// Package cli implements the docsuite command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docsuite/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docsuite/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsuite/internal/adapters/driven/storage/observable"
	"github.com/custodia-labs/docsuite/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docsuite/internal/core/domain"
	"github.com/custodia-labs/docsuite/internal/core/ports/driven"
	"github.com/custodia-labs/docsuite/internal/core/ports/driving"
	"github.com/custodia-labs/docsuite/internal/core/services"
	"github.com/custodia-labs/docsuite/internal/definition"
	"github.com/custodia-labs/docsuite/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

// Flags shared by every command.
var (
	configPath     string
	definitionPath string
	noConfig       bool
	verbose        bool
	showMetrics    bool
)

// Services used by the commands. Tests replace them; otherwise they are
// built from the configuration on first use.
var (
	settingsService driving.SettingsService
	activeSuite     *services.Suite
)

var rootCmd = &cobra.Command{
	Use:   "docsuite",
	Short: "Schema-driven document collections",
	Long: `docsuite manages document collections described by a suite definition
file. Documents are validated against JSON Schema, stored through a pluggable
store and addressed by URL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if verbose {
			logger.SetVerbose(true)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
		if !showMetrics {
			return nil
		}
		return observable.WriteMetrics(cmd.ErrOrStderr(), nil)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (default ~/.docsuite/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&definitionPath, "definition", "d", "", "Suite definition file")
	rootCmd.PersistentFlags().BoolVar(&noConfig, "no-config", false, "Ignore the configuration file and use defaults")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&showMetrics, "metrics", false, "Write store metrics to stderr after the command")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadSettings returns the settings service, opening the configuration
// file when none has been set.
func loadSettings() (driving.SettingsService, error) {
	if settingsService != nil {
		return settingsService, nil
	}
	if noConfig {
		settingsService = services.NewSettingsService(memory.NewConfigStore())
		return settingsService, nil
	}

	var (
		store *file.ConfigStore
		err   error
	)
	if configPath != "" {
		store, err = file.OpenConfigFile(configPath)
	} else {
		store, err = file.NewConfigStore("")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open configuration: %w", err)
	}
	settingsService = services.NewSettingsService(store)
	return settingsService, nil
}

// openSuite returns the active suite and a function releasing it. A suite
// built here is closed together with its store by the release function.
func openSuite(ctx context.Context) (*services.Suite, func(), error) {
	if activeSuite != nil {
		return activeSuite, func() {}, nil
	}

	svc, err := loadSettings()
	if err != nil {
		return nil, nil, err
	}
	settings, err := svc.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get settings: %w", err)
	}
	if err := svc.Validate(settings); err != nil {
		return nil, nil, err
	}
	if settings.Verbose {
		logger.SetVerbose(true)
	}

	path := definitionPath
	if path == "" {
		path = settings.Definition
	}
	if path == "" {
		return nil, nil, errors.New("no suite definition: pass --definition or set definition in the configuration")
	}
	def, err := definition.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}

	store, closeStore, err := openStore(settings.Store)
	if err != nil {
		return nil, nil, err
	}

	suite, err := definition.NewLoader(nil, nil).Build(ctx, def, services.SuiteConfig{
		Name:    settings.Suite.Name,
		BaseURL: settings.Suite.BaseURL,
		Stores:  map[string]driven.Store{services.DefaultConnection: observable.New(store)},
	})
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	logger.Debug("opened suite %s with %s store", suite.Name(), settings.Store.Backend)

	return suite, func() {
		suite.Close()
		closeStore()
	}, nil
}

func openStore(cfg domain.StoreSettings) (driven.Store, func(), error) {
	switch cfg.Backend {
	case domain.StoreBackendSQLite:
		store, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing sqlite store: %v", err)
			}
		}, nil
	case domain.StoreBackendMemory:
		return memory.NewStore(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidInput, cfg.Backend)
	}
}

// collectionArg resolves an "application/collection" argument.
func collectionArg(suite *services.Suite, arg string) (*services.Collection, error) {
	appSlug, collSlug, ok := strings.Cut(strings.Trim(arg, "/"), "/")
	if !ok || appSlug == "" || collSlug == "" {
		return nil, fmt.Errorf("%w: expected application/collection, got %q", domain.ErrInvalidInput, arg)
	}
	app, ok := suite.Application(appSlug)
	if !ok {
		return nil, fmt.Errorf("%w: application %s", domain.ErrNotFound, appSlug)
	}
	coll, ok := app.Collection(collSlug)
	if !ok {
		return nil, fmt.Errorf("%w: collection %s/%s", domain.ErrNotFound, appSlug, collSlug)
	}
	return coll, nil
}

// writeJSON prints v as JSON, indented when the output is a terminal.
func writeJSON(cmd *cobra.Command, v any) error {
	out := cmd.OutOrStdout()

	var (
		data []byte
		err  error
	)
	if isTerminal(out) {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
