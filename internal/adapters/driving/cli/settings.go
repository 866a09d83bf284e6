package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsuite/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the suite, the store backend and the definition file.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	RunE:  runSettingsWizard,
}

var settingsBackendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Set the store backend",
	Long: `Set the store used by every application.

Available backends:
  memory - Documents live in process memory and are lost on exit
  sqlite - Documents are stored in a SQLite database in the data directory`,
	RunE: runSettingsBackend,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsBackendCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := loadSettings()
	if err != nil {
		return err
	}

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Suite]")
	cmd.Printf("  Name: %s\n", settings.Suite.Name)
	cmd.Printf("  Base URL: %s\n", settings.Suite.BaseURL)
	cmd.Printf("  Definition: %s\n", valueOrUnset(settings.Definition))
	cmd.Println()

	cmd.Println("[Store]")
	cmd.Printf("  Backend: %s\n", settings.Store.Backend.Description())
	if settings.Store.Backend == domain.StoreBackendSQLite {
		cmd.Printf("  Data directory: %s\n", valueOr(settings.Store.DataDir, "~/.docsuite/data"))
	}
	cmd.Println()

	if err := svc.Validate(settings); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'docsuite settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	svc, err := loadSettings()
	if err != nil {
		return err
	}
	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("docsuite Settings Wizard")
	cmd.Println("========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Step 1: Suite")
	cmd.Println("-------------")
	settings.Suite.Name = prompt(cmd, reader, "Suite name", settings.Suite.Name)
	settings.Suite.BaseURL = prompt(cmd, reader, "Base URL", settings.Suite.BaseURL)
	settings.Definition = prompt(cmd, reader, "Definition file", settings.Definition)
	cmd.Println()

	cmd.Println("Step 2: Store")
	cmd.Println("-------------")
	backend := chooseBackend(cmd, reader, settings.Store.Backend)
	settings.Store.Backend = backend
	if backend == domain.StoreBackendSQLite {
		settings.Store.DataDir = prompt(cmd, reader, "Data directory (empty for ~/.docsuite/data)", settings.Store.DataDir)
	}
	cmd.Println()

	if err := svc.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	cmd.Println("All settings are valid and saved.")
	return nil
}

func runSettingsBackend(cmd *cobra.Command, _ []string) error {
	svc, err := loadSettings()
	if err != nil {
		return err
	}
	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	reader := bufio.NewReader(cmd.InOrStdin())

	cmd.Println("Select Store Backend")
	cmd.Println("--------------------")
	backends := domain.AllStoreBackends()
	for i, b := range backends {
		cmd.Printf("  %d. %s\n", i+1, b.Description())
	}
	cmd.Print("\nEnter choice: ")
	idx := parseChoice(readLine(reader), len(backends), 0)
	if idx == 0 {
		return errors.New("invalid selection")
	}

	settings.Store.Backend = backends[idx-1]
	if err := svc.Save(settings); err != nil {
		return fmt.Errorf("failed to set store backend: %w", err)
	}

	cmd.Printf("Store backend set to: %s\n", settings.Store.Backend.Description())
	return nil
}

func chooseBackend(cmd *cobra.Command, reader *bufio.Reader, current domain.StoreBackend) domain.StoreBackend {
	backends := domain.AllStoreBackends()
	def := 1
	for i, b := range backends {
		marker := ""
		if b == current {
			def = i + 1
			marker = " (current)"
		}
		cmd.Printf("  %d. %s%s\n", i+1, b.Description(), marker)
	}
	cmd.Printf("\nEnter choice [%d]: ", def)
	return backends[parseChoice(readLine(reader), len(backends), def)-1]
}

// prompt asks for a value, keeping current when the answer is empty.
func prompt(cmd *cobra.Command, reader *bufio.Reader, label, current string) string {
	if current != "" {
		cmd.Printf("%s [%s]: ", label, current)
	} else {
		cmd.Printf("%s: ", label)
	}
	if input := readLine(reader); input != "" {
		return input
	}
	return current
}

//nolint:errcheck // CLI helper, EOF reads as an empty answer
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func valueOrUnset(s string) string {
	return valueOr(s, "(not set)")
}

func valueOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
