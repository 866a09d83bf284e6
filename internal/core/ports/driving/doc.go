// Package driving defines the ports the CLI and other callers use to reach
// the core: resolving addresses and managing settings.
//
// The Suite and SettingsService in internal/core/services implement them.
package driving
