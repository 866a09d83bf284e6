// Package file provides the TOML configuration file behind driven.ConfigStore.
//
// Keys are addressed in dot notation ("suite.base_url"); nested tables are
// flattened on load and rebuilt on save, so the file on disk stays
// hand-editable:
//
//	[suite]
//	name = 'catalog'
//	base_url = 'https://example.org/api'
//
//	[store]
//	backend = 'sqlite'
package file
