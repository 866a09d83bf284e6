package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreBackend_IsValid(t *testing.T) {
	tests := []struct {
		backend StoreBackend
		want    bool
	}{
		{StoreBackendMemory, true},
		{StoreBackendSQLite, true},
		{StoreBackend("postgres"), false},
		{StoreBackend(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.backend.IsValid())
		})
	}
}

func TestStoreBackend_Description(t *testing.T) {
	assert.Equal(t, "In-memory (lost on exit)", StoreBackendMemory.Description())
	assert.Equal(t, "SQLite database file", StoreBackendSQLite.Description())
	assert.Equal(t, unknownDescription, StoreBackend("postgres").Description())
	assert.Equal(t, "sqlite", StoreBackendSQLite.String())
}

func TestAllStoreBackends(t *testing.T) {
	backends := AllStoreBackends()

	assert.Equal(t, []StoreBackend{StoreBackendMemory, StoreBackendSQLite}, backends)
	for _, b := range backends {
		assert.True(t, b.IsValid())
	}
}
