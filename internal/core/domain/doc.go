// Package domain holds the types shared by every layer: addresses
// (Identifier), store-native special values (StoredTime, StoredGeometry),
// the error kinds and the process Settings.
//
// It imports only the standard library.
package domain
