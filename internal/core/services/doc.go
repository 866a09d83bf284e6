// Package services implements the document runtime and the driving port
// interfaces.
//
// A Suite is the process-wide registry of Applications. Each Application
// owns Collections, and each Collection owns the Documents of one
// registered document type. Services orchestrate calls to the schema
// composer, the value handlers and the driven Store port in a fixed order.
//
// Registration (types, applications, collections) happens once at startup.
// Afterwards the registries are read-only and may be shared between
// goroutines; document operations block only on the Store.
package services
