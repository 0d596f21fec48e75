// Package store groups the reference adapters for the engine's collaborator
// interfaces: [primary] for the primary platform's PostgreSQL database and
// [secondary] for the secondary platform's SQLite database.
package store
