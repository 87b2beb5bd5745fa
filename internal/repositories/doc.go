// Package repositories implements SQLite persistence for purchase records.
//
// Key Implementations:
//   - [PurchaseRepository] : purchase records keyed by album, usable as the gate's purchase store
//
// Records are upserted, so unlocking an album twice leaves exactly one row whose token is still truthy.
// There is no soft delete: a cleared record is gone.
package repositories
