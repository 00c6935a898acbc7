// Package storage owns the on-disk layout under the storage root: resolving
// folder-addressed paths, persisting raw upload bytes, deriving the single
// companion thumbnail, and reporting per-folder disk usage.
//
// The layout guarantees it never produces a path outside the configured root;
// folder arguments are expected to arrive pre-normalized by the upload
// validator, and resolution re-checks containment anyway.
package storage
