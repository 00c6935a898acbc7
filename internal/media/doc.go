// Package media orchestrates the upload pipeline: validation, physical
// storage, companion thumbnail derivation, and the catalog row, in that
// order. It also owns the cascading delete that keeps catalog and disk in
// step.
package media
