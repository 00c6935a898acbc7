// Package catalog persists media asset records in SQLite.
//
// The catalog is the durable index over the storage root: one row per stored
// file, carrying the public URLs and the normalized folder so listings never
// have to walk the filesystem. Rows are created after the file is safely on
// disk and removed after the file cleanup pass, so a missing file with a live
// row is always the transient state, never the other way around.
package catalog
