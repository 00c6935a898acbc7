// Package upload gates untrusted uploads before any byte reaches disk.
//
// The validator enforces the MIME and extension allowlists independently,
// bounds the payload size, and normalizes caller-supplied folders against the
// storage root. Every folder-accepting entry point runs through
// NormalizeFolder, not just upload.
package upload
