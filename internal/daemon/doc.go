// Package daemon hosts the long-running mediastore process: the single
// instance lock, the HTTP API, and the static file server for stored media.
package daemon
