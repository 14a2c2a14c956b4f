// Package services opens the configured grid source and exposes the header
// index operations behind a mutex, for the HTTP server and the CLI.
package services
