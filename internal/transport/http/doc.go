// Package http exposes the grid service as a JSON API over chi. Failures are
// RFC 7807 problem documents.
package http
