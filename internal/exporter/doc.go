// Package exporter writes grid data as CSV, to any writer or atomically to
// a file. A UTF-8 byte order mark can be prefixed so Excel detects the
// encoding.
package exporter
