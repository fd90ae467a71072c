// Package checkpoint describes a local checkpoint directory before upload.
//
// Scan walks the directory, applies the ignore rules and records for every
// remaining file its slash-separated relative path, size, SHA-256 digest and
// a short leading sample. The result is sorted so uploads are deterministic.
package checkpoint
