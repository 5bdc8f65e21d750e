// Package filesystem provides the resource provider used by copyfold.
//
// It contains the afero-backed implementations of types.FS (real OS and
// in-memory) plus the small set of resource helpers the sync engine needs:
// existence checks, copy with optional read-only output, idempotent delete
// and empty-folder detection.
package filesystem
