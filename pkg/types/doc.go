// Package types defines the values shared by every copyfold package: items
// and the model resolving them, links, deltas, and the filesystem and
// reporter interfaces.
package types
