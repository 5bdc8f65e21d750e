// Package testutil provides utilities for testing copyfold components.
//
// Key components:
//   - Env: a project folder with component folders next to it, on an afero
//     memory filesystem or below a temp folder
//   - FailingFS: wraps a filesystem and fails chosen operations
//   - Model: an item model whose composition can change between passes
//   - Reporter: records progress and error events
//
// Usage guidelines:
//   - Most tests should use NewMemoryEnv for speed and isolation
//   - Use NewIsolatedEnv only for behaviour the memory filesystem lacks,
//     such as file modes
//   - All test data should be defined inline, not in external files
package testutil
