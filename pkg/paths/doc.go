// Package paths resolves the folders copyfold works with: the project root,
// the project configuration file and the per-user XDG folders.
//
// The project root is found, in order, from:
//
//  1. the explicit root given by the caller (the --project flag)
//  2. the COPYFOLD_ROOT environment variable
//  3. the closest parent of the working directory holding copyfold.toml
//  4. the git repository root
//  5. the working directory itself
//
// Every path accepted from users goes through ExpandHome first.
package paths
