// Package config loads the copyfold configuration.
//
// Layers are applied in order, later ones winning:
//
//  1. the embedded defaults
//  2. the user file in the XDG config folder
//  3. copyfold.toml (or copyfold.yaml) at the project root
//  4. COPYFOLD_ environment variables, "__" separating sections
//  5. overrides given by the caller, usually command line flags
package config
