// Package manifest edits the package version in a Cargo.toml manifest.
//
// The edit is line based so comments, key order and formatting of the
// rest of the file are preserved byte for byte; the result is then parsed
// with github.com/pelletier/go-toml/v2 to verify the file is still valid
// TOML and carries the requested version.
//
// Every edit is preceded by a backup (Cargo.toml.bak) so the operator can
// reject the change and get the original file back.
package manifest
