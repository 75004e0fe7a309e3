// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/tgmpalint/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/tgmpalint/config.cue on macOS, %APPDATA%\tgmpalint\config.cue
// on Windows), falling back to ./config.cue. A .env file in the working directory is
// read first so GITHUB_TOKEN can be kept out of the shell profile.
//
// Configuration validation is performed against a CUE schema (config_schema.cue) to ensure
// type safety and provide clear error messages for invalid configurations.
package config
