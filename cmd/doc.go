// Package cmd implements the command-line interface for stones. It opens a
// local store and exposes the dictionary-like operations as commands.
//
// The package is organized into subpackages:
//
//   - kv: Commands for store operations (set, put, get, del, has, len, keys,
//     items, load, clear, destroy, stats, perf)
//   - util: Shared utilities for flags, configuration and opening stores (internal use)
//
// Every flag can also be set as an environment variable with the STONES_ prefix
// (e.g. STONES_ENGINE=bolt), .env and .env.local files are loaded on startup.
//
// See stones -help for a list of all commands.
package cmd
