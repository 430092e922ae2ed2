// Package confloader provides configuration loading mechanism.
//
// This package implements a configuration loader that supports multiple
// sources using koanf as the underlying library.
//
// Features:
//
//   - Multiple Sources: YAML files, environment variables, flag maps
//   - Env keys resolved against the target struct, so BLUEIS_STORAGE_BUSY_TIMEOUT
//     maps to storage.busy_timeout
//   - Watch Support: callbacks on config file changes (fsnotify)
//   - Type Safety: Unmarshaling into typed structs
//
// Priority (highest to lowest):
//
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration files
//  4. Default values (pre-filled target)
package confloader
