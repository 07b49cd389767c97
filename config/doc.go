// Package config handles application configuration loading and validation.
//
// Configuration is loaded from config.yml and validated using struct tags.
// Zero-valued settings receive defaults after validation, and Watch reloads
// the file when it changes on disk.
package config
