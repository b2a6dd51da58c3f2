// Package config defines the YAML settings shared by every binary and
// provides helpers to load, validate and save them.
//
// Validate fills defaults in place, so a loaded Config is always complete.
package config
