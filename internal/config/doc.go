// Package config loads and validates the feed daemon's YAML configuration.
package config
