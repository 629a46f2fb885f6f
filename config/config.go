// Package config provides configuration loading for broker clients.
//
// Values come from a config file (any format Viper understands) and can
// be overridden through GOBUS_-prefixed environment variables, e.g.
// GOBUS_REDIS_HOST overrides the "redis.host" key.
package config

import (
	"io"
	"time"
)

// Config defines the getters broker clients read their settings from.
// Implementations handle retrieval and type conversion, returning zero
// values for missing keys.
type Config interface {
	io.Closer

	// GetString retrieves the value for key as a string.
	GetString(key string) string

	// GetInt retrieves the value for key as an int.
	GetInt(key string) int

	// GetBool retrieves the value for key as a bool.
	GetBool(key string) bool

	// GetSecond retrieves the value for key as a duration in seconds.
	GetSecond(key string) time.Duration
}
