package core

import "time"

// Environment variables recognized by fabric's configuration loader.
const (
	EnvNamespace    = "FABRIC_NAMESPACE"        // logical namespace for session/memory keys
	EnvDevMode      = "FABRIC_DEV_MODE"         // development mode flag (pretty text logs at debug level)
	EnvRedisURL     = "FABRIC_MEMORY_REDIS_URL" // optional distributed memory backend
	EnvDefaultProvider = "FABRIC_DEFAULT_PROVIDER"
	EnvLogLevel     = "FABRIC_LOG_LEVEL"
	EnvLogFormat    = "FABRIC_LOG_FORMAT"
)

// Redis key-space defaults for Config.Memory.Provider == "redis". No code
// in this module reads them; the configured TTL is Config.Memory.DefaultTTL.
const (
	DefaultRedisPrefix = "fabric:memory:"
	DefaultMemoryTTL   = 24 * time.Hour
)
