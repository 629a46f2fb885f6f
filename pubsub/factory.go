package pubsub

import (
	"fmt"
	"strings"
)

const (
	// BrokerRedis selects the Redis channel backend.
	BrokerRedis = "redis"
	// BrokerGCPPubSub selects the Google Cloud Pub/Sub backend.
	BrokerGCPPubSub = "gcp-pubsub"
)

// FactoryOptions groups config for the supported broker backends.
type FactoryOptions struct {
	// Redis provides configuration for the Redis backend.
	Redis RedisConfig
	// GCP provides configuration for the Google Pub/Sub backend.
	GCP GCPConfig
}

// New constructs an unopened Client for the given broker id. The id is
// matched case-insensitively. An unsupported id yields ErrUnknownBroker;
// the caller decides how to react.
func New(broker string, opts FactoryOptions) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(broker)) {
	case BrokerRedis:
		return NewRedis(opts.Redis), nil
	case BrokerGCPPubSub:
		return NewGCP(opts.GCP), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBroker, broker)
	}
}
