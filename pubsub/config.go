package pubsub

import (
	"github.com/shandysiswandi/gobus/config"
)

// defaultBroker matches the historical default backend selection.
const defaultBroker = BrokerGCPPubSub

// BrokerFromConfig returns the broker id selected by the "broker" key,
// falling back to the Google Pub/Sub backend when unset.
func BrokerFromConfig(cfg config.Config) string {
	if broker := cfg.GetString("broker"); broker != "" {
		return broker
	}
	return defaultBroker
}

// OptionsFromConfig builds FactoryOptions from the well-known keys:
//
//	broker                redis | gcp-pubsub
//	redis.host            Redis server host
//	redis.port            Redis server port
//	redis.db              database index
//	redis.password        optional password
//	redis.topic           bound channel
//	gcp.project_id        Google Cloud project
//	gcp.credentials_file  optional service account key file
//	gcp.topic             bound topic ID
//	gcp.subscription      default subscription ID
func OptionsFromConfig(cfg config.Config) FactoryOptions {
	return FactoryOptions{
		Redis: RedisConfig{
			Host:     cfg.GetString("redis.host"),
			Port:     cfg.GetInt("redis.port"),
			DB:       cfg.GetInt("redis.db"),
			Password: cfg.GetString("redis.password"),
			Topic:    cfg.GetString("redis.topic"),
		},
		GCP: GCPConfig{
			ProjectID:       cfg.GetString("gcp.project_id"),
			CredentialsFile: cfg.GetString("gcp.credentials_file"),
			Topic:           cfg.GetString("gcp.topic"),
			Subscription:    cfg.GetString("gcp.subscription"),
		},
	}
}
