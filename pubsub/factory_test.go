package pubsub

import (
	"errors"
	"testing"
)

func TestNewSupportedBrokers(t *testing.T) {
	opts := FactoryOptions{
		Redis: RedisConfig{Host: "localhost", Port: 6379, Topic: "t"},
		GCP:   GCPConfig{ProjectID: "demo", Topic: "t", Subscription: "s"},
	}

	tests := []struct {
		broker    string
		wantRedis bool
	}{
		{broker: "redis", wantRedis: true},
		{broker: "REDIS", wantRedis: true},
		{broker: "Redis", wantRedis: true},
		{broker: "  redis  ", wantRedis: true},
		{broker: "gcp-pubsub"},
		{broker: "GCP-PUBSUB"},
		{broker: "Gcp-PubSub"},
	}

	for _, tt := range tests {
		t.Run(tt.broker, func(t *testing.T) {
			client, err := New(tt.broker, opts)
			if err != nil {
				t.Fatalf("New(%q) error = %v", tt.broker, err)
			}
			if _, ok := client.(*Redis); ok != tt.wantRedis {
				t.Fatalf("New(%q) = %T, wantRedis=%v", tt.broker, client, tt.wantRedis)
			}
			if !tt.wantRedis {
				if _, ok := client.(*GCP); !ok {
					t.Fatalf("New(%q) = %T, want *GCP", tt.broker, client)
				}
			}
		})
	}
}

func TestNewUnknownBroker(t *testing.T) {
	client, err := New("rabbitmq", FactoryOptions{})
	if !errors.Is(err, ErrUnknownBroker) {
		t.Fatalf("New() error = %v, want ErrUnknownBroker", err)
	}
	if client != nil {
		t.Fatalf("New() client = %v, want nil", client)
	}
}
