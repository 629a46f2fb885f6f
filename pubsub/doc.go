// Package pubsub provides a broker-agnostic API for publishing and
// consuming messages.
//
// The goal is to keep business code independent from the underlying
// messaging system. Two interchangeable backends are provided: a Redis
// channel (fire-and-forget, no persistence) and Google Cloud Pub/Sub
// (acknowledged delivery with durable subscriptions). You can swap one
// for the other without changing caller code, as long as it relies on
// the Client interface in this package.
//
// Both backends deliver at-least-once at best; this layer performs no
// deduplication and adds no ordering guarantees of its own.
package pubsub
