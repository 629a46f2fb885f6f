package pubsub

type consumeOptions struct {
	// deadLetter is a fallback topic where payloads whose handler failed
	// are republished verbatim.
	deadLetter string

	// subscription overrides the client's configured subscription name.
	// Used by the Google Pub/Sub backend.
	subscription string

	// concurrency sets how many streaming-pull goroutines deliver
	// messages in parallel (Google Pub/Sub only; the Redis loop is
	// strictly sequential).
	concurrency int

	// maxInFlight limits unacknowledged messages in flight
	// (Google Pub/Sub only).
	maxInFlight int
}

// ConsumeOption configures consumer behavior.
type ConsumeOption func(*consumeOptions)

func newConsumeOptions(opts ...ConsumeOption) consumeOptions {
	var co consumeOptions
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&co)
	}
	return co
}

// WithDeadLetter sets a fallback topic for payloads whose handler failed.
func WithDeadLetter(topic string) ConsumeOption {
	return func(o *consumeOptions) { o.deadLetter = topic }
}

// WithSubscription overrides the subscription name (Google Pub/Sub).
func WithSubscription(name string) ConsumeOption {
	return func(o *consumeOptions) { o.subscription = name }
}

// WithConcurrency sets how many goroutines deliver messages in parallel
// (Google Pub/Sub).
func WithConcurrency(n int) ConsumeOption {
	return func(o *consumeOptions) { o.concurrency = n }
}

// WithMaxInFlight limits the number of unacknowledged messages in flight
// (Google Pub/Sub).
func WithMaxInFlight(n int) ConsumeOption {
	return func(o *consumeOptions) { o.maxInFlight = n }
}
