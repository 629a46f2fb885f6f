package pubsub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/shandysiswandi/gobus/backoff"
)

// GCPConfig configures the Google Cloud Pub/Sub backend.
type GCPConfig struct {
	// ProjectID is the Google Cloud project ID.
	ProjectID string
	// CredentialsFile points at a service account key file; empty uses
	// application default credentials.
	CredentialsFile string
	// Topic is the topic ID this client publishes to and consumes from.
	Topic string
	// Subscription is the default subscription ID for Consume; it can be
	// overridden per call with WithSubscription.
	Subscription string
	// ClientOptions are passed to the Pub/Sub client verbatim. Tests use
	// this to point the client at a fake server.
	ClientOptions []option.ClientOption
}

// GCP is a Client backed by Google Cloud Pub/Sub.
//
// Topics and subscriptions are checked and created lazily. Production
// environments are expected to provision them out of band; the
// check-or-create keeps local and test environments self-serve, and is
// race-safe because "already exists" is treated as a benign fault.
type GCP struct {
	cfg GCPConfig

	provisionPolicy backoff.Policy
	publishPolicy   backoff.Policy

	mu        sync.Mutex
	client    *pubsub.Client
	publisher *pubsub.Publisher
	closed    bool
}

// NewGCP constructs an unopened GCP client.
func NewGCP(cfg GCPConfig) *GCP {
	return &GCP{
		cfg: cfg,
		provisionPolicy: backoff.Policy{
			Expected: grpcCode(codes.Unavailable),
			Noisy:    grpcCode(codes.AlreadyExists),
		},
		publishPolicy: backoff.Policy{
			Expected: grpcCode(codes.Unavailable),
		},
	}
}

func grpcCode(c codes.Code) backoff.Classifier {
	return func(err error) bool { return status.Code(err) == c }
}

// Open constructs the client and publisher handle and ensures the bound
// topic exists.
func (g *GCP) Open(ctx context.Context) error {
	if g.cfg.Topic == "" {
		return ErrTopicRequired
	}

	opts := g.cfg.ClientOptions
	if g.cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(g.cfg.CredentialsFile))
	}
	client, err := pubsub.NewClient(ctx, g.cfg.ProjectID, opts...)
	if err != nil {
		return fmt.Errorf("pubsub: gcp new client: %w", err)
	}

	// Nothing is committed until provisioning succeeds: a failed Open
	// leaves the client fully closed, so Publish and Consume keep
	// returning ErrClosed.
	if err := g.ensureTopic(ctx, client, g.cfg.Topic); err != nil {
		client.Close()
		return err
	}

	g.mu.Lock()
	g.client = client
	g.publisher = client.Publisher(g.cfg.Topic)
	g.closed = false
	g.mu.Unlock()

	slog.InfoContext(ctx, "gcp pubsub ready", "project", g.cfg.ProjectID, "topic", g.cfg.Topic)
	return nil
}

// Close stops the publisher and closes the client.
func (g *GCP) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	pub := g.publisher
	client := g.client
	g.publisher = nil
	g.client = nil
	g.mu.Unlock()

	if pub != nil {
		pub.Stop()
	}
	if client == nil {
		return nil
	}
	err := client.Close()
	slog.Debug("gcp pubsub closed", "topic", g.cfg.Topic)
	return err
}

// Publish sends one payload to the bound topic and blocks until the
// service acknowledges it, returning the server-assigned message id.
func (g *GCP) Publish(ctx context.Context, payload []byte) (string, error) {
	g.mu.Lock()
	pub := g.publisher
	closed := g.closed
	g.mu.Unlock()
	if pub == nil || closed {
		return "", ErrClosed
	}

	var id string
	err := g.publishPolicy.Do(ctx, "gcp publish", func(ctx context.Context) error {
		res := pub.Publish(ctx, &pubsub.Message{Data: payload})
		var gerr error
		id, gerr = res.Get(ctx)
		return gerr
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// Consume ensures the subscription exists, then starts a streaming pull.
//
// The service's worker pool delivers messages concurrently to the
// wrapper callback, which acks after the handler returns cleanly. On a
// handler fault the payload is republished verbatim to the dead letter
// topic and acked when one is configured; otherwise the ack is withheld
// so the service redelivers under its own policy. The call blocks until
// ctx is cancelled, which ends the streaming session with a nil error.
func (g *GCP) Consume(ctx context.Context, handler Handler, opts ...ConsumeOption) error {
	if handler == nil {
		return ErrHandlerRequired
	}
	g.mu.Lock()
	client := g.client
	closed := g.closed
	g.mu.Unlock()
	if client == nil || closed {
		return ErrClosed
	}

	co := newConsumeOptions(opts...)
	subName := co.subscription
	if subName == "" {
		subName = g.cfg.Subscription
	}
	if subName == "" {
		return ErrSubscriptionRequired
	}

	if err := g.ensureSubscription(ctx, client, subName); err != nil {
		return err
	}

	// The dead letter topic is provisioned once per consume call, and one
	// publisher is reused for every redirected payload.
	var dlPub *pubsub.Publisher
	if co.deadLetter != "" {
		if err := g.ensureTopic(ctx, client, co.deadLetter); err != nil {
			return err
		}
		dlPub = client.Publisher(co.deadLetter)
		defer dlPub.Stop()
	}

	sub := client.Subscriber(subName)
	if co.concurrency > 0 {
		sub.ReceiveSettings.NumGoroutines = co.concurrency
	}
	if co.maxInFlight > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = co.maxInFlight
	}

	slog.DebugContext(ctx, "consuming", "subscription", subName)
	err := sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		g.dispatch(ctx, dlPub, m, handler, co.deadLetter)
	})
	if ctx.Err() != nil {
		slog.InfoContext(ctx, "gcp consume cancelled, graceful exit", "subscription", subName)
		return nil
	}
	return err
}

func (g *GCP) dispatch(ctx context.Context, dlPub *pubsub.Publisher, m *pubsub.Message, handler Handler, deadLetter string) {
	err := invokeHandler(ctx, "gcp", func(ctx context.Context) error {
		return handler(ctx, m.Data)
	})
	if err == nil {
		m.Ack()
		return
	}

	perr := &ProcessingError{Err: err}
	slog.ErrorContext(ctx, "message handler failed", "id", m.ID, "error", perr)

	if deadLetter == "" {
		// Withhold the ack; the service redelivers per its own policy.
		m.Nack()
		return
	}

	// The payload is redirected verbatim and the original acked, so the
	// dead letter topic now owns the message.
	derr := g.publishPolicy.Do(ctx, "gcp dead letter publish", func(ctx context.Context) error {
		_, gerr := dlPub.Publish(ctx, &pubsub.Message{Data: m.Data}).Get(ctx)
		return gerr
	})
	if derr != nil {
		slog.ErrorContext(ctx, "dead letter republish failed", "topic", deadLetter, "error", derr)
		m.Nack()
		return
	}
	slog.InfoContext(ctx, "payload redirected to dead letter", "topic", deadLetter)
	m.Ack()
}

// ensureTopic creates the named topic when it does not exist. Already
// existing is a benign race with another creator and is suppressed.
func (g *GCP) ensureTopic(ctx context.Context, client *pubsub.Client, name string) error {
	return g.provisionPolicy.Do(ctx, "gcp ensure topic", func(ctx context.Context) error {
		topic := g.topicPath(name)
		_, err := client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topic})
		if err == nil {
			return nil
		}
		if status.Code(err) != codes.NotFound {
			return err
		}
		slog.InfoContext(ctx, "creating topic", "topic", topic)
		_, err = client.TopicAdminClient.CreateTopic(ctx, &pubsubpb.Topic{Name: topic})
		return err
	})
}

// ensureSubscription re-checks the topic, then creates the subscription
// bound to it when missing.
func (g *GCP) ensureSubscription(ctx context.Context, client *pubsub.Client, name string) error {
	if err := g.ensureTopic(ctx, client, g.cfg.Topic); err != nil {
		return err
	}

	return g.provisionPolicy.Do(ctx, "gcp ensure subscription", func(ctx context.Context) error {
		sub := g.subscriptionPath(name)
		_, err := client.SubscriptionAdminClient.GetSubscription(ctx, &pubsubpb.GetSubscriptionRequest{Subscription: sub})
		if err == nil {
			return nil
		}
		if c := status.Code(err); c != codes.NotFound && c != codes.InvalidArgument {
			return err
		}
		slog.InfoContext(ctx, "creating subscription", "subscription", sub, "topic", g.topicPath(g.cfg.Topic))
		_, err = client.SubscriptionAdminClient.CreateSubscription(ctx, &pubsubpb.Subscription{
			Name:  sub,
			Topic: g.topicPath(g.cfg.Topic),
		})
		return err
	})
}

func (g *GCP) topicPath(name string) string {
	return fmt.Sprintf("projects/%s/topics/%s", g.cfg.ProjectID, name)
}

func (g *GCP) subscriptionPath(name string) string {
	return fmt.Sprintf("projects/%s/subscriptions/%s", g.cfg.ProjectID, name)
}
