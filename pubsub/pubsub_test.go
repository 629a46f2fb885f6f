package pubsub

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/gobus/config"
)

type fakeClient struct {
	openErr  error
	closeErr error

	opens  int
	closes int
}

func (f *fakeClient) Open(context.Context) error { f.opens++; return f.openErr }
func (f *fakeClient) Close() error               { f.closes++; return f.closeErr }

func (f *fakeClient) Publish(context.Context, []byte) (string, error) { return "", nil }

func (f *fakeClient) Consume(context.Context, Handler, ...ConsumeOption) error { return nil }

func TestWithClientClosesOnSuccess(t *testing.T) {
	fc := &fakeClient{}
	err := WithClient(t.Context(), fc, func(context.Context, Client) error { return nil })
	if err != nil {
		t.Fatalf("WithClient() = %v, want nil", err)
	}
	if fc.opens != 1 || fc.closes != 1 {
		t.Fatalf("opens=%d closes=%d, want 1/1", fc.opens, fc.closes)
	}
}

func TestWithClientClosesOnError(t *testing.T) {
	errBoom := errors.New("boom")
	fc := &fakeClient{}
	err := WithClient(t.Context(), fc, func(context.Context, Client) error { return errBoom })
	if !errors.Is(err, errBoom) {
		t.Fatalf("WithClient() = %v, want %v", err, errBoom)
	}
	if fc.closes != 1 {
		t.Fatalf("closes=%d, want 1", fc.closes)
	}
}

func TestWithClientOpenFailureSkipsBody(t *testing.T) {
	errOpen := errors.New("no route to host")
	fc := &fakeClient{openErr: errOpen}
	ran := false
	err := WithClient(t.Context(), fc, func(context.Context, Client) error {
		ran = true
		return nil
	})
	if !errors.Is(err, errOpen) {
		t.Fatalf("WithClient() = %v, want %v", err, errOpen)
	}
	if ran {
		t.Fatal("body ran after a failed open")
	}
	if fc.closes != 0 {
		t.Fatalf("closes=%d, want 0 (nothing to release)", fc.closes)
	}
}

func TestWithClientSurfacesCloseError(t *testing.T) {
	errClose := errors.New("close failed")
	fc := &fakeClient{closeErr: errClose}
	err := WithClient(t.Context(), fc, func(context.Context, Client) error { return nil })
	if !errors.Is(err, errClose) {
		t.Fatalf("WithClient() = %v, want %v", err, errClose)
	}
}

func TestProcessingErrorUnwrap(t *testing.T) {
	cause := errors.New("cannot parse payload")
	err := error(&ProcessingError{Err: cause})

	if !errors.Is(err, cause) {
		t.Fatal("ProcessingError should unwrap to its cause")
	}
	var perr *ProcessingError
	if !errors.As(err, &perr) {
		t.Fatal("errors.As should match *ProcessingError")
	}
}

func TestInvokeHandlerRecoversPanic(t *testing.T) {
	err := invokeHandler(t.Context(), "redis", func(context.Context) error {
		panic("corrupt payload")
	})
	if err == nil {
		t.Fatal("invokeHandler() should convert a panic into an error")
	}
}

func TestInvokeHandlerPassesThrough(t *testing.T) {
	want := errors.New("handler says no")
	err := invokeHandler(t.Context(), "redis", func(context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("invokeHandler() = %v, want %v", err, want)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte(`
broker: redis
redis:
  host: localhost
  port: 6379
  db: 2
  topic: events
gcp:
  project_id: demo
  topic: events
  subscription: events-worker
`))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	defer cfg.Close()

	if got := BrokerFromConfig(cfg); got != BrokerRedis {
		t.Errorf("BrokerFromConfig() = %q, want %q", got, BrokerRedis)
	}

	opts := OptionsFromConfig(cfg)
	if opts.Redis.Host != "localhost" || opts.Redis.Port != 6379 || opts.Redis.DB != 2 {
		t.Errorf("unexpected redis options: %+v", opts.Redis)
	}
	if opts.Redis.Topic != "events" {
		t.Errorf("Redis.Topic = %q, want %q", opts.Redis.Topic, "events")
	}
	if opts.GCP.ProjectID != "demo" || opts.GCP.Subscription != "events-worker" {
		t.Errorf("unexpected gcp options: %+v", opts.GCP)
	}
}

func TestBrokerFromConfigDefault(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte(`{}`))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	defer cfg.Close()

	if got := BrokerFromConfig(cfg); got != BrokerGCPPubSub {
		t.Errorf("BrokerFromConfig() = %q, want default %q", got, BrokerGCPPubSub)
	}
}
