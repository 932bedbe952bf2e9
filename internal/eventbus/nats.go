package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Options configures the NATS publisher.
type Options struct {
	URL string
	// SubjectPrefix is prepended to the event type to form the
	// subject, e.g. "dayplan" -> "dayplan.task.completed".
	SubjectPrefix string
	// Stream is the JetStream stream ensured at startup.
	Stream string
}

// NATSPublisher publishes task change events over NATS JetStream.
type NATSPublisher struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	prefix string
}

// NewNATSPublisher connects to NATS and ensures the event stream exists.
func NewNATSPublisher(ctx context.Context, opts Options) (*NATSPublisher, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	if opts.SubjectPrefix == "" {
		opts.SubjectPrefix = "dayplan"
	}
	if opts.Stream == "" {
		opts.Stream = "DAYPLAN_EVENTS"
	}

	conn, err := nats.Connect(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     opts.Stream,
		Subjects: []string{opts.SubjectPrefix + ".>"},
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ensure event stream: %w", err)
	}

	slog.Info("NATS event publisher initialized",
		"url", opts.URL,
		"stream", opts.Stream,
		"subject_prefix", opts.SubjectPrefix)

	return &NATSPublisher{conn: conn, js: js, prefix: opts.SubjectPrefix}, nil
}

// Publish sends one event to its type-derived subject.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	subject := p.prefix + "." + string(ev.Type)
	if _, err := p.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	p.conn.Close()
	return nil
}
