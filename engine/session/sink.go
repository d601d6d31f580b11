package session

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/farsdash/farsdash/pkg/natsutil"
)

// Interaction is the record of one accepted user input.
type Interaction struct {
	SessionID string    `json:"session_id"`
	View      string    `json:"view"`
	StateID   int       `json:"state_id,omitempty"`
	Event     string    `json:"event"`
	Data      any       `json:"data,omitempty"`
	At        time.Time `json:"at"`
}

// Sink receives every accepted input.
type Sink interface {
	Record(ctx context.Context, in Interaction) error
}

// NopSink drops everything.
type NopSink struct{}

func (NopSink) Record(context.Context, Interaction) error { return nil }

// NATSSink publishes interactions as JSON on a subject.
type NATSSink struct {
	pub *natsutil.Publisher[Interaction]
}

// NewNATSSink publishes on subject over nc.
func NewNATSSink(nc *nats.Conn, subject string) *NATSSink {
	return &NATSSink{pub: natsutil.NewPublisher[Interaction](nc, subject)}
}

// DialNATSSink connects to url and publishes on subject.
func DialNATSSink(url, subject string) (*NATSSink, error) {
	nc, err := nats.Connect(url, nats.Name("farsdash"))
	if err != nil {
		return nil, err
	}
	return NewNATSSink(nc, subject), nil
}

func (s *NATSSink) Record(ctx context.Context, in Interaction) error {
	return s.pub.Publish(ctx, in)
}

// Subject is where interactions are published.
func (s *NATSSink) Subject() string { return s.pub.Subject() }

// Close drains the connection.
func (s *NATSSink) Close() error { return s.pub.Close() }
