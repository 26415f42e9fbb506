package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

const (
	SubjectAdCreated = "ads.created"
	SubjectAdUpdated = "ads.updated"
	SubjectAdDeleted = "ads.deleted"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

type NATSPublisher struct {
	conn conn
}

func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("adboard"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", subject, err)
	}
	return p.conn.Publish(subject, jsonData)
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
