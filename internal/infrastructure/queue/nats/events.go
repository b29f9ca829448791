package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/edurag/edurag/internal/core/ports"
)

// Publisher emits job lifecycle events on a NATS subject so external
// consumers (notification services, audit sinks) can follow ingestion
// without polling the API.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

func NewPublisher(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("edurag-events"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Publisher{conn: conn, subject: subject}, nil
}

func (p *Publisher) PublishJobEvent(_ context.Context, event ports.JobEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode job event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish job event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
	}
}
