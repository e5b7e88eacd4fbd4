// Package nats pushes notification payloads onto a NATS subject per user so
// other agency services (mail digests, mobile push) can fan them out.
package nats

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/agencyflow/agencyflow/internal/core/domain"
	"github.com/agencyflow/agencyflow/internal/core/ports"
)

const subjectPrefix = "agencyflow.notify."

type Publisher struct {
	conn *nats.Conn
}

var _ ports.Pusher = (*Publisher)(nil)

func NewPublisher(url string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("agencyflow"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return &Publisher{conn: conn}, nil
}

func (p *Publisher) Push(ctx context.Context, userID domain.UserID, payload []byte) error {
	if err := p.conn.Publish(subjectPrefix+string(userID), payload); err != nil {
		return fmt.Errorf("publish notification for %s: %w", userID, err)
	}
	return nil
}

func (p *Publisher) Close() {
	p.conn.Drain()
}
