package hermes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const flushTimeout = 5 * time.Second

type Client struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewClient(ctx context.Context, url, token string, logger *slog.Logger) (*Client, error) {
	opts := []nats.Option{
		nats.Name("extract-session"),
		nats.Timeout(5 * time.Second),
		nats.MaxReconnects(3),
		nats.ReconnectWait(time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	if err := ctx.Err(); err != nil {
		nc.Close()
		return nil, err
	}
	return &Client{conn: nc, logger: logger}, nil
}

// Publish marshals data as JSON and publishes it on subject, waiting for the
// server to acknowledge the flush. A short-lived CLI exits right after, so an
// unflushed message would be lost.
func (c *Client) Publish(subject string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := c.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	if err := c.conn.FlushTimeout(flushTimeout); err != nil {
		return fmt.Errorf("flush %s: %w", subject, err)
	}
	c.logger.Debug("published", "subject", subject, "bytes", len(payload))
	return nil
}

func (c *Client) Close() {
	c.conn.Close()
}
