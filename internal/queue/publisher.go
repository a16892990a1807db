package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends events to durable queues on the default exchange.  Each
// call dials its own connection.
type Publisher struct {
    url string
    log *slog.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string, log *slog.Logger) *Publisher {
    if log == nil {
        log = slog.Default()
    }
    return &Publisher{url: url, log: log.With("component", "publisher")}
}

// Publish marshals event to JSON and publishes it persistently to queue.
func (p *Publisher) Publish(ctx context.Context, queue string, event any) error {
    body, err := json.Marshal(event)
    if err != nil {
        return fmt.Errorf("marshal %s event: %w", queue, err)
    }

    conn, err := amqp.Dial(p.url)
    if err != nil {
        return fmt.Errorf("dial broker: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("open channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("declare %s: %w", queue, err)
    }

    msg := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
        return fmt.Errorf("publish %s: %w", queue, err)
    }
    p.log.Debug("event published", "queue", queue, "bytes", len(body))
    return nil
}
