package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "log/slog"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultBookingLogPath is where booking events are appended when no path
// is configured.
const DefaultBookingLogPath = "logs/booking.log"

var bookingQueues = []string{BookingConfirmedQueue, BookingCancelledQueue}

// BookingLog appends one JSON line per booking event.
type BookingLog struct {
    log *slog.Logger
}

// NewBookingLog writes booking lines to w.
func NewBookingLog(w io.Writer) *BookingLog {
    h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
    return &BookingLog{log: slog.New(h)}
}

// Handle decodes a delivery body and writes it to the log.
func (b *BookingLog) Handle(queue string, body []byte) error {
    var ev BookingEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.BookingID == 0 {
        return errors.New("booking_id missing")
    }
    msg := "booking confirmed"
    if queue == BookingCancelledQueue {
        msg = "booking cancelled"
    }
    b.log.Info(msg,
        "booking_id", ev.BookingID,
        "student_id", ev.StudentID,
        "library_id", ev.LibraryID,
        "time_slot_id", ev.TimeSlotID,
        "date", ev.Date,
        "start_time", ev.StartTime,
        "end_time", ev.EndTime,
        "seats", ev.Seats,
        "occurred_at", ev.OccurredAt,
    )
    return nil
}

// StartBookingConsumer consumes both booking queues and appends every event
// to logPath.  It reconnects with exponential backoff and returns only when
// ctx is cancelled or the log file cannot be opened.
func StartBookingConsumer(ctx context.Context, url, logPath string, log *slog.Logger) error {
    if logPath == "" {
        logPath = DefaultBookingLogPath
    }
    if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", filepath.Dir(logPath), err)
    }
    f, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open booking log: %w", err)
    }
    defer f.Close()

    sink := NewBookingLog(f)
    log = log.With("component", "booking-consumer")

    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Warn("dial broker failed", "err", err, "retry_in", backoff)
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = consumeLoop(ctx, conn, sink, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.Warn("consume loop ended, reconnecting", "err", err)
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, sink *BookingLog, log *slog.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warn("set QoS failed", "err", err)
    }

    type delivery struct {
        queue string
        d     amqp.Delivery
    }
    merged := make(chan delivery)
    for _, q := range bookingQueues {
        if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
            return fmt.Errorf("queue declare %s: %w", q, err)
        }
        msgs, err := ch.Consume(q, "", false, false, false, false, nil)
        if err != nil {
            return fmt.Errorf("queue consume %s: %w", q, err)
        }
        go func(q string, msgs <-chan amqp.Delivery) {
            for d := range msgs {
                select {
                case merged <- delivery{queue: q, d: d}:
                case <-ctx.Done():
                    return
                }
            }
        }(q, msgs)
    }

    closed := conn.NotifyClose(make(chan *amqp.Error, 1))
    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case amqpErr := <-closed:
            if amqpErr == nil {
                return errors.New("connection closed")
            }
            return amqpErr
        case m := <-merged:
            if err := sink.Handle(m.queue, m.d.Body); err != nil {
                log.Error("handle message failed", "queue", m.queue, "err", err)
                // reject without requeue to avoid a poison message loop
                _ = m.d.Nack(false, false)
                continue
            }
            _ = m.d.Ack(false)
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
