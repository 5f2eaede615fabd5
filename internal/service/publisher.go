package service

import (
    "context"
    "encoding/json"
    "errors"
    "log"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    q "github.com/iliyamo/kashiyatra-booking/internal/queue"
)

// EventPublisher delivers booking events.  Callers log and ignore
// failures; a broker outage never fails a booking request.
type EventPublisher interface {
    Publish(ctx context.Context, ev q.BookingEvent) error
}

const (
    brokerDialTimeout = 2 * time.Second
    brokerRedialDelay = 5 * time.Second
)

// errBrokerBackoff is returned while a failed dial is still fresh.
var errBrokerBackoff = errors.New("rabbitmq: broker unreachable, retry later")

// BrokerPublisher publishes booking events to the RabbitMQ topic exchange
// with the event type as routing key.  The connection is opened lazily
// and re-established after a failure.  Messages are marked as persistent.
//
// Dials are bounded by dialTimeout, and after a failed dial Publish fails
// fast until redialDelay has passed, so an unreachable broker holds the
// lock for at most one short dial.
type BrokerPublisher struct {
    url         string
    dialTimeout time.Duration
    redialDelay time.Duration

    mu       sync.Mutex
    conn     *amqp.Connection
    ch       *amqp.Channel
    nextDial time.Time
}

// NewBrokerPublisher returns a publisher for the broker at url.  No
// connection is made until the first Publish.
func NewBrokerPublisher(url string) *BrokerPublisher {
    return &BrokerPublisher{url: url, dialTimeout: brokerDialTimeout, redialDelay: brokerRedialDelay}
}

func (p *BrokerPublisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.closeLocked()
    if time.Now().Before(p.nextDial) {
        return nil, errBrokerBackoff
    }

    conn, err := amqp.DialConfig(p.url, amqp.Config{
        Heartbeat: 10 * time.Second,
        Locale:    "en_US",
        Dial:      amqp.DefaultDial(p.dialTimeout),
    })
    if err != nil {
        p.nextDial = time.Now().Add(p.redialDelay)
        log.Printf("rabbitmq: dial failed, next attempt in %s: %v", p.redialDelay, err)
        return nil, err
    }
    ch, err := conn.Channel()
    if err != nil {
        log.Printf("rabbitmq: channel open failed: %v", err)
        _ = conn.Close()
        return nil, err
    }
    // Durable so the exchange survives broker restarts.
    if err := ch.ExchangeDeclare(q.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
        log.Printf("rabbitmq: exchange declare failed: %v", err)
        _ = ch.Close()
        _ = conn.Close()
        return nil, err
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

// Publish sends ev.  Any error is logged and returned so the caller can
// choose to ignore it.
func (p *BrokerPublisher) Publish(ctx context.Context, ev q.BookingEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        log.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel()
    if err != nil {
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        MessageId:    ev.EventID,
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, q.Exchange, ev.Type, false, false, pub); err != nil {
        log.Printf("rabbitmq: publish %s failed: %v", ev.Type, err)
        p.closeLocked()
        return err
    }
    return nil
}

// Close releases the broker connection.
func (p *BrokerPublisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.closeLocked()
    return nil
}

func (p *BrokerPublisher) closeLocked() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}
