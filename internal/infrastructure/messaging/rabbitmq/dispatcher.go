package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gugatkesheladze/youtube-monitor/internal/application/jobs"
	"github.com/gugatkesheladze/youtube-monitor/internal/domain"
)

const (
	DefaultExchange = "monitor.jobs"
	RoutingJobDue   = "job.due"

	confirmWait = 5 * time.Second
)

// JobDueEvent is the body published for each due user.
type JobDueEvent struct {
	EventID      string    `json:"event_id"`
	UserID       int64     `json:"user_id"`
	DueAt        time.Time `json:"due_at"`
	DispatchedAt time.Time `json:"dispatched_at"`
}

func newJobDueEvent(job jobs.DueJob) JobDueEvent {
	return JobDueEvent{
		EventID:      uuid.NewString(),
		UserID:       job.UserID,
		DueAt:        job.AsOf.UTC(),
		DispatchedAt: job.DispatchedAt.UTC(),
	}
}

// Dispatcher publishes job.due events to a durable topic exchange with
// publisher confirms and mandatory routing.
type Dispatcher struct {
	url      string
	exchange string

	mu sync.Mutex

	conn *amqp.Connection
	ch   *amqp.Channel

	confirmCh <-chan amqp.Confirmation
	returnCh  <-chan amqp.Return
}

var _ jobs.Dispatcher = (*Dispatcher)(nil)

func NewDispatcher(url, exchange string) (*Dispatcher, error) {
	exchange = strings.TrimSpace(exchange)
	if exchange == "" {
		exchange = DefaultExchange
	}
	d := &Dispatcher{url: url, exchange: exchange}
	if err := d.connect(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetConn()
	return nil
}

// ---- jobs.Dispatcher ----

func (d *Dispatcher) DispatchJob(ctx context.Context, job jobs.DueJob) error {
	if err := d.publishJSON(ctx, RoutingJobDue, newJobDueEvent(job)); err != nil {
		return domain.ErrRabbitUnavailable(err)
	}
	return nil
}

// ---- internal ----

func (d *Dispatcher) connect() error {
	conn, err := amqp.Dial(d.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		d.exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false,
		false,
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("exchange declare: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("confirm mode: %w", err)
	}

	d.confirmCh = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	d.returnCh = ch.NotifyReturn(make(chan amqp.Return, 1))

	d.conn = conn
	d.ch = ch
	return nil
}

func (d *Dispatcher) ensureConnected() error {
	if d.conn != nil && !d.conn.IsClosed() && d.ch != nil {
		return nil
	}
	return d.connect()
}

func (d *Dispatcher) publishJSON(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, confirmWait)
	defer cancel()

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureConnected(); err != nil {
		return err
	}

	// stale confirms/returns from a timed-out publish
drain:
	for {
		select {
		case <-d.confirmCh:
		case <-d.returnCh:
		default:
			break drain
		}
	}

	if err := d.ch.PublishWithContext(
		ctx,
		d.exchange,
		routingKey,
		true,  // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	); err != nil {
		d.resetConn()
		return fmt.Errorf("publish failed: %w", err)
	}

	pending, err := awaitConfirm(ctx, routingKey, d.confirmCh, d.returnCh)
	if pending {
		// a late confirm would be read as the answer to the next publish
		d.resetConn()
	}
	return err
}

// awaitConfirm waits for the broker's answer to the last publish. pending is
// true when ctx ended first and the answer may still arrive.
func awaitConfirm(ctx context.Context, routingKey string, confirms <-chan amqp.Confirmation, returns <-chan amqp.Return) (pending bool, err error) {
	select {
	case ret := <-returns:
		return false, unroutable(routingKey, ret)

	case conf := <-confirms:
		// the broker sends basic.return before the ack of the same message
		select {
		case ret := <-returns:
			return false, unroutable(routingKey, ret)
		default:
		}
		if !conf.Ack {
			return false, fmt.Errorf("rabbitmq nack: key=%s deliveryTag=%d", routingKey, conf.DeliveryTag)
		}
		return false, nil

	case <-ctx.Done():
		return true, fmt.Errorf("rabbitmq confirm: key=%s: %w", routingKey, ctx.Err())
	}
}

func unroutable(routingKey string, ret amqp.Return) error {
	return fmt.Errorf("rabbitmq unroutable: key=%s code=%d text=%s", routingKey, ret.ReplyCode, ret.ReplyText)
}

func (d *Dispatcher) resetConn() {
	if d.ch != nil {
		_ = d.ch.Close()
		d.ch = nil
	}
	if d.conn != nil {
		_ = d.conn.Close()
		d.conn = nil
	}
}
