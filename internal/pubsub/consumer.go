package pubsub

import (
	"WaGPT/entity"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// BatchHandler processes one batch of records. It reports nothing back:
// every delivery of the batch is acked once it returns.
type BatchHandler func(ctx context.Context, records []entity.QueueRecord)

type ConsumerOptions struct {
	Exchange       string
	Queue          string
	RoutingKey     string
	Workers        int
	Prefetch       int
	BatchSize      int
	HandlerTimeout time.Duration
}

type Consumer struct {
	conn    *amqp091.Connection
	opts    ConsumerOptions
	handler BatchHandler
	log     *slog.Logger
	wg      sync.WaitGroup
}

func NewConsumer(conn *amqp091.Connection, opts ConsumerOptions, handler BatchHandler, logger *slog.Logger) *Consumer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.BatchSize < 1 {
		opts.BatchSize = 1
	}
	if opts.Prefetch < opts.BatchSize {
		opts.Prefetch = opts.BatchSize
	}
	return &Consumer{
		conn:    conn,
		opts:    opts,
		handler: handler,
		log:     logger,
	}
}

// Start declares the topology and runs the worker pool until ctx is done
// or the channel closes.
func (c *Consumer) Start(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	if err = c.declare(ch); err != nil {
		_ = ch.Close()
		return err
	}

	msgs, err := ch.Consume(c.opts.Queue, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return err
	}

	batches := make(chan []amqp091.Delivery)
	for i := 0; i < c.opts.Workers; i++ {
		c.wg.Add(1)
		go c.workerLoop(batches)
	}

	go func() {
		defer close(batches)
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					c.log.Warn("delivery channel closed")
					return
				}
				batch := collectBatch(d, msgs, c.opts.BatchSize)
				select {
				case batches <- batch:
				case <-ctx.Done():
					for _, m := range batch {
						_ = m.Nack(false, true)
					}
					return
				}
			}
		}
	}()

	c.log.Info("consumer started",
		slog.String("queue", c.opts.Queue),
		slog.Int("workers", c.opts.Workers),
		slog.Int("batch_size", c.opts.BatchSize),
	)
	return nil
}

// Wait blocks until all workers have finished their current batch.
func (c *Consumer) Wait() {
	c.wg.Wait()
}

func (c *Consumer) declare(ch *amqp091.Channel) error {
	if err := ch.Qos(c.opts.Prefetch, 0, false); err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(c.opts.Exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	q, err := ch.QueueDeclare(c.opts.Queue, true, false, false, false, nil)
	if err != nil {
		return err
	}
	if err := ch.QueueBind(q.Name, c.opts.RoutingKey, c.opts.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind %s: %w", q.Name, err)
	}
	return nil
}

func (c *Consumer) workerLoop(batches <-chan []amqp091.Delivery) {
	defer c.wg.Done()
	for batch := range batches {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.HandlerTimeout)
		c.handler(ctx, toRecords(batch))
		cancel()

		for _, d := range batch {
			if err := d.Ack(false); err != nil {
				c.log.Error("ack", slog.String("id", d.MessageId), slog.Any("error", err))
			}
		}
	}
}

// collectBatch starts a batch with first and adds deliveries that are
// already waiting, up to max.
func collectBatch(first amqp091.Delivery, msgs <-chan amqp091.Delivery, max int) []amqp091.Delivery {
	batch := []amqp091.Delivery{first}
	for len(batch) < max {
		select {
		case d, ok := <-msgs:
			if !ok {
				return batch
			}
			batch = append(batch, d)
		default:
			return batch
		}
	}
	return batch
}

func toRecords(batch []amqp091.Delivery) []entity.QueueRecord {
	records := make([]entity.QueueRecord, 0, len(batch))
	for _, d := range batch {
		id := d.MessageId
		if id == "" {
			id = fmt.Sprintf("tag-%d", d.DeliveryTag)
		}
		records = append(records, entity.QueueRecord{ID: id, Body: d.Body})
	}
	return records
}
