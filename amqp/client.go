package amqp

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/wizzilab/applink-client/internal/dispatch"
	"github.com/wizzilab/applink-client/internal/logging"
)

// QueueBindingConf describes one exchange/routing-key binding applied to a
// queue at connect time.
type QueueBindingConf struct {
	Exchange   string
	RoutingKey string
	NoWait     bool
	Arguments  amqp.Table
}

// QueueConf describes one queue to declare, bind, and consume.
type QueueConf struct {
	Name         string
	ConsumerName string
	Durable      bool
	Bindings     []QueueBindingConf
}

// Conf configures a new Client.
type Conf struct {
	URI    string
	Queues []QueueConf
}

// Client is the server-facing AMQP client: it declares and consumes the
// configured queues, classifies each delivery's routing key into a typed
// Unsolicited event, and reconnects on stream failure. The zero value is
// not usable; construct with New.
type Client struct {
	conf   Conf
	logger *zap.Logger

	dispatcher *dispatch.Dispatcher[Unsolicited]

	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool
	done   chan struct{}
}

type connection struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

// New dials conf.URI, declares and binds every configured queue, and starts
// the background consume/reconnect loop. The caller owns the returned
// Client and should Close it when done.
func New(conf Conf, logger *zap.Logger) (*Client, error) {
	logger = logging.OrNop(logger)

	cn, err := connect(conf)
	if err != nil {
		return nil, fmt.Errorf("amqp: connect: %w", err)
	}

	c := &Client{
		conf:       conf,
		logger:     logger,
		dispatcher: dispatch.New[Unsolicited](),
		conn:       cn.conn,
		ch:         cn.ch,
		done:       make(chan struct{}),
	}

	go c.run(cn)

	return c, nil
}

func connect(conf Conf) (connection, error) {
	conn, err := amqp.Dial(conf.URI)
	if err != nil {
		return connection{}, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return connection{}, err
	}

	for _, q := range conf.Queues {
		if _, err := ch.QueueDeclare(q.Name, q.Durable, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return connection{}, fmt.Errorf("declare queue %q: %w", q.Name, err)
		}
		for _, b := range q.Bindings {
			if err := ch.QueueBind(q.Name, b.RoutingKey, b.Exchange, b.NoWait, b.Arguments); err != nil {
				ch.Close()
				conn.Close()
				return connection{}, fmt.Errorf("bind queue %q to %q: %w", q.Name, b.RoutingKey, err)
			}
		}
	}

	return connection{conn: conn, ch: ch}, nil
}

// delivery carries one routing key and body off any of this connection's
// consumers, or the terminal error that ended a consumer's stream.
type delivery struct {
	routingKey string
	data       []byte
	err        error
}

// consumeAll fans the per-queue consumer streams into a single channel,
// closing it once every consumer has exited — whether from an Ack error or
// from its delivery channel closing, which is how amqp091-go signals the
// connection or channel has gone away. Closing out is what lets run's range
// loop notice stream end and drive the reconnect loop instead of blocking
// forever on an ordinary connection drop.
func (cn connection) consumeAll(conf Conf) (<-chan delivery, error) {
	out := make(chan delivery, len(conf.Queues))
	var wg sync.WaitGroup
	for _, q := range conf.Queues {
		deliveries, err := cn.ch.Consume(q.Name, q.ConsumerName, false, false, false, false, nil)
		if err != nil {
			return nil, fmt.Errorf("consume queue %q: %w", q.Name, err)
		}
		wg.Add(1)
		go func(deliveries <-chan amqp.Delivery) {
			defer wg.Done()
			for d := range deliveries {
				if err := d.Ack(false); err != nil {
					out <- delivery{err: err}
					return
				}
				out <- delivery{routingKey: d.RoutingKey, data: d.Body}
			}
		}(deliveries)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out, nil
}

// run owns the connection for the client's lifetime: consume until the
// stream ends, emit Disconnect, reconnect with a 1-second backoff, emit
// Connect, and resume. Listener identities survive the gap because the
// dispatcher itself is never replaced.
func (c *Client) run(cn connection) {
	defer close(c.done)

	for {
		deliveries, err := cn.consumeAll(c.conf)
		if err != nil {
			c.logger.Error("amqp: consume setup failed", zap.Error(err))
			cn.ch.Close()
			cn.conn.Close()
		} else {
			c.dispatcher.Dispatch(Unsolicited{Kind: ConnectEvent})
			for d := range deliveries {
				if c.isClosed() {
					return
				}
				if d.err != nil {
					c.logger.Error("amqp: consumer error", zap.Error(d.err))
					break
				}
				c.dispatcher.Dispatch(classify(d.routingKey, d.data))
			}
			cn.ch.Close()
			cn.conn.Close()
			c.dispatcher.Dispatch(Unsolicited{Kind: DisconnectEvent})
		}

		if c.isClosed() {
			return
		}

		var next connection
		for {
			if c.isClosed() {
				return
			}
			next, err = connect(c.conf)
			if err == nil {
				break
			}
			c.logger.Error("amqp: reconnect failed", zap.Error(err))
			time.Sleep(time.Second)
		}

		c.mu.Lock()
		c.conn = next.conn
		c.ch = next.ch
		c.mu.Unlock()
		cn = next
	}
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Unsolicited registers a new listener that observes every event the
// client dispatches: connection lifecycle, classified applink/gateway
// frames, and BadFormat. Close it when done.
func (c *Client) Unsolicited() *dispatch.Listener[Unsolicited] {
	return c.dispatcher.Listen()
}

// Close stops the reconnect loop and releases the underlying connection,
// draining every registered listener. It does not wait for an in-flight
// reconnect attempt's sleep to elapse.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	conn, ch := c.conn, c.ch
	c.mu.Unlock()

	if ch != nil {
		ch.Close()
	}
	if conn != nil {
		conn.Close()
	}
	c.dispatcher.CloseAll()
}
