// Package mqtt implements the device-facing messaging client: connect to
// the platform's MQTT broker, classify inbound topics into typed events,
// and correlate outbound remote-control and macro requests with their
// responses.
package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wizzilab/applink-client/codec/macro"
	"github.com/wizzilab/applink-client/codec/remotecontrol"
	"github.com/wizzilab/applink-client/codec/report"
	"github.com/wizzilab/applink-client/internal/dispatch"
	"github.com/wizzilab/applink-client/internal/logging"
)

// Options configures a new Client.
type Options struct {
	Broker    string // e.g. "ssl://host:8883" or "tcp://host:1883"
	ClientID  string
	Username  string
	Password  string
	Company   string
	QueueSize int // depth of the internal outbound command channel
}

func (o Options) queueSize() int {
	if o.QueueSize <= 0 {
		return 16
	}
	return o.QueueSize
}

type publishCommand struct {
	topic string
	data  []byte
}

// Client is the device-facing messaging client. The zero value is not
// usable; construct with New. A Client must be accessed through pointers —
// Clone returns a new *Client sharing the connection and dispatcher.
type Client struct {
	company string
	paho    paho.Client
	logger  *zap.Logger

	commandCh chan publishCommand
	dispatcher *dispatch.Dispatcher[Unsolicited]

	rootID    string
	id        int
	requestSN atomic.Int64
}

// ReceiveBackendDeadError reports that the inbound event stream closed
// before a request's correlation id ever arrived.
type ReceiveBackendDeadError struct{}

func (ReceiveBackendDeadError) Error() string { return "mqtt: receive backend dead" }

// SendBackendDeadError reports that the outbound command channel is closed.
type SendBackendDeadError struct{}

func (SendBackendDeadError) Error() string { return "mqtt: send backend dead" }

// Dash7boardError surfaces a macro run that reported Status{Err}; Trace
// holds every response observed for that run's correlation id.
type Dash7boardError struct {
	Msg   string
	Trace []macro.Response
}

func (e Dash7boardError) Error() string { return fmt.Sprintf("macro error: %s", e.Msg) }

// New connects to the broker described by opts and starts the background
// worker. The caller owns the returned Client and should Close it when done.
func New(opts Options, logger *zap.Logger) (*Client, error) {
	logger = logging.OrNop(logger)

	c := &Client{
		company:    opts.Company,
		logger:     logger,
		commandCh:  make(chan publishCommand, opts.queueSize()),
		dispatcher: dispatch.New[Unsolicited](),
		rootID:     uuid.NewString(),
	}

	clientID := opts.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("applink-client-%s", uuid.NewString())
	}

	pahoOpts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost).
		SetDefaultPublishHandler(c.onMessage)

	if opts.Username != "" {
		pahoOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		pahoOpts.SetPassword(opts.Password)
	}

	client := paho.NewClient(pahoOpts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt: connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect: %w", err)
	}
	c.paho = client

	go c.publishWorker()

	return c, nil
}

// newForTest builds a Client with no paho connection, wired only with the
// dispatcher and a fake command consumer — used by tests that exercise
// correlation and classification without a live broker.
func newForTest(company string, queueSize int) (*Client, <-chan publishCommand) {
	c := &Client{
		company:    company,
		logger:     logging.OrNop(nil),
		commandCh:  make(chan publishCommand, queueSize),
		dispatcher: dispatch.New[Unsolicited](),
		rootID:     uuid.NewString(),
	}
	return c, c.commandCh
}

func (c *Client) publishWorker() {
	for cmd := range c.commandCh {
		token := c.paho.Publish(cmd.topic, 1, false, cmd.data)
		if !token.WaitTimeout(30 * time.Second) {
			c.logger.Warn("publish timed out", zap.String("topic", cmd.topic))
			continue
		}
		if err := token.Error(); err != nil {
			c.logger.Error("publish failed", zap.String("topic", cmd.topic), zap.Error(err))
		}
	}
}

func (c *Client) onConnect(client paho.Client) {
	topic := fmt.Sprintf("/applink/%s/#", c.company)
	token := client.Subscribe(topic, 1, nil)
	if token.Wait() && token.Error() != nil {
		c.logger.Error("subscribe failed", zap.String("topic", topic), zap.Error(token.Error()))
		return
	}
	c.logger.Info("mqtt connected", zap.String("topic", topic))
	c.dispatcher.Dispatch(Unsolicited{Kind: ConnectEvent})
}

func (c *Client) onConnectionLost(_ paho.Client, err error) {
	c.logger.Warn("mqtt connection lost", zap.Error(err))
	c.dispatcher.Dispatch(Unsolicited{Kind: DisconnectEvent})
}

func (c *Client) onMessage(_ paho.Client, msg paho.Message) {
	if ev, ok := c.classify(msg.Topic(), msg.Payload()); ok {
		c.dispatcher.Dispatch(ev)
	}
}

// classify resolves one inbound publish into a typed Unsolicited event,
// matching topic prefixes in the order report, remote-control response,
// macro response, then dropping the platform's own request echoes. The
// second return value is false for dropped topics: own request echoes
// (silently) and unknown topics (logged at warn level).
func (c *Client) classify(topic string, payload []byte) (Unsolicited, bool) {
	reportPrefix := fmt.Sprintf("/applink/%s/report", c.company)
	rcResponsePrefix := fmt.Sprintf("/applink/%s/remotectrl/response/", c.company)
	macroResponsePrefix := fmt.Sprintf("/applink/%s/macro/response/", c.company)
	rcRequestPrefix := fmt.Sprintf("/applink/%s/remotectrl/request/", c.company)
	macroRequestPrefix := fmt.Sprintf("/applink/%s/macro/request/", c.company)

	switch {
	case strings.HasPrefix(topic, reportPrefix):
		if !utf8.Valid(payload) {
			return Unsolicited{Kind: BadFormatEvent, BadFormat: &BadFormat{Kind: BadFormatUtf8, Topic: topic, Data: payload}}, true
		}
		r, err := report.Parse(payload)
		if err != nil {
			return Unsolicited{Kind: BadFormatEvent, BadFormat: &BadFormat{Kind: BadFormatReportDecode, Topic: topic, Data: payload, Err: err}}, true
		}
		return Unsolicited{Kind: ReportEvent, Report: &r}, true

	case strings.HasPrefix(topic, rcResponsePrefix):
		if !utf8.Valid(payload) {
			return Unsolicited{Kind: BadFormatEvent, BadFormat: &BadFormat{Kind: BadFormatUtf8, Topic: topic, Data: payload}}, true
		}
		resp, err := remotecontrol.Parse(payload)
		if err != nil {
			return Unsolicited{Kind: BadFormatEvent, BadFormat: &BadFormat{Kind: BadFormatRemoteControlDecode, Topic: topic, Data: payload, Err: err}}, true
		}
		return Unsolicited{Kind: RemoteControlEvent, RemoteControl: &resp}, true

	case strings.HasPrefix(topic, macroResponsePrefix):
		if !utf8.Valid(payload) {
			return Unsolicited{Kind: BadFormatEvent, BadFormat: &BadFormat{Kind: BadFormatUtf8, Topic: topic, Data: payload}}, true
		}
		resp, err := macro.Parse(payload)
		if err != nil {
			return Unsolicited{Kind: BadFormatEvent, BadFormat: &BadFormat{Kind: BadFormatMacroDecode, Topic: topic, Data: payload, Err: err}}, true
		}
		return Unsolicited{Kind: MacroEvent, Macro: &resp}, true

	case strings.HasPrefix(topic, rcRequestPrefix), strings.HasPrefix(topic, macroRequestPrefix):
		return Unsolicited{}, false // own echo

	default:
		c.logger.Warn("unknown mqtt topic", zap.String("topic", topic))
		return Unsolicited{}, false
	}
}

// requestID composes the next correlation id for this client handle:
// root (shared across Clone), per-clone id, per-call sequence number.
func (c *Client) requestID() string {
	sn := c.requestSN.Add(1)
	return fmt.Sprintf("%s-%d-%d", c.rootID, c.id, sn)
}

func (c *Client) publish(ctx context.Context, topic string, data []byte) error {
	select {
	case c.commandCh <- publishCommand{topic: topic, data: data}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// feedForTest classifies and dispatches a raw inbound publish without a
// live paho connection; used by tests that exercise correlation.
func (c *Client) feedForTest(topic string, payload []byte) {
	if ev, ok := c.classify(topic, payload); ok {
		c.dispatcher.Dispatch(ev)
	}
}

// Unsolicited registers a new listener that observes every event the client
// dispatches — connection lifecycle, reports, and all response traffic,
// including responses that an in-flight request/response call also
// receives on its own listener. Close it when done.
func (c *Client) Unsolicited() *dispatch.Listener[Unsolicited] {
	return c.dispatcher.Listen()
}

// Close stops the background publish worker and the underlying connection,
// draining every registered listener.
func (c *Client) Close() {
	close(c.commandCh)
	if c.paho != nil {
		c.paho.Disconnect(250)
	}
	c.dispatcher.CloseAll()
}

// Clone returns a new handle sharing the connection, dispatcher and root id
// with c; its per-clone id is distinct so correlation ids stay unique
// across clones of the same root.
func (c *Client) Clone() *Client {
	clone := &Client{
		company:    c.company,
		paho:       c.paho,
		logger:     c.logger,
		commandCh:  c.commandCh,
		dispatcher: c.dispatcher,
		rootID:     c.rootID,
		id:         c.id + 1,
	}
	return clone
}
