package netsync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/arcade/internal/core/observability/log"
	"github.com/zeusync/arcade/internal/core/world"
)

// TickSink is told how many ticks became runnable. The tick scheduler
// implements it.
type TickSink interface {
	NotifyTicks(n int)
}

type ClientConfig struct {
	URL              string
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	// InputBuffer bounds the number of ticks with buffered remote input.
	InputBuffer int
}

type remoteEntry struct {
	input    world.Input
	checksum uint64
}

var (
	_ world.RemoteInputs   = (*Client)(nil)
	_ world.InputPublisher = (*Client)(nil)
)

// Client follows a Server: tick notifications become pending scheduler
// steps, relayed input is buffered per tick, and the input applied in every
// local tick is published back.
type Client struct {
	cfg  ClientConfig
	log  log.Log
	conn *websocket.Conn

	writeMu sync.Mutex
	closed  atomic.Bool

	inputMu   sync.Mutex
	inputs    map[uint64]remoteEntry
	published uint64

	notified atomic.Uint64
	desyncs  atomic.Uint64
	evicted  atomic.Uint64
}

// Dial connects to a server. Run must be called to start receiving.
func Dial(ctx context.Context, cfg ClientConfig, logger log.Log) (*Client, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	if cfg.InputBuffer <= 0 {
		cfg.InputBuffer = 1
	}
	dialer := websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, cfg.URL, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", cfg.URL)
	}
	return &Client{
		cfg:    cfg,
		log:    logger.Named("netsync.client"),
		conn:   conn,
		inputs: make(map[uint64]remoteEntry),
	}, nil
}

// Notified is the number of tick notifications received.
func (c *Client) Notified() uint64 { return c.notified.Load() }

// Desyncs counts ticks where a peer reported a different checksum.
func (c *Client) Desyncs() uint64 { return c.desyncs.Load() }

// Evicted counts remote inputs dropped because the buffer was full.
func (c *Client) Evicted() uint64 { return c.evicted.Load() }

// Run reads server frames until the connection closes or ctx is done. Each
// tick notification is passed to sink. It returns nil only when ctx ends or
// Close was called.
func (c *Client) Run(ctx context.Context, sink TickSink) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-stop:
		}
	}()

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || c.closed.Load() {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return errors.Wrap(ErrClosed, "server closed the connection")
			}
			return errors.Wrap(err, "failed to read message")
		}
		if kind != websocket.TextMessage {
			continue
		}
		msg, err := decodeMessage(data)
		if err != nil {
			c.log.Debug("ignoring message", log.Error(err))
			continue
		}
		c.handle(msg, sink)
	}
}

func (c *Client) handle(msg Message, sink TickSink) {
	switch msg.Type {
	case TypeTick:
		c.notified.Add(1)
		if sink != nil {
			sink.NotifyTicks(1)
		}
	case TypeInput:
		c.storeInput(msg.Tick, *msg.Input, msg.Checksum)
	}
}

func (c *Client) storeInput(n uint64, in world.Input, checksum uint64) {
	c.inputMu.Lock()
	defer c.inputMu.Unlock()

	if n <= c.published {
		return
	}
	c.inputs[n] = remoteEntry{input: in, checksum: checksum}
	for len(c.inputs) > c.cfg.InputBuffer {
		oldest := n
		for k := range c.inputs {
			if k < oldest {
				oldest = k
			}
		}
		delete(c.inputs, oldest)
		c.evicted.Add(1)
	}
}

// InputFor returns the relayed input for tick n, if any arrived in time.
func (c *Client) InputFor(n uint64) (world.Input, bool) {
	c.inputMu.Lock()
	defer c.inputMu.Unlock()
	e, ok := c.inputs[n]
	return e.input, ok
}

// Buffered is the number of ticks with remote input waiting.
func (c *Client) Buffered() int {
	c.inputMu.Lock()
	defer c.inputMu.Unlock()
	return len(c.inputs)
}

// PublishInput sends the input applied in tick n with the resulting
// checksum and compares it with the checksum a peer reported for n.
func (c *Client) PublishInput(n uint64, in world.Input, checksum uint64) error {
	c.inputMu.Lock()
	if e, ok := c.inputs[n]; ok && e.checksum != 0 && e.checksum != checksum {
		c.desyncs.Add(1)
		c.log.Warn("checksum mismatch", log.Uint64("tick", n),
			log.Uint64("local", checksum), log.Uint64("remote", e.checksum))
	}
	for k := range c.inputs {
		if k <= n {
			delete(c.inputs, k)
		}
	}
	if n > c.published {
		c.published = n
	}
	c.inputMu.Unlock()

	data, err := encodeMessage(Message{Type: TypeInput, Tick: n, Input: &in, Checksum: checksum})
	if err != nil {
		return err
	}
	return c.send(data)
}

func (c *Client) send(data []byte) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.cfg.WriteTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.Wrap(err, "failed to write message")
	}
	return nil
}

// Close sends a close frame and closes the connection. It is safe to call
// more than once.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()
	return c.conn.Close()
}
