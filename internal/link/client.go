package link

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"telematics-bridge/internal/events"
	"telematics-bridge/internal/observability"
)

var ErrNotConnected = errors.New("link: not connected")

// Client streams delivered events as NDJSON to the upstream proxy and
// reconnects when the connection drops.
type Client struct {
	addr   string
	logger *slog.Logger

	retryDelay     time.Duration
	reconnectDelay time.Duration

	mu        sync.Mutex
	conn      net.Conn
	announced map[string]bool
}

func New(addr string, lg *slog.Logger) *Client {
	if lg == nil {
		lg = observability.Discard()
	}
	return &Client{
		addr:           addr,
		logger:         lg.With("component", "link"),
		retryDelay:     5 * time.Second,
		reconnectDelay: 2 * time.Second,
	}
}

func (c *Client) Name() string { return "link" }

// Run keeps the connection up until ctx ends.
func (c *Client) Run(ctx context.Context) {
	var d net.Dialer
	for ctx.Err() == nil {
		conn, err := d.DialContext(ctx, "tcp", c.addr)
		if err != nil {
			c.logger.Error("dial failed", "addr", c.addr, "err", err)
			if !sleep(ctx, c.retryDelay) {
				return
			}
			continue
		}

		c.setConn(conn)
		c.logger.Info("connected", "remote", conn.RemoteAddr().String())

		stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
		c.readLoop(conn)
		stop()

		c.clearConn(conn)
		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("connection closed, reconnecting")
		if !sleep(ctx, c.reconnectDelay) {
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Client) setConn(conn net.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn = conn
	c.announced = make(map[string]bool)
}

func (c *Client) clearConn(conn net.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) getConn() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// Connected reports whether a proxy connection is currently up.
func (c *Client) Connected() bool { return c.getConn() != nil }

// The proxy does not send commands yet; incoming lines are only logged.
func (c *Client) readLoop(conn net.Conn) {
	r := bufio.NewScanner(conn)
	for r.Scan() {
		c.logger.Debug("incoming line", "line", r.Text())
	}
	if err := r.Err(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
		c.logger.Warn("read error", "err", err)
	}
}

type eventLine struct {
	DeviceID      string      `json:"device_id"`
	DeviceConnect bool        `json:"device_connect,omitempty"`
	DeviceUpdate  bool        `json:"device_update,omitempty"`
	Event         events.Kind `json:"event"`
	Payload       any         `json:"payload"`
	Received      time.Time   `json:"received"`
}

// Send writes ev as one NDJSON line. The first line per device on each
// connection carries device_connect, later ones device_update. It fails fast
// while disconnected.
func (c *Client) Send(ctx context.Context, deviceID string, ev events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	line := eventLine{
		DeviceID: deviceID,
		Event:    ev.Kind,
		Payload:  ev.Payload,
		Received: ev.Received,
	}
	state := c.stateFor(deviceID)
	line.DeviceConnect = state == DeviceStateConnect
	line.DeviceUpdate = state == DeviceStateUpdate

	b, err := json.Marshal(line)
	if err != nil {
		if state == DeviceStateConnect {
			delete(c.announced, deviceID)
		}
		return err
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetWriteDeadline(dl)
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	if _, err = c.conn.Write(append(b, '\n')); err != nil {
		if state == DeviceStateConnect {
			delete(c.announced, deviceID)
		}
		return err
	}
	return nil
}
