// Package ipc implements the client side of the playback engine's line-oriented
// JSON-IPC protocol over a local unix socket.
//
// The engine answers one request per line and interleaves asynchronous event
// records on the same connection, so the client correlates replies by a
// monotonically increasing request identifier and keeps at most one request
// outstanding per connection. No other package formats or parses protocol lines.
package ipc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ShiningRocket/MPV-PLAYER/key"
	"github.com/ShiningRocket/MPV-PLAYER/log"
	"github.com/spf13/viper"
)

const (
	defaultConnectRetries = 3
	defaultConnectDelay   = 100 * time.Millisecond
	defaultReplyTimeout   = 1 * time.Second
)

// request is the JSON structure sent to the engine's IPC socket.
type request struct {
	Command   []interface{} `json:"command"`
	RequestID int64         `json:"request_id"`
}

// response is the JSON structure received from the engine's IPC socket.
// Event is set on asynchronous notifications, which share the connection.
type response struct {
	Data      interface{} `json:"data"`
	Error     string      `json:"error"`
	RequestID int64       `json:"request_id"`
	Event     string      `json:"event"`
}

// Client owns a single duplex connection to the engine control socket.
// All methods are safe for concurrent use; requests are serialized so that
// commands issued concurrently reach the engine in a strict per-connection order.
type Client struct {
	mu         sync.Mutex
	socketPath string
	conn       net.Conn
	reader     *bufio.Reader
	nextID     int64

	connectRetries int
	connectDelay   time.Duration
	replyTimeout   time.Duration
}

// New creates a disconnected client for the given socket path.
// Retry and timeout budgets come from configuration, falling back to
// built-in defaults when unset.
func New(socketPath string) *Client {
	return &Client{
		socketPath:     socketPath,
		connectRetries: intOr(key.IPCConnectRetries, defaultConnectRetries),
		connectDelay:   msOr(key.IPCConnectDelay, defaultConnectDelay),
		replyTimeout:   msOr(key.IPCReplyTimeout, defaultReplyTimeout),
	}
}

// Connect establishes the connection with bounded retry and fixed backoff.
// Any prior handle is released first, so at most one connection is live.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.dropLocked()

	var lastErr error
	for attempt := 0; attempt < c.connectRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(c.connectDelay)
		}

		conn, err := net.Dial("unix", c.socketPath)
		if err == nil {
			c.conn = conn
			c.reader = bufio.NewReader(conn)
			return nil
		}
		lastErr = err
	}

	return fmt.Errorf("%w: dial %s after %d attempts: %v",
		ErrConnection, c.socketPath, c.connectRetries, lastErr)
}

// Connected reports whether a connection handle is currently held.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Close releases the connection. Idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked()
	return nil
}

// dropLocked releases the connection handle. Caller holds c.mu.
func (c *Client) dropLocked() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
		c.reader = nil
	}
}

// Send issues one command and waits for its correlated reply.
// The exchange holds the client mutex for its whole duration: the protocol is
// request/response over one connection, so one request is outstanding at a time.
func (c *Client) Send(args ...interface{}) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, fmt.Errorf("%w: not connected", ErrConnection)
	}

	c.nextID++
	id := c.nextID

	payload, err := json.Marshal(request{Command: args, RequestID: id})
	if err != nil {
		return nil, fmt.Errorf("marshal command: %w", err)
	}

	deadline := time.Now().Add(c.replyTimeout)

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return nil, c.failLocked(err)
	}
	if _, err := c.conn.Write(append(payload, '\n')); err != nil {
		return nil, c.failLocked(err)
	}

	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, c.failLocked(err)
	}

	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			return nil, c.failLocked(err)
		}

		var resp response
		if err := json.Unmarshal(line, &resp); err != nil {
			// Malformed line: log and discard. The request resolves as a
			// timeout if no well-formed reply follows within the deadline.
			log.Warnf("%v: unparseable reply line: %q", ErrProtocol, line)
			continue
		}

		if resp.Event != "" {
			log.Debugf("discarding engine event %q", resp.Event)
			continue
		}

		if resp.RequestID != id {
			log.Warnf("%v: reply for request %d while %d outstanding, discarded",
				ErrProtocol, resp.RequestID, id)
			continue
		}

		if resp.Error != "" && resp.Error != "success" {
			return nil, fmt.Errorf("engine error: %s", resp.Error)
		}
		return resp.Data, nil
	}
}

// failLocked classifies a transport failure, dropping the connection on
// anything other than a deadline expiry. A dropped engine is detected here and
// surfaced as ErrConnection on the next operation; reconnection is the
// caller's decision.
func (c *Client) failLocked(err error) error {
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		return fmt.Errorf("%w: no reply within %s", ErrTimeout, c.replyTimeout)
	}
	c.dropLocked()
	return fmt.Errorf("%w: %v", ErrConnection, err)
}

// GetProperty retrieves an engine property value.
func (c *Client) GetProperty(name string) (interface{}, error) {
	return c.Send("get_property", name)
}

// SetProperty assigns an engine property value.
func (c *Client) SetProperty(name string, value interface{}) error {
	_, err := c.Send("set_property", name, value)
	return err
}

// GetFloat retrieves a float64 engine property.
func (c *Client) GetFloat(name string) (float64, error) {
	data, err := c.GetProperty(name)
	if err != nil {
		return 0, err
	}
	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}
	return val, nil
}

// GetBool retrieves a boolean engine property.
func (c *Client) GetBool(name string) (bool, error) {
	data, err := c.GetProperty(name)
	if err != nil {
		return false, err
	}
	val, ok := data.(bool)
	if !ok {
		return false, fmt.Errorf("property %s: expected bool, got %T", name, data)
	}
	return val, nil
}

// intOr reads a positive integer configuration value with a fallback.
func intOr(k string, fallback int) int {
	if v := viper.GetInt(k); v > 0 {
		return v
	}
	return fallback
}

// msOr reads a millisecond configuration value with a fallback.
func msOr(k string, fallback time.Duration) time.Duration {
	if v := viper.GetInt(k); v > 0 {
		return time.Duration(v) * time.Millisecond
	}
	return fallback
}
