/*Package labone provides the client handle to a LabOne data server.

Zurich Instruments hardware is server-mediated: a data server owns the
instruments and clients talk to the server, never to the hardware.  This
package is the boundary to that collaborator.  It dials the server's JSON
gateway, performs node discovery, and forwards single and batched node
reads/writes.  Nothing here retries, caches, or interprets values; failures
from the server propagate to the caller unchanged.

The node-tree logic lives in package nodetree; labone.Client satisfies its
Accessor interface.
*/
package labone

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/nasa-jpl/golabone/comm"
	"github.com/nasa-jpl/golabone/nodetree"
)

// APIVersion is the data server release this client is built against.
// Dial refuses to talk to a server reporting a different release unless
// the AllowVersionMismatch option is given.
const APIVersion = "23.06"

const defaultTimeout = 5 * time.Second

// Option customizes Dial
type Option func(*dialConfig)

type dialConfig struct {
	timeout       time.Duration
	maker         comm.CreationFunc
	allowMismatch bool
}

// WithTimeout sets the per-operation network timeout
func WithTimeout(d time.Duration) Option {
	return func(c *dialConfig) { c.timeout = d }
}

// WithMaker substitutes the connection maker, e.g. a serial or USBTMC
// transport from packages comm and usbtmc, or an in-process pipe in tests
func WithMaker(m comm.CreationFunc) Option {
	return func(c *dialConfig) { c.maker = m }
}

// AllowVersionMismatch skips the release check at dial time
func AllowVersionMismatch() Option {
	return func(c *dialConfig) { c.allowMismatch = true }
}

// Client is a single connection ("session" in the server's vocabulary) to a
// data server.  It is the only object in this repository that generates
// wire traffic.
type Client struct {
	pool *comm.Pool
	host string
	port int

	timeout time.Duration
}

// Dial connects to the data server at host:port and verifies the release
func Dial(host string, port int, opts ...Option) (*Client, error) {
	cfg := dialConfig{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	maker := cfg.maker
	if maker == nil {
		addr := fmt.Sprintf("%s:%d", host, port)
		maker = comm.BackoffMaker(comm.TCPMaker(addr, cfg.timeout))
	}
	c := &Client{
		pool:    comm.NewPool(1, time.Minute, maker),
		host:    host,
		port:    port,
		timeout: cfg.timeout,
	}
	version, err := c.Version()
	if err != nil {
		return nil, err
	}
	if !cfg.allowMismatch && version != APIVersion {
		return nil, fmt.Errorf("data server is release %s, client is built against %s", version, APIVersion)
	}
	return c, nil
}

// Host returns the server host the client dialed
func (c *Client) Host() string { return c.host }

// Port returns the server port the client dialed
func (c *Client) Port() int { return c.port }

// roundTrip sends one request line and decodes one response line
func (c *Client) roundTrip(req request) (response, error) {
	var resp response
	conn, err := c.pool.Get()
	if err != nil {
		return resp, err
	}
	defer func() { c.pool.ReturnWithError(conn, err) }()
	var rw io.ReadWriter = conn
	if to, terr := comm.NewTimeout(conn, c.timeout); terr == nil {
		rw = to
	}
	buf, err := json.Marshal(req)
	if err != nil {
		return resp, err
	}
	if _, err = rw.Write(append(buf, '\n')); err != nil {
		return resp, err
	}
	line, err := bufio.NewReader(rw).ReadBytes('\n')
	if err != nil {
		return resp, err
	}
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	if err = dec.Decode(&resp); err != nil {
		return resp, err
	}
	if !resp.OK {
		err = fmt.Errorf("%s %s: %s", req.Op, req.Path, resp.Err)
		return resp, err
	}
	return resp, nil
}

// Version asks the server which release it is running
func (c *Client) Version() (string, error) {
	resp, err := c.roundTrip(request{Op: "version"})
	if err != nil {
		return "", err
	}
	return resp.Version, nil
}

// ListNodes returns descriptors for every node matching pattern,
// e.g. /dev1234/*
func (c *Client) ListNodes(pattern string) ([]nodetree.Descriptor, error) {
	resp, err := c.roundTrip(request{Op: "listNodes", Pattern: pattern})
	if err != nil {
		return nil, err
	}
	out := make([]nodetree.Descriptor, len(resp.Nodes))
	for i, n := range resp.Nodes {
		out[i] = n.descriptor()
	}
	return out, nil
}

// Get reads one node
func (c *Client) Get(path string) (interface{}, error) {
	resp, err := c.roundTrip(request{Op: "get", Path: path})
	if err != nil {
		return nil, err
	}
	return normalize(resp.Value), nil
}

// Set writes one node
func (c *Client) Set(path string, value interface{}) error {
	_, err := c.roundTrip(request{Op: "set", Path: path, Value: value})
	return err
}

// SetBatch writes several nodes in one exchange.  The server applies the
// batch as a unit; this is the flush half of the transaction scope exposed
// by package session.
func (c *Client) SetBatch(kvs []KV) error {
	if len(kvs) == 0 {
		return nil
	}
	_, err := c.roundTrip(request{Op: "setBatch", Values: kvs})
	return err
}

// ConnectDevice asks the server to connect the named serial over the given
// interface ("" lets the server pick) and returns the device type
func (c *Client) ConnectDevice(serial, iface string) (string, error) {
	resp, err := c.roundTrip(request{Op: "connectDevice", Serial: serial, Iface: iface})
	if err != nil {
		return "", err
	}
	return resp.DevType, nil
}

// DisconnectDevice releases the named serial
func (c *Client) DisconnectDevice(serial string) error {
	_, err := c.roundTrip(request{Op: "disconnectDevice", Serial: serial})
	return err
}

// ConnectedDevices lists the serials currently connected through this
// server
func (c *Client) ConnectedDevices() ([]string, error) {
	resp, err := c.roundTrip(request{Op: "connectedDevices"})
	if err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// VisibleDevices lists every serial the server can see, connected or not
func (c *Client) VisibleDevices() ([]string, error) {
	resp, err := c.roundTrip(request{Op: "visibleDevices"})
	if err != nil {
		return nil, err
	}
	return resp.Devices, nil
}

// Subscribe registers a streaming node for collection by Poll
func (c *Client) Subscribe(path string) error {
	_, err := c.roundTrip(request{Op: "subscribe", Path: path})
	return err
}

// Unsubscribe removes a streaming subscription
func (c *Client) Unsubscribe(path string) error {
	_, err := c.roundTrip(request{Op: "unsubscribe", Path: path})
	return err
}

// Poll collects everything the subscribed nodes produced since the last
// poll, blocking up to the recording time
func (c *Client) Poll(recording time.Duration) (map[string][]interface{}, error) {
	resp, err := c.roundTrip(request{Op: "poll", Millis: int(recording / time.Millisecond)})
	if err != nil {
		return nil, err
	}
	for k := range resp.Values {
		for i, v := range resp.Values[k] {
			resp.Values[k][i] = normalize(v)
		}
	}
	return resp.Values, nil
}

// Sync flushes every pending set and clears the poll buffers of all
// devices connected through this server
func (c *Client) Sync() error {
	_, err := c.roundTrip(request{Op: "sync"})
	return err
}
