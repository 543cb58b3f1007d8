/*Package session manages shared connections to LabOne data servers.

A data server multiplexes many clients and many instruments, and most
programs want exactly one connection per server, shared by every device
handle they create.  The Registry here provides that sharing: Connect
returns the existing Session for a host:port if one is live, or dials a new
one.  Callers that genuinely need a private connection opt out with
Isolated.

Device handles hang off a Session and memoize per serial, so asking twice
for dev1234 yields the identical *Device with the identical node tree.
*/
package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nasa-jpl/golabone/labone"
)

// Option customizes Connect
type Option func(*config)

type config struct {
	isolated bool
	dial     []labone.Option
}

// Isolated requests a private connection: the registry is neither consulted
// nor updated, so the returned Session is not shared with anyone
func Isolated() Option {
	return func(c *config) { c.isolated = true }
}

// WithDialOptions forwards options to the underlying labone.Dial
func WithDialOptions(opts ...labone.Option) Option {
	return func(c *config) { c.dial = append(c.dial, opts...) }
}

// Registry maps host:port to live sessions
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// DefaultRegistry is the registry the package-level Connect uses
var DefaultRegistry = NewRegistry()

// Connect is shorthand for DefaultRegistry.Connect
func Connect(host string, port int, opts ...Option) (*Session, error) {
	return DefaultRegistry.Connect(host, port, opts...)
}

// Connect returns the session for host:port, dialing one if none is live.
// With Isolated a fresh unshared session is dialed regardless.
func (r *Registry) Connect(host string, port int, opts ...Option) (*Session, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	key := fmt.Sprintf("%s:%d", host, port)
	if cfg.isolated {
		return dial(host, port, cfg.dial)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[key]; ok {
		return s, nil
	}
	s, err := dial(host, port, cfg.dial)
	if err != nil {
		return nil, err
	}
	r.sessions[key] = s
	return s, nil
}

// Forget drops the registry entry for host:port.  An existing session is
// unaffected; the next Connect dials anew.
func (r *Registry) Forget(host string, port int) {
	r.mu.Lock()
	delete(r.sessions, fmt.Sprintf("%s:%d", host, port))
	r.mu.Unlock()
}

func dial(host string, port int, opts []labone.Option) (*Session, error) {
	c, err := labone.Dial(host, port, opts...)
	if err != nil {
		return nil, err
	}
	return &Session{client: c, devices: make(map[string]*Device)}, nil
}

// Session is one connection to a data server, shared by the device handles
// created through it
type Session struct {
	client *labone.Client

	mu      sync.Mutex
	devices map[string]*Device
}

// Client exposes the underlying server connection, for module and raw use
func (s *Session) Client() *labone.Client { return s.client }

// Addr returns the host:port of the server this session talks to
func (s *Session) Addr() string {
	return fmt.Sprintf("%s:%d", s.client.Host(), s.client.Port())
}

// ConnectDevice connects the named serial through the server and returns
// its handle.  The handle is memoized: a second call with the same serial
// returns the identical *Device without server traffic.  iface names the
// physical interface ("1GbE", "USB", "PCIe"); empty lets the server pick.
func (s *Session) ConnectDevice(serial, iface string) (*Device, error) {
	serial = strings.ToLower(serial)
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.devices[serial]; ok {
		return d, nil
	}
	devtype, err := s.client.ConnectDevice(serial, iface)
	if err != nil {
		return nil, err
	}
	d := newDevice(s, serial, devtype)
	s.devices[serial] = d
	return d, nil
}

// DisconnectDevice releases the serial on the server and drops the memoized
// handle
func (s *Session) DisconnectDevice(serial string) error {
	serial = strings.ToLower(serial)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.client.DisconnectDevice(serial); err != nil {
		return err
	}
	delete(s.devices, serial)
	return nil
}

// Devices returns the handles connected through this session
func (s *Session) Devices() []*Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d)
	}
	return out
}

// VisibleDevices lists every serial the server can see
func (s *Session) VisibleDevices() ([]string, error) {
	return s.client.VisibleDevices()
}

// Sync flushes pending writes and clears poll buffers server-wide
func (s *Session) Sync() error {
	return s.client.Sync()
}
