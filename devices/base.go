package devices

import (
	"fmt"

	"github.com/nasa-jpl/golabone/labone"
	"github.com/nasa-jpl/golabone/session"
)

// Option customizes a family constructor
type Option func(*config)

type config struct {
	port     int
	iface    string
	registry *session.Registry
	fresh    bool
	dial     []labone.Option
}

// WithPort overrides the family's default data server port
func WithPort(p int) Option {
	return func(c *config) { c.port = p }
}

// WithInterface names the physical interface to connect the device over
// ("1GbE", "USB", "PCIe"); by default the server picks
func WithInterface(iface string) Option {
	return func(c *config) { c.iface = iface }
}

// WithRegistry substitutes the session registry consulted for sharing;
// by default session.DefaultRegistry
func WithRegistry(r *session.Registry) Option {
	return func(c *config) { c.registry = r }
}

// FreshSession dials a private server connection instead of sharing the
// registered one
func FreshSession() Option {
	return func(c *config) { c.fresh = true }
}

// WithDialOptions forwards options to the underlying labone.Dial
func WithDialOptions(opts ...labone.Option) Option {
	return func(c *config) { c.dial = append(c.dial, opts...) }
}

// connect is the shared body of every family constructor
func connect(family Family, serial, host string, opts ...Option) (*session.Device, error) {
	cfg := config{port: family.Port(), registry: session.DefaultRegistry}
	for _, opt := range opts {
		opt(&cfg)
	}
	sopts := []session.Option{session.WithDialOptions(cfg.dial...)}
	if cfg.fresh {
		sopts = append(sopts, session.Isolated())
	}
	s, err := cfg.registry.Connect(host, cfg.port, sopts...)
	if err != nil {
		return nil, err
	}
	dev, err := s.ConnectDevice(serial, cfg.iface)
	if err != nil {
		return nil, err
	}
	if !family.Matches(dev.DevType()) {
		return nil, fmt.Errorf("%s is a %s, not a %s", dev.Serial(), dev.DevType(), family.Name)
	}
	return dev, nil
}
