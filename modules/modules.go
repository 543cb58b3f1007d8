/*Package modules exposes the data server's measurement modules.

The server hosts helpers beyond raw node access: a sweeper that steps a
node over a grid, a data acquisition module that records streaming nodes,
and a scope readout.  Each is configured through its own node namespace,
mirrored the same way a device tree is.

A Handler hands out one lazily created instance of each module per session,
which is what interactive use wants; Create* constructors make additional
unmanaged instances for callers running several sweeps at once.
*/
package modules

import (
	"sync"

	"github.com/nasa-jpl/golabone/session"
)

// Handler hands out the session's shared module instances
type Handler struct {
	sess *session.Session

	mu      sync.Mutex
	sweeper *Sweeper
	daq     *DAQ
	scope   *Scope
}

// NewHandler returns a Handler for the session
func NewHandler(s *session.Session) *Handler {
	return &Handler{sess: s}
}

// Sweeper returns the session's shared sweeper, creating it on first use
func (h *Handler) Sweeper() *Sweeper {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sweeper == nil {
		h.sweeper = h.CreateSweeper()
	}
	return h.sweeper
}

// DAQ returns the session's shared data acquisition module
func (h *Handler) DAQ() *DAQ {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.daq == nil {
		h.daq = h.CreateDAQ()
	}
	return h.daq
}

// Scope returns the session's shared scope module
func (h *Handler) Scope() *Scope {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.scope == nil {
		h.scope = h.CreateScope()
	}
	return h.scope
}

// CreateSweeper returns a fresh sweeper the handler does not track
func (h *Handler) CreateSweeper() *Sweeper {
	return newSweeper(h.sess)
}

// CreateDAQ returns a fresh data acquisition module the handler does not
// track
func (h *Handler) CreateDAQ() *DAQ {
	return newDAQ(h.sess)
}

// CreateScope returns a fresh scope module the handler does not track
func (h *Handler) CreateScope() *Scope {
	return newScope(h.sess)
}
