/*Package comm provides connection plumbing for remote lab hardware.

Every transport this package knows about (TCP, RS232, USBTMC via package
usbtmc) reduces to an io.ReadWriteCloser.  Code above this layer composes
three small pieces:

 1. a maker (CreationFunc) that opens a fresh connection
 2. a Pool that recycles open connections between calls
 3. the Terminator and Timeout wrappers, which add message framing and
    deadlines without the transport knowing about either

A typical consumer does:

	pool := comm.NewPool(1, time.Minute, comm.BackoffMaker(comm.TCPMaker(addr, 3*time.Second)))
	conn, err := pool.Get()
	...
	rw := comm.NewTerminator(conn, '\n', '\n')
*/
package comm

import (
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/tarm/serial"
)

var (
	// ErrNotConnected is generated when an operation is attempted on a
	// connection that was never opened or has been closed
	ErrNotConnected = errors.New("conn is nil, not connected to remote")

	// ErrTerminatorNotFound is generated when the termination byte is not
	// found in a response
	ErrTerminatorNotFound = errors.New("termination byte not found")

	// ErrNoDeadlineSupport is generated when a Timeout wrapper is requested
	// around a connection that cannot take deadlines
	ErrNoDeadlineSupport = errors.New("connection does not support deadlines")
)

// CreationFunc is a function which returns a new "connection" to something.
// A closure should be used to encapsulate the variables and functions needed.
type CreationFunc func() (io.ReadWriteCloser, error)

// TCPSetup opens a new TCP connection and sets a timeout on connect, read, and write
func TCPSetup(addr string, timeout time.Duration) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, err
	}
	deadline := time.Now().Add(timeout)
	conn.SetReadDeadline(deadline)
	conn.SetWriteDeadline(deadline)
	return conn, nil
}

// TCPMaker returns a CreationFunc that dials addr over TCP
func TCPMaker(addr string, timeout time.Duration) CreationFunc {
	return func() (io.ReadWriteCloser, error) {
		return TCPSetup(addr, timeout)
	}
}

// SerialMaker returns a CreationFunc that opens an RS232 port
func SerialMaker(cfg *serial.Config) CreationFunc {
	return func() (io.ReadWriteCloser, error) {
		return serial.OpenPort(cfg)
	}
}

// BackoffMaker wraps a CreationFunc with exponential backoff on connection
// refusal.  Data servers that are mid-restart refuse connections for a
// moment; thrashing them with immediate retries makes the window longer.
func BackoffMaker(maker CreationFunc) CreationFunc {
	return func() (io.ReadWriteCloser, error) {
		var conn io.ReadWriteCloser
		wasTimeout := false
		op := func() error {
			var err error
			conn, err = maker()
			if err != nil {
				errS := strings.ToLower(err.Error())
				if strings.Contains(errS, "refused") {
					return err
				}
				wasTimeout = true
				return nil
			}
			return nil
		}
		// backoff ceases on a timeout so we do not wait forever; check
		// wasTimeout afterward to distinguish the two exits
		err := backoff.Retry(op, &backoff.ExponentialBackOff{
			InitialInterval:     25 * time.Millisecond,
			RandomizationFactor: 0.,
			Multiplier:          2.,
			MaxInterval:         1 * time.Second,
			MaxElapsedTime:      3 * time.Second,
			Clock:               backoff.SystemClock})
		if err == nil && !wasTimeout {
			return conn, nil
		}
		if wasTimeout {
			return nil, errors.New("connection timeout")
		}
		return nil, err
	}
}

// Terminator wraps an io.ReadWriter, appending the Tx terminator on writes
// and consuming through the Rx terminator on reads
type Terminator struct {
	rw     io.ReadWriter
	rx, tx byte
}

// NewTerminator returns a Terminator around rw with the given terminators
func NewTerminator(rw io.ReadWriter, rx, tx byte) *Terminator {
	return &Terminator{rw: rw, rx: rx, tx: tx}
}

// Write sends b followed by the Tx terminator
func (t *Terminator) Write(b []byte) (int, error) {
	if t.rw == nil {
		return 0, ErrNotConnected
	}
	n, err := t.rw.Write(append(b, t.tx))
	if n > 0 {
		// do not report the terminator byte to the caller
		n--
	}
	return n, err
}

// Read fills b up to the Rx terminator, which is stripped.  The read is
// byte-at-a-time; the sizes involved in node traffic make buffering moot.
func (t *Terminator) Read(b []byte) (int, error) {
	if t.rw == nil {
		return 0, ErrNotConnected
	}
	one := make([]byte, 1)
	n := 0
	for n < len(b) {
		_, err := t.rw.Read(one)
		if err != nil {
			return n, err
		}
		if one[0] == t.rx {
			return n, nil
		}
		b[n] = one[0]
		n++
	}
	return n, ErrTerminatorNotFound
}

// deadliner is the subset of net.Conn needed to apply timeouts
type deadliner interface {
	SetReadDeadline(time.Time) error
	SetWriteDeadline(time.Time) error
}

// Timeout wraps an io.ReadWriter, refreshing read/write deadlines before
// each operation.  The underlying connection must support deadlines.
type Timeout struct {
	rw      io.ReadWriter
	d       deadliner
	timeout time.Duration
}

// NewTimeout returns a Timeout around rw, or ErrNoDeadlineSupport if the
// connection cannot take deadlines
func NewTimeout(rw io.ReadWriter, timeout time.Duration) (*Timeout, error) {
	if t, ok := rw.(*Terminator); ok {
		d, ok2 := t.rw.(deadliner)
		if !ok2 {
			return nil, ErrNoDeadlineSupport
		}
		return &Timeout{rw: rw, d: d, timeout: timeout}, nil
	}
	d, ok := rw.(deadliner)
	if !ok {
		return nil, ErrNoDeadlineSupport
	}
	return &Timeout{rw: rw, d: d, timeout: timeout}, nil
}

// Read refreshes the deadline and forwards to the wrapped connection
func (t *Timeout) Read(b []byte) (int, error) {
	t.d.SetReadDeadline(time.Now().Add(t.timeout))
	return t.rw.Read(b)
}

// Write refreshes the deadline and forwards to the wrapped connection
func (t *Timeout) Write(b []byte) (int, error) {
	t.d.SetWriteDeadline(time.Now().Add(t.timeout))
	return t.rw.Write(b)
}
