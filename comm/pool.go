package comm

import (
	"io"
	"sync"
	"time"
)

// Pool is a communication pool which holds one or more connections to a
// device that will be closed if they are not in use, and re-opened as
// needed.  It is concurrent safe.  Pools must be created with NewPool.
type Pool struct {
	// chan and timer are always created by NewPool.  When all connections
	// have come home, the timer starts; when it fires, the idle
	// connections are closed.
	maxSize int                     // maximum number of connections, == cap(conns)
	onLease int                     // number of connections given out, <= cap(conns)
	timeout time.Duration           // time after which idle connections are freed
	conns   chan io.ReadWriteCloser // the circular buffer of connections
	timer   *time.Timer             // destroys idle connections after all are returned
	maker   CreationFunc

	reclaiming bool // whether startReclaim's goroutine is running
	mu         *sync.Mutex
}

// NewPool creates a new Pool of up to maxSize connections made by maker,
// closed after timeout of disuse
func NewPool(maxSize int, timeout time.Duration, maker CreationFunc) *Pool {
	p := &Pool{
		maxSize: maxSize,
		timeout: timeout,
		conns:   make(chan io.ReadWriteCloser, maxSize),
		timer:   time.NewTimer(timeout),
		maker:   maker,
		mu:      &sync.Mutex{},
	}
	p.timer.Stop() // nothing to close initially
	return p
}

// Get retrieves a connection from the pool, blocking until one is available
// if all are in use.  The caller has exclusive use of the ReadWriter until
// it is handed back with Put, or discarded with Destroy if it has gone bad
// (e.g., all calls error).
//
// If the error from Get is not nil, the connection must not be returned to
// the pool.
func (p *Pool) Get() (io.ReadWriter, error) {
	// stopping an expired timer can fail, but a fresh connection will be
	// made by the maker anyway, so the failure mode is benign
	p.timer.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	// short circuit: a connection is available, hand it out
	if len(p.conns) > 0 {
		ret := <-p.conns
		p.onLease++
		return ret, nil
	}
	// all given out: wait for one to come back
	if p.onLease == p.maxSize {
		ret := <-p.conns
		p.onLease++
		return ret, nil
	}
	// none available, not at capacity: make one.  Only count the lease if
	// the maker gave out something other than garbage.
	c, err := p.maker()
	if err == nil {
		p.onLease++
	}
	return c, err
}

// Put restores a connection to the pool.  It may be reused, or will be
// automatically freed after all connections are returned and the timeout
// has elapsed.
func (p *Pool) Put(rw io.ReadWriter) {
	rwc := (rw).(io.ReadWriteCloser)
	p.conns <- rwc
	p.onLease--
	if len(p.conns) == p.maxSize {
		p.startReclaim()
	}
}

// ReturnWithError is a convenience for deferred cleanup: Put on nil error,
// Destroy otherwise
func (p *Pool) ReturnWithError(rw io.ReadWriter, err error) {
	if err != nil {
		p.Destroy(rw)
		return
	}
	p.Put(rw)
}

// Destroy immediately frees a connection from the pool.  This should be used
// instead of Put if the connection has gone bad.
func (p *Pool) Destroy(rw io.ReadWriter) {
	rwc := (rw).(io.ReadWriteCloser)
	rwc.Close()
	p.mu.Lock()
	p.onLease--
	p.mu.Unlock()
}

// Size returns the number of connections in the pool, or given out from it
func (p *Pool) Size() int {
	return len(p.conns) + p.onLease
}

// Active returns the number of connections owned by the pool that are
// currently given out
func (p *Pool) Active() int {
	return p.onLease
}

// startReclaim spawns a goroutine which closes all pooled connections after
// the idle timeout elapses
func (p *Pool) startReclaim() {
	defer func() { p.reclaiming = true }()
	if !p.reclaiming {
		p.timer.Reset(p.timeout)
		go func() {
			defer func() { p.reclaiming = false }()
			<-p.timer.C
			for {
				select {
				case closer := <-p.conns:
					closer.Close()
				default:
					return
				}
			}
		}()
	}
}
