/*Package usbtmc implements bulk transfers for USB Test and Measurement
Class instruments.

Instruments are normally reached through the data server over TCP, but a
box that is being recovered or flashed may only be visible as a raw USB
device.  This package speaks enough of the USBTMC standard to move
datagrams over the bulk endpoints, and exposes the device as an
io.ReadWriteCloser so the rest of the repo's transport machinery (pools,
terminators, timeouts) applies unchanged.

Multi-packet messaging is not implemented; a datagram must fit the
remote's buffer.
*/
package usbtmc

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/google/gousb"

	"github.com/nasa-jpl/golabone/comm"
)

const (
	reserved = 0x00

	msgDevDepOut       = 0x01 // DEV_DEP_MSG_OUT
	msgRequestDevDepIn = 0x02 // REQUEST_DEV_DEP_MSG_IN

	headerLen = 12
	bufSize   = 1500
	alignment = 4
)

// tagGen is a concurrent-safe bTag generator; tags increment per message
// and stay in [1, 255]
type tagGen struct {
	sync.Mutex
	value byte
}

func (t *tagGen) next() byte {
	t.Lock()
	defer t.Unlock()
	t.value++
	if t.value < 1 {
		t.value = 1
	}
	return t.value
}

// invTag computes the bitwise inversion of a bTag, per the standard's
// table 1 offset 2
func invTag(b byte) byte {
	return b ^ 0xff
}

// encOutHeader creates the DEV_DEP_MSG_OUT header (standard, table 3)
func encOutHeader(tags *tagGen, datalen int) [headerLen]byte {
	var out [headerLen]byte
	tag := tags.next()
	out[0] = msgDevDepOut
	out[1] = tag
	out[2] = invTag(tag)
	out[3] = reserved
	binary.LittleEndian.PutUint32(out[4:8], uint32(datalen))
	out[8] = 0x01 // end of message
	return out
}

// encInHeader creates the REQUEST_DEV_DEP_MSG_IN header (standard,
// table 4).  A nil terminator disables termination-character framing.
func encInHeader(tags *tagGen, bufsize int, terminator *byte) [headerLen]byte {
	var out [headerLen]byte
	tag := tags.next()
	out[0] = msgRequestDevDepIn
	out[1] = tag
	out[2] = invTag(tag)
	out[3] = reserved
	binary.LittleEndian.PutUint32(out[4:8], uint32(bufsize))
	if terminator != nil {
		out[8] = 0x02 // termination character enabled
		out[9] = *terminator
	}
	return out
}

// Device is a USBTMC instrument exposed as a byte stream
type Device struct {
	tags   *tagGen
	in     *gousb.InEndpoint
	out    *gousb.OutEndpoint
	device *gousb.Device
	iface  *gousb.Interface
	closer func()

	// leftover holds datagram bytes not yet consumed by Read
	leftover []byte
}

// Open connects to the instrument with the given vendor and product ID
func Open(vid, pid uint16) (*Device, error) {
	d := &Device{tags: &tagGen{}}
	var err error
	ctx := gousb.NewContext()
	d.device, err = ctx.OpenDeviceWithVIDPID(gousb.ID(vid), gousb.ID(pid))
	if err != nil {
		return nil, err
	}
	if err = d.device.SetAutoDetach(true); err != nil {
		return nil, err
	}
	d.iface, d.closer, err = d.device.DefaultInterface()
	if err != nil {
		return nil, err
	}
	d.in, err = d.iface.InEndpoint(2)
	if err != nil {
		d.closer()
		return nil, err
	}
	d.out, err = d.iface.OutEndpoint(2)
	if err != nil {
		d.closer()
		return nil, err
	}
	return d, nil
}

// Maker returns a connection maker for the instrument, suitable for
// comm.NewPool
func Maker(vid, pid uint16) comm.CreationFunc {
	return func() (io.ReadWriteCloser, error) {
		return Open(vid, pid)
	}
}

// Write sends one datagram, padded to the standard's 4 byte alignment
func (d *Device) Write(p []byte) (int, error) {
	hdr := encOutHeader(d.tags, len(p))
	buf := append(hdr[:], p...)
	if residual := len(buf) % alignment; residual > 0 {
		buf = append(buf, make([]byte, alignment-residual)...)
	}
	if _, err := d.out.Write(buf); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Read fills p from the instrument, requesting a fresh datagram when no
// buffered bytes remain.  Datagrams are newline terminated.
func (d *Device) Read(p []byte) (int, error) {
	if len(d.leftover) == 0 {
		if err := d.fill(); err != nil {
			return 0, err
		}
	}
	n := copy(p, d.leftover)
	d.leftover = d.leftover[n:]
	return n, nil
}

func (d *Device) fill() error {
	term := byte('\n')
	hdr := encInHeader(d.tags, bufSize, &term)
	n, err := d.out.Write(hdr[:])
	if err != nil {
		return err
	}
	if n < headerLen {
		// attempt to push the remainder of a short write
		m, err := d.out.Write(hdr[n:])
		if err != nil {
			return err
		}
		if n+m != headerLen {
			return fmt.Errorf("wrote %d bytes, not the %d required for a read request", n+m, headerLen)
		}
	}
	buf := make([]byte, bufSize)
	n, err = d.in.Read(buf)
	if err != nil {
		return err
	}
	if n < headerLen {
		return fmt.Errorf("received %d bytes, need at least %d to form a header", n, headerLen)
	}
	d.leftover = buf[headerLen:n]
	return nil
}

// Close releases the interface and the device
func (d *Device) Close() error {
	d.closer()
	return d.device.Close()
}
