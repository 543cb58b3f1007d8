package session

import (
	"fmt"

	"github.com/nasa-jpl/golabone/labone"
	"github.com/nasa-jpl/golabone/nodetree"
)

// Device is the handle to one instrument connected through a session.  Its
// node tree is mirrored lazily and shared by every caller holding the
// handle.
type Device struct {
	sess    *Session
	serial  string
	devtype string
	tree    *nodetree.Tree
}

func newDevice(s *Session, serial, devtype string) *Device {
	return &Device{
		sess:    s,
		serial:  serial,
		devtype: devtype,
		tree:    nodetree.New(s.client, serial),
	}
}

// Serial returns the lowercase serial, e.g. dev1234
func (d *Device) Serial() string { return d.serial }

// DevType returns the device type the server reported, e.g. MFLI
func (d *Device) DevType() string { return d.devtype }

// Session returns the session the device is connected through
func (d *Device) Session() *Session { return d.sess }

// Tree returns the mirrored node tree of the device
func (d *Device) Tree() *nodetree.Tree { return d.tree }

// Root returns the top group of the device's node tree
func (d *Device) Root() *nodetree.Group { return d.tree.Root() }

// Identity is the standard identification record of an instrument
type Identity struct {
	Vendor   string `json:"vendor"`
	Model    string `json:"model"`
	Serial   string `json:"serial"`
	Firmware int64  `json:"firmware"`
}

// Identity reads the identification record off the device
func (d *Device) Identity() (Identity, error) {
	id := Identity{Vendor: "Zurich Instruments", Model: d.devtype, Serial: d.serial}
	n, err := d.tree.Root().Resolve("system/fwrevision")
	if err != nil {
		return id, err
	}
	if n.Param == nil {
		return id, nodetree.ErrNotAParameter
	}
	id.Firmware, err = n.Param.GetInt()
	return id, err
}

// Transaction accumulates writes for a batched flush.  Values are validated
// at queue time; nothing reaches the wire until the surrounding Transact
// returns.
type Transaction struct {
	dev *Device
	kvs []labone.KV
}

// Set queues one write.  rel is a path relative to the device root,
// sanitized or raw segments.  Capability and validator rejections happen
// here, so a bad value fails the enclosing function before the flush.
func (tx *Transaction) Set(rel string, v interface{}) error {
	n, err := tx.dev.tree.Root().Resolve(rel)
	if err != nil {
		return err
	}
	if n.Param == nil {
		return fmt.Errorf("%s: %w", rel, nodetree.ErrNotAParameter)
	}
	if err := n.Param.Check(v); err != nil {
		return err
	}
	tx.kvs = append(tx.kvs, labone.KV{Path: n.Param.Path(), Value: v})
	return nil
}

// Len returns the number of queued writes
func (tx *Transaction) Len() int { return len(tx.kvs) }

// Transact runs fn with a fresh transaction and flushes the queued writes
// as one batch when fn returns.  The flush happens on every exit, error
// included, matching the instrument's own batching semantics: writes queued
// before the failure are still applied.  fn's error takes precedence over a
// flush error.
func (d *Device) Transact(fn func(*Transaction) error) error {
	tx := &Transaction{dev: d}
	fnErr := fn(tx)
	if err := d.sess.client.SetBatch(tx.kvs); err != nil && fnErr == nil {
		return err
	}
	return fnErr
}
