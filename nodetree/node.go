/*Package nodetree mirrors the hierarchical node namespace of an instrument
server as local Go objects.

An instrument exposes thousands of addressable settings and readings as
slash-delimited paths ("/dev1234/demods/0/rate").  This package walks that
namespace lazily and hands out two kinds of object: a Group for interior
positions (including the indexed arrays the hardware repeats, like
demodulators), and a Parameter for terminal values.  A Parameter forwards
reads and writes to the remote node, nothing more; there is no caching,
batching, or retry at this layer.

Construction is constant time.  The namespace listing is fetched on first
access and memoized, so connecting to a device does not pay for enumerating
its full tree.  Repeated lookups of the same path return the identical
object.
*/
package nodetree

import "errors"

var (
	// ErrNotFound is generated when a path does not exist on the
	// connected device
	ErrNotFound = errors.New("node path not present on device")

	// ErrNotAGroup is generated when a terminal node is accessed as a group
	ErrNotAGroup = errors.New("node is a parameter, not a group")

	// ErrNotAParameter is generated when an interior node is accessed as a
	// parameter
	ErrNotAParameter = errors.New("node is a group, not a parameter")

	// ErrReadOnly is generated when a read-only node is written
	ErrReadOnly = errors.New("node is read-only")

	// ErrWriteOnly is generated when a write-only node is read
	ErrWriteOnly = errors.New("node is write-only")

	// ErrNotIndexed is generated when integer indexing is used on a group
	// whose children are named, not numbered
	ErrNotIndexed = errors.New("group is not an indexed array")
)

// Kind describes the data kind of a node
type Kind int

// Kinds of node data.  Vector and Sample nodes carry structured payloads
// and bypass value validation.
const (
	Double Kind = iota
	Integer
	Enum
	String
	Complex
	Vector
	Sample
)

func (k Kind) String() string {
	switch k {
	case Double:
		return "Double"
	case Integer:
		return "Integer"
	case Enum:
		return "Enum"
	case String:
		return "String"
	case Complex:
		return "Complex"
	case Vector:
		return "Vector"
	case Sample:
		return "Sample"
	}
	return "Unknown"
}

// Access is a bitmask of read/write capability
type Access int

// Access bits
const (
	Read Access = 1 << iota
	Write
)

// Readable returns true if the node can be read
func (a Access) Readable() bool { return a&Read != 0 }

// Writable returns true if the node can be written
func (a Access) Writable() bool { return a&Write != 0 }

// Descriptor is the metadata of one node in the namespace.  Descriptors are
// produced by the server during discovery and never mutated here.
type Descriptor struct {
	// Path is the raw, lower-case, slash-delimited absolute path,
	// e.g. /dev1234/demods/0/rate
	Path string

	// Description is the human-readable text from the server
	Description string

	// Unit is the physical unit, empty if unitless
	Unit string

	Kind   Kind
	Access Access

	// Options maps raw enum values to their labels, nil for non-enum nodes
	Options map[int64]string

	// Min/Max bound numeric nodes when HasRange is true
	Min, Max float64
	HasRange bool

	// Streaming marks high-rate sample nodes, which are poll-only
	Streaming bool
}

// Accessor is the capability this package needs from the instrument
// connection: discovery plus single-node forwarding.  It is satisfied by
// labone.Client and by test fakes.
type Accessor interface {
	// ListNodes returns descriptors for every node matching the pattern,
	// e.g. /dev1234/*
	ListNodes(pattern string) ([]Descriptor, error)

	// Get reads one node
	Get(path string) (interface{}, error)

	// Set writes one node
	Set(path string, value interface{}) error
}
