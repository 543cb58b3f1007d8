package nodetree

import (
	"fmt"
	"strconv"
)

// Parameter is a local proxy for exactly one remote node.  Get issues one
// remote read, Set one remote write; capability and validator checks happen
// locally before any traffic.  Parameters hold no state beyond their
// descriptor; the remote value is never cached.
type Parameter struct {
	t    *Tree
	desc Descriptor
	name string
	val  Validator
}

func newParameter(t *Tree, d Descriptor, name string) *Parameter {
	return &Parameter{t: t, desc: d, name: name, val: validatorFor(d)}
}

// Name returns the sanitized identifier of the parameter
func (p *Parameter) Name() string { return p.name }

// Path returns the raw absolute node path used on the wire
func (p *Parameter) Path() string { return p.desc.Path }

// Describe returns the node metadata
func (p *Parameter) Describe() Descriptor { return p.desc }

// Get reads the remote node.  Write-only nodes return ErrWriteOnly without
// generating traffic.  Remote failures propagate unchanged.
func (p *Parameter) Get() (interface{}, error) {
	if !p.desc.Access.Readable() {
		return nil, fmt.Errorf("%s: %w", p.desc.Path, ErrWriteOnly)
	}
	return p.t.acc.Get(p.desc.Path)
}

// Set writes the remote node.  Read-only nodes return ErrReadOnly and
// validator rejections fail before any remote call is made.  Remote
// failures propagate unchanged.
func (p *Parameter) Set(v interface{}) error {
	if !p.desc.Access.Writable() {
		return fmt.Errorf("%s: %w", p.desc.Path, ErrReadOnly)
	}
	if err := p.val.Validate(v); err != nil {
		return fmt.Errorf("%s: %w", p.desc.Path, err)
	}
	return p.t.acc.Set(p.desc.Path, v)
}

// Check runs the capability and validator checks of Set without issuing the
// remote write.  Batched writers use it to reject bad values at queue time.
func (p *Parameter) Check(v interface{}) error {
	if !p.desc.Access.Writable() {
		return fmt.Errorf("%s: %w", p.desc.Path, ErrReadOnly)
	}
	if err := p.val.Validate(v); err != nil {
		return fmt.Errorf("%s: %w", p.desc.Path, err)
	}
	return nil
}

// GetFloat reads the node and coerces the result to float64
func (p *Parameter) GetFloat() (float64, error) {
	v, err := p.Get()
	if err != nil {
		return 0, err
	}
	return toFloat(v)
}

// GetInt reads the node and coerces the result to int64
func (p *Parameter) GetInt() (int64, error) {
	v, err := p.Get()
	if err != nil {
		return 0, err
	}
	return toInt(v)
}

// GetString reads the node and coerces the result to a string
func (p *Parameter) GetString() (string, error) {
	v, err := p.Get()
	if err != nil {
		return "", err
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	return fmt.Sprint(v), nil
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	}
	return 0, fmt.Errorf("cannot interpret %T as float64", v)
}

func toInt(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	}
	return 0, fmt.Errorf("cannot interpret %T as int64", v)
}
