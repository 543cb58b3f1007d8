package modules

import (
	"fmt"
	"io"

	"github.com/astrogo/fitsio"

	"github.com/nasa-jpl/golabone/nodetree"
	"github.com/nasa-jpl/golabone/session"
)

// Scope reads time-domain shots off the server's scope module
type Scope struct {
	sess *session.Session
	tree *nodetree.Tree
}

func newScope(s *session.Session) *Scope {
	return &Scope{sess: s, tree: nodetree.New(s.Client(), "scope")}
}

// Root returns the module's configuration tree
func (sc *Scope) Root() *nodetree.Group { return sc.tree.Root() }

// Enable arms the scope
func (sc *Scope) Enable() error { return sc.set("enable", int64(1)) }

// Disable disarms the scope
func (sc *Scope) Disable() error { return sc.set("enable", int64(0)) }

func (sc *Scope) set(rel string, v interface{}) error {
	n, err := sc.tree.Root().Resolve(rel)
	if err != nil {
		return err
	}
	if n.Param == nil {
		return nodetree.ErrNotAParameter
	}
	return n.Param.Set(v)
}

// Shot reads one recorded waveform as float64 samples
func (sc *Scope) Shot() ([]float64, error) {
	n, err := sc.tree.Root().Resolve("wave")
	if err != nil {
		return nil, err
	}
	if n.Param == nil {
		return nil, nodetree.ErrNotAParameter
	}
	raw, err := n.Param.Get()
	if err != nil {
		return nil, err
	}
	samples, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("wave node returned %T, not a vector", raw)
	}
	out := make([]float64, len(samples))
	for i, s := range samples {
		switch v := s.(type) {
		case float64:
			out[i] = v
		case int64:
			out[i] = float64(v)
		default:
			return nil, fmt.Errorf("wave sample %d is %T", i, s)
		}
	}
	return out, nil
}

// WriteFITS streams shots to w as a 16-bit FITS image, one row per shot.
// fullscale is the voltage mapped to the positive end of the 16-bit range;
// samples beyond it clip.
func WriteFITS(w io.Writer, metadata []fitsio.Card, fullscale float64, shots [][]float64) error {
	if len(shots) == 0 || len(shots[0]) == 0 {
		return fmt.Errorf("no samples to write")
	}
	metadata = append(metadata, fitsio.Card{Name: "BZERO", Value: 0}, fitsio.Card{Name: "BSCALE", Value: fullscale / 32767})
	fits, err := fitsio.Create(w)
	if err != nil {
		return err
	}
	defer fits.Close()
	dims := []int{len(shots[0])}
	if len(shots) > 1 {
		dims = append(dims, len(shots))
	}
	im := fitsio.NewImage(16, dims)
	defer im.Close()
	if err := im.Header().Append(metadata...); err != nil {
		return err
	}
	ints := make([]int16, 0, len(shots)*len(shots[0]))
	for _, shot := range shots {
		for _, v := range shot {
			f := v / fullscale * 32767
			if f > 32767 {
				f = 32767
			} else if f < -32768 {
				f = -32768
			}
			ints = append(ints, int16(f))
		}
	}
	if err := im.Write(ints); err != nil {
		return err
	}
	return fits.Write(im)
}
