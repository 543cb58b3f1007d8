package modules

import (
	"context"
	"time"

	"github.com/nasa-jpl/golabone/nodetree"
	"github.com/nasa-jpl/golabone/session"
)

// Sweeper steps a device node over a grid and records the response.  The
// sweep is configured through the module's own node tree (gridnode, start,
// stop, samplecount, ...) before Execute.
type Sweeper struct {
	sess *session.Session
	tree *nodetree.Tree
}

func newSweeper(s *session.Session) *Sweeper {
	return &Sweeper{sess: s, tree: nodetree.New(s.Client(), "sweeper")}
}

// Root returns the module's configuration tree
func (sw *Sweeper) Root() *nodetree.Group { return sw.tree.Root() }

// Set writes one configuration node by path relative to the module root
func (sw *Sweeper) Set(rel string, v interface{}) error {
	n, err := sw.tree.Root().Resolve(rel)
	if err != nil {
		return err
	}
	if n.Param == nil {
		return nodetree.ErrNotAParameter
	}
	return n.Param.Set(v)
}

// Subscribe registers a signal path whose response the sweep records
func (sw *Sweeper) Subscribe(path string) error {
	return sw.sess.Client().Subscribe(path)
}

// Execute starts the sweep
func (sw *Sweeper) Execute() error {
	return sw.Set("execute", int64(1))
}

// Finished reports whether the sweep has run to completion
func (sw *Sweeper) Finished() (bool, error) {
	n, err := sw.tree.Root().Resolve("finished")
	if err != nil {
		return false, err
	}
	v, err := n.Param.GetInt()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// Progress reports sweep completion in [0, 1]
func (sw *Sweeper) Progress() (float64, error) {
	n, err := sw.tree.Root().Resolve("progress")
	if err != nil {
		return 0, err
	}
	return n.Param.GetFloat()
}

// Wait blocks until the sweep finishes, checking at the given interval
func (sw *Sweeper) Wait(ctx context.Context, interval time.Duration) error {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		done, err := sw.Finished()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
}

// Read collects everything the subscribed signals produced
func (sw *Sweeper) Read() (map[string][]interface{}, error) {
	return sw.sess.Client().Poll(0)
}
