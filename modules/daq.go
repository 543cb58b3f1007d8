package modules

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/nasa-jpl/golabone/session"
)

// DAQ records streaming nodes by polling the server at a steady cadence.
// The poll loop is rate limited so a fast server cannot spin the client.
type DAQ struct {
	sess *session.Session
}

func newDAQ(s *session.Session) *DAQ {
	return &DAQ{sess: s}
}

// Subscribe registers streaming paths for recording
func (d *DAQ) Subscribe(paths ...string) error {
	for _, p := range paths {
		if err := d.sess.Client().Subscribe(p); err != nil {
			return err
		}
	}
	return nil
}

// Unsubscribe removes streaming paths
func (d *DAQ) Unsubscribe(paths ...string) error {
	for _, p := range paths {
		if err := d.sess.Client().Unsubscribe(p); err != nil {
			return err
		}
	}
	return nil
}

// Record polls the subscribed paths for the given duration, one poll per
// interval, and returns the merged samples keyed by path.  Cancelling the
// context returns what was collected so far along with ctx.Err().
func (d *DAQ) Record(ctx context.Context, duration, interval time.Duration) (map[string][]interface{}, error) {
	lim := rate.NewLimiter(rate.Every(interval), 1)
	out := make(map[string][]interface{})
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if err := lim.Wait(ctx); err != nil {
			return out, err
		}
		chunk, err := d.sess.Client().Poll(interval)
		if err != nil {
			return out, err
		}
		for path, samples := range chunk {
			out[path] = append(out[path], samples...)
		}
	}
	return out, nil
}
