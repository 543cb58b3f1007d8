package session_test

import (
	"errors"
	"testing"

	"github.com/nasa-jpl/golabone/labone"
	"github.com/nasa-jpl/golabone/nodetree"
	"github.com/nasa-jpl/golabone/session"
)

func startSim(t *testing.T) (*labone.Simulator, string, int) {
	t.Helper()
	sim := labone.NewSimulator()
	sim.AddDevice("dev1234", "MFLI", labone.LockinNodes())
	host, port, err := sim.Start()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(sim.Close)
	return sim, host, port
}

func TestRegistrySharesSessions(t *testing.T) {
	_, host, port := startSim(t)
	reg := session.NewRegistry()
	a, err := reg.Connect(host, port)
	if err != nil {
		t.Fatal(err)
	}
	b, err := reg.Connect(host, port)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("two connects to the same host:port should share one session")
	}
	c, err := reg.Connect(host, port, session.Isolated())
	if err != nil {
		t.Fatal(err)
	}
	if c == a {
		t.Error("Isolated must bypass the registry")
	}
	d, err := reg.Connect(host, port)
	if err != nil {
		t.Fatal(err)
	}
	if d != a {
		t.Error("an isolated connect must not displace the registered session")
	}
}

func TestDeviceHandlesMemoize(t *testing.T) {
	sim, host, port := startSim(t)
	s, err := session.NewRegistry().Connect(host, port)
	if err != nil {
		t.Fatal(err)
	}
	a, err := s.ConnectDevice("DEV1234", "")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.ConnectDevice("dev1234", "")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("same serial should yield the identical handle")
	}
	if got := sim.Ops("connectDevice"); got != 1 {
		t.Errorf("expected one connectDevice on the wire, saw %d", got)
	}
	if a.DevType() != "MFLI" || a.Serial() != "dev1234" {
		t.Errorf("handle misidentified: %s %s", a.DevType(), a.Serial())
	}
}

func TestDeviceTreeWalks(t *testing.T) {
	_, host, port := startSim(t)
	s, err := session.NewRegistry().Connect(host, port)
	if err != nil {
		t.Fatal(err)
	}
	dev, err := s.ConnectDevice("dev1234", "")
	if err != nil {
		t.Fatal(err)
	}
	demods, err := dev.Root().Subgroup("demods")
	if err != nil {
		t.Fatal(err)
	}
	n, err := demods.Index(0)
	if err != nil {
		t.Fatal(err)
	}
	rate, err := n.Group.Parameter("rate")
	if err != nil {
		t.Fatal(err)
	}
	v, err := rate.GetFloat()
	if err != nil {
		t.Fatal(err)
	}
	if v != 1674.0 {
		t.Errorf("expected seeded rate 1674.0, got %g", v)
	}
	id, err := dev.Identity()
	if err != nil {
		t.Fatal(err)
	}
	if id.Model != "MFLI" || id.Firmware != 65939 {
		t.Errorf("identity wrong: %+v", id)
	}
}

func TestTransactFlushesOneBatch(t *testing.T) {
	sim, host, port := startSim(t)
	s, err := session.NewRegistry().Connect(host, port)
	if err != nil {
		t.Fatal(err)
	}
	dev, err := s.ConnectDevice("dev1234", "")
	if err != nil {
		t.Fatal(err)
	}
	err = dev.Transact(func(tx *session.Transaction) error {
		if err := tx.Set("demods/0/rate", 100.0); err != nil {
			return err
		}
		if err := tx.Set("demods/1/rate", 200.0); err != nil {
			return err
		}
		return tx.Set("sigouts/0/on", int64(1))
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := sim.Ops("set"); got != 0 {
		t.Errorf("expected no single sets, saw %d", got)
	}
	if got := sim.Ops("setBatch"); got != 1 {
		t.Errorf("expected exactly one batch, saw %d", got)
	}
	if v, _ := sim.Value("/dev1234/demods/1/rate"); v.(float64) != 200.0 {
		t.Errorf("batched write did not land: %v", v)
	}
}

func TestTransactValidatesAtQueueTime(t *testing.T) {
	sim, host, port := startSim(t)
	s, err := session.NewRegistry().Connect(host, port)
	if err != nil {
		t.Fatal(err)
	}
	dev, err := s.ConnectDevice("dev1234", "")
	if err != nil {
		t.Fatal(err)
	}
	err = dev.Transact(func(tx *session.Transaction) error {
		if err := tx.Set("demods/0/rate", 100.0); err != nil {
			return err
		}
		return tx.Set("demods/1/rate", 1e9) // above ceiling
	})
	if !errors.Is(err, nodetree.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	// the write queued before the failure still flushes
	if v, _ := sim.Value("/dev1234/demods/0/rate"); v.(float64) != 100.0 {
		t.Errorf("pre-failure write should flush, got %v", v)
	}
	if v, _ := sim.Value("/dev1234/demods/1/rate"); v.(float64) == 1e9 {
		t.Error("rejected value must never reach the wire")
	}
}

func TestDisconnectDropsHandle(t *testing.T) {
	sim, host, port := startSim(t)
	s, err := session.NewRegistry().Connect(host, port)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.ConnectDevice("dev1234", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.DisconnectDevice("dev1234"); err != nil {
		t.Fatal(err)
	}
	if n := len(s.Devices()); n != 0 {
		t.Errorf("expected no handles after disconnect, have %d", n)
	}
	if _, err := s.ConnectDevice("dev1234", ""); err != nil {
		t.Fatal(err)
	}
	if got := sim.Ops("connectDevice"); got != 2 {
		t.Errorf("reconnect should hit the wire again, saw %d connects", got)
	}
}
