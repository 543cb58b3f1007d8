package labone_test

import (
	"strings"
	"testing"
	"time"

	"github.com/nasa-jpl/golabone/labone"
	"github.com/nasa-jpl/golabone/nodetree"
)

func startSim(t *testing.T) (*labone.Simulator, *labone.Client) {
	t.Helper()
	sim := labone.NewSimulator()
	sim.AddDevice("dev1234", "MFLI", labone.LockinNodes())
	host, port, err := sim.Start()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(sim.Close)
	c, err := labone.Dial(host, port, labone.WithTimeout(2*time.Second))
	if err != nil {
		t.Fatal(err)
	}
	return sim, c
}

func TestDialChecksRelease(t *testing.T) {
	sim := labone.NewSimulator()
	sim.SetVersion("21.08")
	host, port, err := sim.Start()
	if err != nil {
		t.Fatal(err)
	}
	defer sim.Close()
	if _, err := labone.Dial(host, port); err == nil {
		t.Fatal("expected dial to refuse a mismatched release")
	}
	if _, err := labone.Dial(host, port, labone.AllowVersionMismatch()); err != nil {
		t.Fatalf("mismatch override failed: %v", err)
	}
}

func TestConnectDeviceReportsType(t *testing.T) {
	_, c := startSim(t)
	devtype, err := c.ConnectDevice("DEV1234", "")
	if err != nil {
		t.Fatal(err)
	}
	if devtype != "MFLI" {
		t.Errorf("expected MFLI, got %q", devtype)
	}
	if _, err := c.ConnectDevice("dev9999", ""); err == nil {
		t.Error("expected an error for an unknown serial")
	}
}

func TestListNodesConvertsListing(t *testing.T) {
	_, c := startSim(t)
	descs, err := c.ListNodes("/dev1234/*")
	if err != nil {
		t.Fatal(err)
	}
	byPath := make(map[string]nodetree.Descriptor, len(descs))
	for _, d := range descs {
		byPath[d.Path] = d
	}
	rate, ok := byPath["/dev1234/demods/0/rate"]
	if !ok {
		t.Fatal("rate node missing from listing")
	}
	if rate.Kind != nodetree.Double || !rate.HasRange || rate.Max != 857e3 {
		t.Errorf("rate descriptor wrong: %+v", rate)
	}
	on := byPath["/dev1234/sigouts/0/on"]
	if on.Kind != nodetree.Enum || on.Options[1] != "on" {
		t.Errorf("enum descriptor wrong: %+v", on)
	}
	fw := byPath["/dev1234/system/fwrevision"]
	if fw.Kind != nodetree.Integer || fw.Access.Writable() {
		t.Errorf("fwrevision descriptor wrong: %+v", fw)
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	sim, c := startSim(t)
	if err := c.Set("/dev1234/demods/0/rate", 13.4e3); err != nil {
		t.Fatal(err)
	}
	v, err := c.Get("/dev1234/demods/0/rate")
	if err != nil {
		t.Fatal(err)
	}
	if f, ok := v.(float64); !ok || f != 13.4e3 {
		t.Errorf("expected 13400.0 back, got %#v", v)
	}
	if got, _ := sim.Value("/dev1234/demods/0/rate"); got == nil {
		t.Error("simulator did not record the write")
	}
	// integer nodes come back as int64, not float64
	v, err = c.Get("/dev1234/system/fwrevision")
	if err != nil {
		t.Fatal(err)
	}
	if i, ok := v.(int64); !ok || i != 65939 {
		t.Errorf("expected int64 65939, got %#v", v)
	}
}

func TestSetBatchAppliesAll(t *testing.T) {
	sim, c := startSim(t)
	err := c.SetBatch([]labone.KV{
		{Path: "/dev1234/demods/0/rate", Value: 100.0},
		{Path: "/dev1234/demods/1/rate", Value: 200.0},
		{Path: "/dev1234/sigouts/0/on", Value: 1},
	})
	if err != nil {
		t.Fatal(err)
	}
	for path, want := range map[string]float64{
		"/dev1234/demods/0/rate": 100.0,
		"/dev1234/demods/1/rate": 200.0,
	} {
		got, ok := sim.Value(path)
		if !ok || got.(float64) != want {
			t.Errorf("%s = %v, want %g", path, got, want)
		}
	}
}

func TestSetSurfacesServerErrors(t *testing.T) {
	_, c := startSim(t)
	err := c.Set("/dev1234/system/fwrevision", 1)
	if err == nil || !strings.Contains(err.Error(), "read-only") {
		t.Errorf("expected the server's rejection verbatim, got %v", err)
	}
}

func TestSubscribePollUnsubscribe(t *testing.T) {
	_, c := startSim(t)
	if err := c.Subscribe("/dev1234/demods/0/sample"); err != nil {
		t.Fatal(err)
	}
	data, err := c.Poll(10 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	samples, ok := data["/dev1234/demods/0/sample"]
	if !ok || len(samples) == 0 {
		t.Fatalf("poll returned no samples: %v", data)
	}
	if err := c.Unsubscribe("/dev1234/demods/0/sample"); err != nil {
		t.Fatal(err)
	}
	data, err = c.Poll(10 * time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty poll after unsubscribe, got %v", data)
	}
}

func TestVisibleVersusConnected(t *testing.T) {
	_, c := startSim(t)
	visible, err := c.VisibleDevices()
	if err != nil {
		t.Fatal(err)
	}
	if len(visible) != 1 || visible[0] != "dev1234" {
		t.Errorf("expected [dev1234], got %v", visible)
	}
	connected, err := c.ConnectedDevices()
	if err != nil {
		t.Fatal(err)
	}
	if len(connected) != 0 {
		t.Errorf("expected no connected devices yet, got %v", connected)
	}
	if _, err := c.ConnectDevice("dev1234", "1GbE"); err != nil {
		t.Fatal(err)
	}
	connected, err = c.ConnectedDevices()
	if err != nil {
		t.Fatal(err)
	}
	if len(connected) != 1 {
		t.Errorf("expected one connected device, got %v", connected)
	}
}
