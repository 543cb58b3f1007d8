package awg_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nasa-jpl/golabone/awg"
	"github.com/nasa-jpl/golabone/labone"
	"github.com/nasa-jpl/golabone/session"
)

func ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)/float64(n-1)*2 - 1
	}
	return out
}

func testELF() []byte {
	return append([]byte{0x7f, 'E', 'L', 'F'}, bytes.Repeat([]byte{0xab}, 60)...)
}

func startHDAWG(t *testing.T) (*labone.Simulator, *session.Device) {
	t.Helper()
	sim := labone.NewSimulator()
	sim.AddDevice("dev8765", "HDAWG8", []labone.SimNode{
		{Path: "awgs/0/enable", Type: "Integer (64 bit)", Properties: "Read, Write", Value: 0},
		{Path: "awgs/0/waveform/waves/0", Type: "ZIVector", Properties: "Read, Write", Value: nil},
		{Path: "awgs/0/waveform/waves/1", Type: "ZIVector", Properties: "Read, Write", Value: nil},
		{Path: "awgs/0/commandtable/data", Type: "String", Properties: "Read, Write", Value: ""},
		{Path: "awgs/0/elf/data", Type: "String", Properties: "Read, Write", Value: ""},
		{Path: "awgs/0/elf/checksum", Type: "Integer (64 bit)", Properties: "Read",
			Value: int64(awg.Checksum(testELF()))},
	})
	host, port, err := sim.Start()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(sim.Close)
	s, err := session.NewRegistry().Connect(host, port)
	if err != nil {
		t.Fatal(err)
	}
	dev, err := s.ConnectDevice("dev8765", "")
	if err != nil {
		t.Fatal(err)
	}
	return sim, dev
}

func TestWaveformValidation(t *testing.T) {
	cases := []struct {
		name string
		w    awg.Waveform
		bad  string
	}{
		{"ok", awg.Waveform{Wave1: ramp(64)}, ""},
		{"too short", awg.Waveform{Wave1: ramp(16)}, "minimum"},
		{"granularity", awg.Waveform{Wave1: ramp(40)}, "multiple"},
		{"length mismatch", awg.Waveform{Wave1: ramp(64), Wave2: ramp(48)}, "differ"},
		{"clipping", awg.Waveform{Wave1: append(ramp(63), 1.5)}, "amplitude"},
		{"marker mismatch", awg.Waveform{Wave1: ramp(64), Markers: make([]uint8, 10)}, "marker"},
	}
	for _, tc := range cases {
		err := tc.w.Validate()
		if tc.bad == "" && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if tc.bad != "" && (err == nil || !strings.Contains(err.Error(), tc.bad)) {
			t.Errorf("%s: expected error mentioning %q, got %v", tc.name, tc.bad, err)
		}
	}
}

func TestInterleaveLayout(t *testing.T) {
	w := awg.Waveform{
		Wave1:   ramp(32),
		Wave2:   ramp(32),
		Markers: make([]uint8, 32),
	}
	w.Markers[0] = 3
	data, err := w.Interleave()
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 32*3 {
		t.Fatalf("expected 96 interleaved samples, got %d", len(data))
	}
	if data[0] != -32767 || data[1] != -32767 {
		t.Errorf("full-scale conversion wrong: %d %d", data[0], data[1])
	}
	if data[2] != 3 {
		t.Errorf("marker channel wrong: %d", data[2])
	}
}

func TestCommandTableValidation(t *testing.T) {
	good := awg.CommandTable(`{
		"header": {"version": "1.2"},
		"table": [{"index": 0, "waveform": {"index": 0}}]
	}`)
	if err := good.Validate(); err != nil {
		t.Fatal(err)
	}
	cases := map[string]awg.CommandTable{
		"not json":      awg.CommandTable(`{`),
		"no version":    awg.CommandTable(`{"header": {}, "table": [{"index": 0}]}`),
		"empty table":   awg.CommandTable(`{"header": {"version": "1.2"}, "table": []}`),
		"missing index": awg.CommandTable(`{"header": {"version": "1.2"}, "table": [{}]}`),
	}
	for name, ct := range cases {
		if err := ct.Validate(); err == nil {
			t.Errorf("%s: expected a validation error", name)
		}
	}
}

func TestUploadWaveformWrites(t *testing.T) {
	sim, dev := startHDAWG(t)
	a := awg.New(dev, 0)
	if err := a.UploadWaveform(0, awg.Waveform{Wave1: ramp(32)}); err != nil {
		t.Fatal(err)
	}
	if v, ok := sim.Value("/dev8765/awgs/0/waveform/waves/0"); !ok || v == nil {
		t.Error("waveform did not land on the instrument")
	}
	err := a.UploadWaveform(0, awg.Waveform{Wave1: ramp(7)})
	if err == nil {
		t.Error("invalid waveform must be rejected before upload")
	}
}

func TestUploadWaveformsIsAllOrNothing(t *testing.T) {
	sim, dev := startHDAWG(t)
	a := awg.New(dev, 0)
	ws := awg.Waveforms{
		0: {Wave1: ramp(32)},
		1: {Wave1: ramp(7)}, // invalid
	}
	if err := a.UploadWaveforms(ws); err == nil {
		t.Fatal("expected the bad slot to fail the set")
	}
	if got := sim.Ops("set"); got != 0 {
		t.Errorf("a failed set must not touch the instrument, saw %d writes", got)
	}
	ws[1] = awg.Waveform{Wave1: ramp(48)}
	if err := a.UploadWaveforms(ws); err != nil {
		t.Fatal(err)
	}
	for _, slot := range []string{"0", "1"} {
		if v, ok := sim.Value("/dev8765/awgs/0/waveform/waves/" + slot); !ok || v == nil {
			t.Errorf("slot %s did not land", slot)
		}
	}
}

func TestUploadELFVerifiesChecksum(t *testing.T) {
	_, dev := startHDAWG(t)
	a := awg.New(dev, 0)
	if err := a.UploadELF(testELF()); err != nil {
		t.Fatal(err)
	}
	if err := a.UploadELF([]byte("not an elf")); err == nil {
		t.Error("expected the magic check to reject a non-ELF payload")
	}
	// a different image makes the instrument's checksum stale
	other := append(testELF(), 0x01)
	err := a.UploadELF(other)
	if err == nil || !strings.Contains(err.Error(), "checksum") {
		t.Errorf("expected a checksum mismatch, got %v", err)
	}
}

func TestEnableDisable(t *testing.T) {
	sim, dev := startHDAWG(t)
	a := awg.New(dev, 0)
	if err := a.Enable(); err != nil {
		t.Fatal(err)
	}
	if v, _ := sim.Value("/dev8765/awgs/0/enable"); v.(float64) != 1 {
		t.Errorf("enable did not land: %v", v)
	}
	if err := a.Disable(); err != nil {
		t.Fatal(err)
	}
}
