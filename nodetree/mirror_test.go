package nodetree_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nasa-jpl/golabone/nodetree"
)

// fakeAccessor serves a canned namespace and counts remote traffic
type fakeAccessor struct {
	descs    []nodetree.Descriptor
	values   map[string]interface{}
	gets     int
	sets     int
	listings int
}

func (f *fakeAccessor) ListNodes(pattern string) ([]nodetree.Descriptor, error) {
	f.listings++
	return f.descs, nil
}

func (f *fakeAccessor) Get(path string) (interface{}, error) {
	f.gets++
	v, ok := f.values[path]
	if !ok {
		return nil, fmt.Errorf("no value for %s", path)
	}
	return v, nil
}

func (f *fakeAccessor) Set(path string, value interface{}) error {
	f.sets++
	f.values[path] = value
	return nil
}

func lockinFixture() *fakeAccessor {
	f := &fakeAccessor{values: map[string]interface{}{}}
	for i := 0; i < 4; i++ {
		f.descs = append(f.descs, nodetree.Descriptor{
			Path:     fmt.Sprintf("/dev1234/demods/%d/rate", i),
			Kind:     nodetree.Double,
			Access:   nodetree.Read | nodetree.Write,
			Unit:     "Hz",
			Min:      0,
			Max:      857e3,
			HasRange: true,
		})
		f.values[fmt.Sprintf("/dev1234/demods/%d/rate", i)] = 1674.0
	}
	f.descs = append(f.descs,
		nodetree.Descriptor{
			Path:      "/dev1234/demods/0/sample",
			Kind:      nodetree.Sample,
			Access:    nodetree.Read,
			Streaming: true,
		},
		nodetree.Descriptor{
			Path:    "/dev1234/sigouts/0/on",
			Kind:    nodetree.Enum,
			Access:  nodetree.Read | nodetree.Write,
			Options: map[int64]string{0: "off", 1: "on"},
		},
		nodetree.Descriptor{
			Path:   "/dev1234/system/fwrevision",
			Kind:   nodetree.Integer,
			Access: nodetree.Read,
		},
		// "interface" collides with a reserved identifier
		nodetree.Descriptor{
			Path:   "/dev1234/system/interface",
			Kind:   nodetree.String,
			Access: nodetree.Read,
		},
	)
	f.values["/dev1234/system/fwrevision"] = int64(65939)
	f.values["/dev1234/system/interface"] = "1GbE"
	return f
}

func TestMirrorIsLazy(t *testing.T) {
	f := lockinFixture()
	tree := nodetree.New(f, "dev1234")
	if f.listings != 0 {
		t.Fatalf("expected zero remote traffic at construction, saw %d listings", f.listings)
	}
	if _, err := tree.Root().Subgroup("demods"); err != nil {
		t.Fatal(err)
	}
	if f.listings != 1 {
		t.Errorf("expected exactly one listing after first access, saw %d", f.listings)
	}
	// further walks reuse the memoized listing
	if _, err := tree.Root().Subgroup("system"); err != nil {
		t.Fatal(err)
	}
	if f.listings != 1 {
		t.Errorf("expected the listing to be memoized, saw %d", f.listings)
	}
}

func TestMirrorIdempotent(t *testing.T) {
	tree := nodetree.New(lockinFixture(), "dev1234")
	demods, err := tree.Root().Subgroup("demods")
	if err != nil {
		t.Fatal(err)
	}
	d0, err := demods.Index(0)
	if err != nil {
		t.Fatal(err)
	}
	p1, err := d0.Group.Parameter("rate")
	if err != nil {
		t.Fatal(err)
	}
	p2, err := d0.Group.Parameter("rate")
	if err != nil {
		t.Fatal(err)
	}
	if p1 != p2 {
		t.Error("expected repeated access to yield the identical Parameter")
	}
	// the long way around must land on the same object too
	n, err := tree.Root().Resolve("demods/0/rate")
	if err != nil {
		t.Fatal(err)
	}
	if n.Param != p1 {
		t.Error("expected Resolve to yield the identical Parameter")
	}
}

func TestMirrorMissingPathFailsAtAccess(t *testing.T) {
	tree := nodetree.New(lockinFixture(), "dev1234")
	_, err := tree.Root().Subgroup("oscs")
	if !errors.Is(err, nodetree.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestIndexedGroupIterationMatchesIndexing(t *testing.T) {
	tree := nodetree.New(lockinFixture(), "dev1234")
	demods, err := tree.Root().Subgroup("demods")
	if err != nil {
		t.Fatal(err)
	}
	n, err := demods.Len()
	if err != nil {
		t.Fatal(err)
	}
	if n != 4 {
		t.Fatalf("expected 4 demodulators, got %d", n)
	}
	items, err := demods.Items()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		byIndex, err := demods.Index(i)
		if err != nil {
			t.Fatal(err)
		}
		if byIndex.Group != items[i].Group || byIndex.Param != items[i].Param {
			t.Errorf("index %d: iteration and indexing disagree", i)
		}
	}
}

func TestIndexOnNamedGroup(t *testing.T) {
	tree := nodetree.New(lockinFixture(), "dev1234")
	system, err := tree.Root().Subgroup("system")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := system.Index(0); !errors.Is(err, nodetree.ErrNotIndexed) {
		t.Errorf("expected ErrNotIndexed, got %v", err)
	}
}

func TestReservedNameRoundTrip(t *testing.T) {
	f := lockinFixture()
	tree := nodetree.New(f, "dev1234")
	system, err := tree.Root().Subgroup("system")
	if err != nil {
		t.Fatal(err)
	}
	names, err := system.Children()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, n := range names {
		if n == "interface_" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected sanitized child name interface_, have %v", names)
	}
	p, err := system.Parameter("interface_")
	if err != nil {
		t.Fatal(err)
	}
	if p.Path() != "/dev1234/system/interface" {
		t.Errorf("sanitized name did not round-trip to the raw path, got %s", p.Path())
	}
	s, err := p.GetString()
	if err != nil {
		t.Fatal(err)
	}
	if s != "1GbE" {
		t.Errorf("forwarded get through sanitized name returned %q", s)
	}
}

func TestChildAcceptsRawSegment(t *testing.T) {
	tree := nodetree.New(lockinFixture(), "dev1234")
	system, err := tree.Root().Subgroup("system")
	if err != nil {
		t.Fatal(err)
	}
	// the raw, un-sanitized segment resolves too
	if _, err := system.Parameter("interface"); err != nil {
		t.Errorf("raw segment lookup failed: %v", err)
	}
}
