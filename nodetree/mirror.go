package nodetree

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Node is one position in the mirrored tree.  Exactly one of Group or Param
// is non-nil: interior positions are groups, terminal positions are
// parameters.
type Node struct {
	Group *Group
	Param *Parameter
}

type entry struct {
	group *Group
	param *Parameter
}

func (e *entry) node() Node {
	return Node{Group: e.group, Param: e.param}
}

// Tree mirrors the node namespace below one prefix (a device serial like
// dev1234, or a module name).  Trees must be created with New.  Creation is
// constant time; the namespace listing is fetched on first lookup and
// memoized, as are the Group and Parameter objects themselves, so repeated
// access to a path yields the identical object.
type Tree struct {
	acc    Accessor
	prefix string

	mu       sync.Mutex
	loaded   bool
	children map[string][]string   // interior path -> ordered raw child segments
	descs    map[string]Descriptor // terminal path -> descriptor
	arena    map[string]*entry     // path -> memoized mirror object
	root     *Group
}

// New returns a Tree over the namespace below prefix, e.g. New(client,
// "dev1234").  No remote traffic is generated until the tree is first
// walked.
func New(acc Accessor, prefix string) *Tree {
	t := &Tree{
		acc:      acc,
		prefix:   strings.ToLower(strings.Trim(prefix, "/")),
		children: make(map[string][]string),
		descs:    make(map[string]Descriptor),
		arena:    make(map[string]*entry),
	}
	t.root = &Group{t: t, path: "/" + t.prefix, name: Sanitize(t.prefix)}
	return t
}

// Root returns the group at the top of the mirrored namespace
func (t *Tree) Root() *Group {
	return t.root
}

// Prefix returns the namespace prefix the tree mirrors
func (t *Tree) Prefix() string {
	return t.prefix
}

// load fetches and indexes the namespace listing.  Called under t.mu.
func (t *Tree) load() error {
	if t.loaded {
		return nil
	}
	descs, err := t.acc.ListNodes("/" + t.prefix + "/*")
	if err != nil {
		return err
	}
	for _, d := range descs {
		path := strings.ToLower(d.Path)
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		d.Path = path
		t.descs[path] = d
		segs := strings.Split(strings.Trim(path, "/"), "/")
		for i := 1; i < len(segs); i++ {
			parent := "/" + strings.Join(segs[:i], "/")
			t.addChild(parent, segs[i])
		}
	}
	for parent := range t.children {
		sortSegments(t.children[parent])
	}
	t.loaded = true
	return nil
}

func (t *Tree) addChild(parent, seg string) {
	kids := t.children[parent]
	for _, k := range kids {
		if k == seg {
			return
		}
	}
	t.children[parent] = append(kids, seg)
}

// sortSegments orders siblings: numeric segments numerically, everything
// else lexically, numbers before names (so demods/0..n enumerate in index
// order)
func sortSegments(segs []string) {
	sort.Slice(segs, func(i, j int) bool {
		di, ei := strconv.Atoi(segs[i])
		dj, ej := strconv.Atoi(segs[j])
		if ei == nil && ej == nil {
			return di < dj
		}
		if ei == nil {
			return true
		}
		if ej == nil {
			return false
		}
		return segs[i] < segs[j]
	})
}

// at resolves a full raw path to its memoized mirror object
func (t *Tree) at(path string) (*entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.load(); err != nil {
		return nil, err
	}
	return t.atLocked(path)
}

func (t *Tree) atLocked(path string) (*entry, error) {
	if e, ok := t.arena[path]; ok {
		return e, nil
	}
	segs := strings.Split(strings.Trim(path, "/"), "/")
	name := Sanitize(segs[len(segs)-1])
	if _, interior := t.children[path]; interior {
		e := &entry{group: &Group{t: t, path: path, name: name}}
		t.arena[path] = e
		return e, nil
	}
	if d, terminal := t.descs[path]; terminal {
		e := &entry{param: newParameter(t, d, name)}
		t.arena[path] = e
		return e, nil
	}
	return nil, ErrNotFound
}

// Group is an interior position of the mirrored namespace: either a named
// collection of sub-nodes or an indexed array of structurally repeated
// siblings (demods, sigouts, awgs, ...).
type Group struct {
	t    *Tree
	path string
	name string
}

// Name returns the sanitized identifier of the group
func (g *Group) Name() string { return g.name }

// Path returns the raw absolute path of the group
func (g *Group) Path() string { return g.path }

// Child resolves one child by name.  The name may be the sanitized
// identifier or the raw segment; numeric strings address array indices.
// A path not present on the device returns ErrNotFound at this point, not
// earlier.
func (g *Group) Child(name string) (Node, error) {
	g.t.mu.Lock()
	defer g.t.mu.Unlock()
	if err := g.t.load(); err != nil {
		return Node{}, err
	}
	raw, ok := Desanitize(g.t.children[g.path], strings.ToLower(name))
	if !ok {
		return Node{}, ErrNotFound
	}
	e, err := g.t.atLocked(g.path + "/" + raw)
	if err != nil {
		return Node{}, err
	}
	return e.node(), nil
}

// Subgroup resolves a child that must be a group
func (g *Group) Subgroup(name string) (*Group, error) {
	n, err := g.Child(name)
	if err != nil {
		return nil, err
	}
	if n.Group == nil {
		return nil, ErrNotAGroup
	}
	return n.Group, nil
}

// Parameter resolves a child that must be a terminal parameter
func (g *Group) Parameter(name string) (*Parameter, error) {
	n, err := g.Child(name)
	if err != nil {
		return nil, err
	}
	if n.Param == nil {
		return nil, ErrNotAParameter
	}
	return n.Param, nil
}

// Index addresses the i-th element of an indexed array group
func (g *Group) Index(i int) (Node, error) {
	g.t.mu.Lock()
	defer g.t.mu.Unlock()
	if err := g.t.load(); err != nil {
		return Node{}, err
	}
	kids := g.t.children[g.path]
	if len(kids) == 0 || !isDigits(kids[0]) {
		return Node{}, ErrNotIndexed
	}
	if i < 0 || i >= len(kids) {
		return Node{}, ErrNotFound
	}
	e, err := g.t.atLocked(g.path + "/" + kids[i])
	if err != nil {
		return Node{}, err
	}
	return e.node(), nil
}

// Len returns the number of children of the group
func (g *Group) Len() (int, error) {
	g.t.mu.Lock()
	defer g.t.mu.Unlock()
	if err := g.t.load(); err != nil {
		return 0, err
	}
	return len(g.t.children[g.path]), nil
}

// Items returns every child in sibling order (index order for array
// groups).  Iteration and integer indexing see the same objects.
func (g *Group) Items() ([]Node, error) {
	g.t.mu.Lock()
	defer g.t.mu.Unlock()
	if err := g.t.load(); err != nil {
		return nil, err
	}
	kids := g.t.children[g.path]
	out := make([]Node, 0, len(kids))
	for _, k := range kids {
		e, err := g.t.atLocked(g.path + "/" + k)
		if err != nil {
			return nil, err
		}
		out = append(out, e.node())
	}
	return out, nil
}

// Children returns the sanitized names of every child in sibling order
func (g *Group) Children() ([]string, error) {
	g.t.mu.Lock()
	defer g.t.mu.Unlock()
	if err := g.t.load(); err != nil {
		return nil, err
	}
	kids := g.t.children[g.path]
	out := make([]string, len(kids))
	for i, k := range kids {
		out[i] = Sanitize(k)
	}
	return out, nil
}

// Resolve walks a relative slash-delimited path (sanitized or raw segments)
// from the group
func (g *Group) Resolve(rel string) (Node, error) {
	segs := strings.Split(strings.Trim(strings.ToLower(rel), "/"), "/")
	cur := Node{Group: g}
	for _, seg := range segs {
		if seg == "" {
			continue
		}
		if cur.Group == nil {
			return Node{}, ErrNotAGroup
		}
		next, err := cur.Group.Child(seg)
		if err != nil {
			return Node{}, err
		}
		cur = next
	}
	return cur, nil
}
