package labone

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
)

// Simulator is an in-process stand-in for a data server, for tests and
// bench work without hardware.  It serves the same JSON gateway the real
// server does, over a loopback listener, with a node table seeded by the
// caller.
type Simulator struct {
	mu       sync.Mutex
	version  string
	nodes    map[string]*simEntry // path -> node
	devices  map[string]string    // serial -> devtype
	attached map[string]bool      // serial -> connected
	subs     map[string]bool      // subscribed paths
	ops      map[string]int       // op name -> count served
	ln       net.Listener
}

type simEntry struct {
	info  nodeInfo
	value interface{}
}

// SimNode seeds one node of the simulated namespace.  The field names
// mirror the server's listing entries.
type SimNode struct {
	Path        string
	Description string
	Unit        string
	Type        string // Double, Integer (64 bit), Integer (enumerated), String, ...
	Properties  string // comma-joined out of Read, Write, Setting, Stream
	Options     map[string]string
	Min, Max    *float64
	Value       interface{}
}

// NewSimulator returns a Simulator with an empty namespace reporting
// APIVersion
func NewSimulator() *Simulator {
	return &Simulator{
		version:  APIVersion,
		nodes:    make(map[string]*simEntry),
		devices:  make(map[string]string),
		attached: make(map[string]bool),
		subs:     make(map[string]bool),
		ops:      make(map[string]int),
	}
}

// Ops returns how many times the named operation has been served, for
// assertions about traffic shape
func (s *Simulator) Ops(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ops[op]
}

// SetVersion overrides the release string the simulator reports
func (s *Simulator) SetVersion(v string) {
	s.mu.Lock()
	s.version = v
	s.mu.Unlock()
}

// AddDevice seeds a device: its serial becomes visible, and its nodes are
// served under /serial/ once a client connects it
func (s *Simulator) AddDevice(serial, devtype string, nodes []SimNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	serial = strings.ToLower(serial)
	s.devices[serial] = devtype
	for _, n := range nodes {
		s.addNode("/"+serial, n)
	}
}

// AddModule seeds a module namespace (sweeper, daq, scope) at /name/
func (s *Simulator) AddModule(name string, nodes []SimNode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range nodes {
		s.addNode("/"+strings.ToLower(name), n)
	}
}

func (s *Simulator) addNode(prefix string, n SimNode) {
	path := strings.ToLower(prefix + "/" + strings.Trim(n.Path, "/"))
	s.nodes[path] = &simEntry{
		info: nodeInfo{
			Node:        path,
			Description: n.Description,
			Unit:        n.Unit,
			Type:        n.Type,
			Properties:  n.Properties,
			Options:     n.Options,
			Min:         n.Min,
			Max:         n.Max,
		},
		value: n.Value,
	}
}

// Value returns the current value of a node, for assertions
func (s *Simulator) Value(path string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.nodes[strings.ToLower(path)]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Start begins serving on a loopback port and returns the host and port to
// dial
func (s *Simulator) Start() (string, int, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", 0, err
	}
	s.ln = ln
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go s.serve(conn)
		}
	}()
	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port, nil
}

// Close stops the listener
func (s *Simulator) Close() {
	if s.ln != nil {
		s.ln.Close()
	}
}

func (s *Simulator) serve(conn net.Conn) {
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	enc := json.NewEncoder(conn)
	for scanner.Scan() {
		var req request
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			enc.Encode(response{Err: err.Error()})
			continue
		}
		enc.Encode(s.handle(req))
	}
}

func (s *Simulator) handle(req request) response {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops[req.Op]++
	switch req.Op {
	case "version":
		return response{OK: true, Version: s.version}
	case "listNodes":
		prefix := strings.ToLower(strings.TrimSuffix(req.Pattern, "*"))
		var nodes []nodeInfo
		for path, e := range s.nodes {
			if strings.HasPrefix(path, prefix) {
				nodes = append(nodes, e.info)
			}
		}
		return response{OK: true, Nodes: nodes}
	case "get":
		e, ok := s.nodes[strings.ToLower(req.Path)]
		if !ok {
			return response{Err: fmt.Sprintf("node %s not found", req.Path)}
		}
		if !strings.Contains(e.info.Properties, "Read") {
			return response{Err: fmt.Sprintf("node %s is not readable", req.Path)}
		}
		return response{OK: true, Value: e.value}
	case "set":
		return s.applySet(req.Path, req.Value)
	case "setBatch":
		for _, kv := range req.Values {
			if resp := s.applySet(kv.Path, kv.Value); !resp.OK {
				return resp
			}
		}
		return response{OK: true}
	case "connectDevice":
		serial := strings.ToLower(req.Serial)
		devtype, ok := s.devices[serial]
		if !ok {
			return response{Err: fmt.Sprintf("device %s not found", req.Serial)}
		}
		s.attached[serial] = true
		return response{OK: true, DevType: devtype}
	case "disconnectDevice":
		delete(s.attached, strings.ToLower(req.Serial))
		return response{OK: true}
	case "connectedDevices":
		var out []string
		for serial := range s.attached {
			out = append(out, serial)
		}
		return response{OK: true, Devices: out}
	case "visibleDevices":
		var out []string
		for serial := range s.devices {
			out = append(out, serial)
		}
		return response{OK: true, Devices: out}
	case "subscribe":
		if _, ok := s.nodes[strings.ToLower(req.Path)]; !ok {
			return response{Err: fmt.Sprintf("node %s not found", req.Path)}
		}
		s.subs[strings.ToLower(req.Path)] = true
		return response{OK: true}
	case "unsubscribe":
		delete(s.subs, strings.ToLower(req.Path))
		return response{OK: true}
	case "poll":
		out := make(map[string][]interface{})
		for path := range s.subs {
			if e, ok := s.nodes[path]; ok {
				out[path] = []interface{}{e.value}
			}
		}
		return response{OK: true, Values: out}
	case "sync":
		return response{OK: true}
	}
	return response{Err: fmt.Sprintf("unknown op %q", req.Op)}
}

func (s *Simulator) applySet(path string, value interface{}) response {
	e, ok := s.nodes[strings.ToLower(path)]
	if !ok {
		return response{Err: fmt.Sprintf("node %s not found", path)}
	}
	if !strings.Contains(e.info.Properties, "Write") {
		return response{Err: fmt.Sprintf("node %s is read-only", path)}
	}
	e.value = value
	return response{OK: true}
}

func f64(v float64) *float64 { return &v }

// LockinNodes returns a namespace fragment resembling a lock-in amplifier:
// four demodulators, a signal output, and a system branch.  Tests across
// the repo share it.
func LockinNodes() []SimNode {
	var nodes []SimNode
	for i := 0; i < 4; i++ {
		nodes = append(nodes,
			SimNode{
				Path:       fmt.Sprintf("demods/%d/rate", i),
				Type:       "Double",
				Properties: "Read, Write, Setting",
				Unit:       "1/s",
				Min:        f64(0),
				Max:        f64(857e3),
				Value:      1674.0,
			},
			SimNode{
				Path:       fmt.Sprintf("demods/%d/enable", i),
				Type:       "Integer (enumerated)",
				Properties: "Read, Write, Setting",
				Options:    map[string]string{"0": "off: disabled", "1": "on: enabled"},
				Value:      0,
			},
			SimNode{
				Path:       fmt.Sprintf("demods/%d/sample", i),
				Type:       "ZIDemodSample",
				Properties: "Read, Stream",
				Value:      map[string]interface{}{"x": 1e-5, "y": -2e-5},
			},
		)
	}
	nodes = append(nodes,
		SimNode{
			Path:       "sigouts/0/on",
			Type:       "Integer (enumerated)",
			Properties: "Read, Write, Setting",
			Options:    map[string]string{"0": "off: output disabled", "1": "on: output enabled"},
			Value:      0,
		},
		SimNode{
			Path:       "system/fwrevision",
			Type:       "Integer (64 bit)",
			Properties: "Read",
			Value:      65939,
		},
		SimNode{
			Path:       "system/interface",
			Type:       "String",
			Properties: "Read",
			Value:      "1GbE",
		},
	)
	return nodes
}
