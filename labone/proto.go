package labone

import (
	"encoding/json"
	"strings"

	"github.com/nasa-jpl/golabone/nodetree"
)

// request is one line of the gateway's framing: a JSON envelope naming the
// operation and its arguments.  The envelope shape belongs to this package
// and is not part of the repo's contract.
type request struct {
	Op      string      `json:"op"`
	Path    string      `json:"path,omitempty"`
	Pattern string      `json:"pattern,omitempty"`
	Value   interface{} `json:"value,omitempty"`
	Values  []KV        `json:"values,omitempty"`
	Serial  string      `json:"serial,omitempty"`
	Iface   string      `json:"interface,omitempty"`
	Millis  int         `json:"millis,omitempty"`
}

// KV is one path/value pair of a batched set
type KV struct {
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

type response struct {
	OK      bool                     `json:"ok"`
	Err     string                   `json:"err,omitempty"`
	Value   interface{}              `json:"value,omitempty"`
	Nodes   []nodeInfo               `json:"nodes,omitempty"`
	Values  map[string][]interface{} `json:"values,omitempty"`
	Devices []string                 `json:"devices,omitempty"`
	DevType string                   `json:"devtype,omitempty"`
	Version string                   `json:"version,omitempty"`
}

// nodeInfo is the server's own listing shape; it is converted to a
// nodetree.Descriptor at the package boundary
type nodeInfo struct {
	Node        string           `json:"Node"`
	Description string           `json:"Description,omitempty"`
	Unit        string           `json:"Unit,omitempty"`
	Type        string           `json:"Type"`
	Properties  string           `json:"Properties"`
	Options     map[string]string `json:"Options,omitempty"`
	Min         *float64         `json:"Min,omitempty"`
	Max         *float64         `json:"Max,omitempty"`
}

// descriptor converts the server's listing entry into the local model
func (n nodeInfo) descriptor() nodetree.Descriptor {
	d := nodetree.Descriptor{
		Path:        strings.ToLower(n.Node),
		Description: n.Description,
	}
	// the server reports "None" or "Dependent" for unitless nodes
	if n.Unit != "" && n.Unit != "None" && n.Unit != "Dependent" {
		d.Unit = n.Unit
	}
	switch {
	case strings.Contains(n.Type, "enumerated"):
		d.Kind = nodetree.Enum
	case strings.Contains(n.Type, "Integer"):
		d.Kind = nodetree.Integer
	case strings.Contains(n.Type, "Complex"):
		d.Kind = nodetree.Complex
	case strings.Contains(n.Type, "ZIVector"):
		d.Kind = nodetree.Vector
	case strings.Contains(n.Type, "Sample"):
		d.Kind = nodetree.Sample
	case n.Type == "String":
		d.Kind = nodetree.String
	default:
		d.Kind = nodetree.Double
	}
	if strings.Contains(n.Properties, "Read") {
		d.Access |= nodetree.Read
	}
	if strings.Contains(n.Properties, "Write") {
		d.Access |= nodetree.Write
	}
	d.Streaming = strings.Contains(n.Properties, "Stream")
	if len(n.Options) > 0 {
		d.Options = make(map[int64]string, len(n.Options))
		for k, v := range n.Options {
			var i int64
			if err := json.Unmarshal([]byte(k), &i); err == nil {
				// option labels come as "on: output enabled"; keep the word
				d.Options[i] = strings.SplitN(v, ":", 2)[0]
			}
		}
	}
	if n.Min != nil && n.Max != nil {
		d.Min, d.Max = *n.Min, *n.Max
		d.HasRange = true
	}
	return d
}

// normalize rewrites decoded JSON numbers so integer nodes come back as
// int64 and everything else as float64
func normalize(v interface{}) interface{} {
	switch n := v.(type) {
	case json.Number:
		if !strings.ContainsAny(n.String(), ".eE") {
			if i, err := n.Int64(); err == nil {
				return i
			}
		}
		f, _ := n.Float64()
		return f
	case map[string]interface{}:
		for k, vv := range n {
			n[k] = normalize(vv)
		}
		return n
	case []interface{}:
		for i, vv := range n {
			n[i] = normalize(vv)
		}
		return n
	}
	return v
}
