// Package server contains shared plumbing for the HTTP facade.
package server

import (
	"encoding/json"
	"fmt"
	"go/types"
	"log"
	"net/http"
	"strings"
)

// FloatT is a struct with a single float64 field named f64, used to
// decode request bodies
type FloatT struct {
	F64 float64 `json:"f64"`
}

// IntT is a struct with a single int field named int
type IntT struct {
	Int int64 `json:"int"`
}

// StrT is a struct with a single string field named str
type StrT struct {
	Str string `json:"str"`
}

// BoolT is a struct with a single bool field named bool
type BoolT struct {
	Bool bool `json:"bool"`
}

// RawT carries an arbitrary JSON value, for vector and sample nodes
type RawT struct {
	Value interface{} `json:"value"`
}

// HumanPayload is a struct that can hold any type of scalar data a node
// produces and reply to a request with either json or plain text, based
// on the Accept header
type HumanPayload struct {
	// T is the type of the payload
	T types.BasicKind

	// Bool holds a boolean
	Bool bool

	// Int holds an integer
	Int int64

	// Float holds a float64
	Float float64

	// String holds a string
	String string

	// Any holds what the scalar fields cannot
	Any interface{}
}

// EncodeAndRespond writes the payload to w.  Clients accepting
// application/json get {"f64": v} style bodies keyed by type; everyone
// else gets the bare value as text.
func (hp *HumanPayload) EncodeAndRespond(w http.ResponseWriter, r *http.Request) {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		var (
			obj interface{}
			err error
		)
		switch hp.T {
		case types.Bool:
			obj = BoolT{Bool: hp.Bool}
		case types.Int64:
			obj = IntT{Int: hp.Int}
		case types.Float64:
			obj = FloatT{F64: hp.Float}
		case types.String:
			obj = StrT{Str: hp.String}
		default:
			obj = RawT{Value: hp.Any}
		}
		err = json.NewEncoder(w).Encode(obj)
		if err != nil {
			fstr := fmt.Sprintf("error encoding payload to json %q", err)
			log.Println(fstr)
			http.Error(w, fstr, http.StatusInternalServerError)
		}
		return
	}
	switch hp.T {
	case types.Bool:
		fmt.Fprintf(w, "%t", hp.Bool)
	case types.Int64:
		fmt.Fprintf(w, "%d", hp.Int)
	case types.Float64:
		fmt.Fprintf(w, "%g", hp.Float)
	case types.String:
		fmt.Fprint(w, hp.String)
	default:
		json.NewEncoder(w).Encode(hp.Any)
	}
}

// RouteTable maps URL endpoints to handlers
type RouteTable map[string]http.HandlerFunc

// ListEndpoints lists the endpoints in a RouteTable (the keys)
func (rt RouteTable) ListEndpoints() []string {
	routes := make([]string, 0, len(rt))
	for k := range rt {
		routes = append(routes, k)
	}
	return routes
}

// HTTPer is an object which exposes a route table
type HTTPer interface {
	RT() RouteTable
}
