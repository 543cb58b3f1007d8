package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"goji.io"
	"goji.io/pat"

	"github.com/nasa-jpl/golabone/devices"
	"github.com/nasa-jpl/golabone/nodehttp"
	"github.com/nasa-jpl/golabone/session"
)

// DeviceSetup holds the arguments to connect one instrument and the URL
// to serve it on
type DeviceSetup struct {
	// Serial is the instrument serial, e.g. dev1234
	Serial string `yaml:"Serial" koanf:"Serial"`

	// Host is the machine running the data server
	Host string `yaml:"Host" koanf:"Host"`

	// Port is the data server port; 0 uses the family default
	Port int `yaml:"Port" koanf:"Port"`

	// Family names the instrument family (MFLI, HDAWG, ...), used for
	// the default port and to verify the hardware matches
	Family string `yaml:"Family" koanf:"Family"`

	// Endpoint is the URL stem the device's routes are served on,
	// e.g. /cryo/lockin
	Endpoint string `yaml:"Endpoint" koanf:"Endpoint"`

	// Interface names the physical connection ("1GbE", "USB"); empty
	// lets the data server pick
	Interface string `yaml:"Interface" koanf:"Interface"`
}

// Config holds the initialization parameters for the served devices.  It
// is populated from the yaml config file.
type Config struct {
	// Addr is the address to listen at
	Addr string `yaml:"Addr" koanf:"Addr"`

	// Devices is the list of instruments to serve
	Devices []DeviceSetup `yaml:"Devices" koanf:"Devices"`
}

// sanitizeEndpoint turns "cryo/lockin" into "/cryo/lockin"
func sanitizeEndpoint(s string) string {
	if !strings.HasPrefix(s, "/") {
		s = "/" + s
	}
	return strings.TrimSuffix(s, "/")
}

// BuildMux connects every configured device and mounts its HTTP wrapper.
// Devices on the same data server share one session through the registry.
// The mux serves a special route, /endpoints, mapping URL stems to serials.
func BuildMux(c Config) (*goji.Mux, error) {
	mux := goji.NewMux()
	endpoints := map[string]string{}
	reg := session.NewRegistry()
	for _, ds := range c.Devices {
		fam, err := devices.FamilyByName(ds.Family)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ds.Serial, err)
		}
		port := ds.Port
		if port == 0 {
			port = fam.Port()
		}
		s, err := reg.Connect(ds.Host, port)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ds.Serial, err)
		}
		dev, err := s.ConnectDevice(ds.Serial, ds.Interface)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ds.Serial, err)
		}
		if !fam.Matches(dev.DevType()) {
			return nil, fmt.Errorf("%s is a %s, config says %s", dev.Serial(), dev.DevType(), fam.Name)
		}
		stem := sanitizeEndpoint(ds.Endpoint)
		endpoints[stem] = dev.Serial()
		mux.Handle(pat.New(stem+"/*"), http.StripPrefix(stem, nodehttp.New(dev)))
	}
	mux.HandleFunc(pat.Get("/endpoints"), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(endpoints); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	return mux, nil
}
