package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"

	yml "gopkg.in/yaml.v2"
)

var (
	// Version is the version number.  Typically injected via ldflags with git build
	Version = "1"

	// ConfigFileName is what it sounds like
	ConfigFileName = "labonesrv.yml"
	k              = koanf.New(".")
)

func setupconfig() {
	k.Load(structs.Provider(Config{
		Addr:    ":8000",
		Devices: []DeviceSetup{}}, "koanf"), nil)
	if err := k.Load(file.Provider(ConfigFileName), yaml.Parser()); err != nil {
		errtxt := err.Error()
		if !strings.Contains(errtxt, "no such") { // file missing, who cares
			log.Fatalf("error loading config: %v", err)
		}
	}
}

func root() {
	str := `labonesrv serves Zurich Instruments hardware over HTTP.
Each configured instrument gets its node tree bound under a URL stem, so
clients in any language can read and write settings with plain HTTP.

Usage:
	labonesrv <command>

Commands:
	run
	help
	mkconf
	conf
	version`
	fmt.Println(str)
}

func help() {
	str := `labonesrv is configured via its .yaml file.  For a primer on YAML, see
https://yaml.org/start.html

Without a configuration, the server has nothing to serve and exits.

No two devices can share an Endpoint.  Devices on the same Host share one
data server connection.

Family names, case insensitive:
- HDAWG   arbitrary waveform generator
- HF2LI   50 MHz lock-in amplifier (HF2 server, port 8005)
- MFIA    impedance analyzer
- MFLI    500 kHz / 5 MHz lock-in amplifier
- PQSC    programmable quantum system controller
- SHFQA   quantum analyzer
- SHFQC   qubit controller
- SHFSG   signal generator
- UHFLI   600 MHz lock-in amplifier
- UHFQA   quantum analyzer

Example config:
Addr: :8000
Devices:
  - Serial: dev1234
    Host: 192.168.100.40
    Family: MFLI
    Endpoint: /cryo/lockin`
	fmt.Println(str)
}

func mkconf() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	f, err := os.Create(ConfigFileName)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()
	err = yml.NewEncoder(f).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func printconf() {
	c := Config{}
	k.Unmarshal("", &c)
	err := yml.NewEncoder(os.Stdout).Encode(c)
	if err != nil {
		log.Fatal(err)
	}
}

func pversion() {
	fmt.Printf("labonesrv version %v\n", Version)
}

func run() {
	c := Config{}
	err := k.Unmarshal("", &c)
	if err != nil {
		log.Fatal(err)
	}
	mux, err := BuildMux(c)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("now listening for requests at ", c.Addr)
	log.Fatal(http.ListenAndServe(c.Addr, mux))
}

func main() {
	var cmd string
	args := os.Args
	if len(args) == 1 {
		root()
		return
	}
	setupconfig()
	cmd = args[1]
	cmd = strings.ToLower(cmd)
	switch cmd {
	case "help":
		help()
		return
	case "mkconf":
		mkconf()
		return
	case "conf":
		printconf()
		return
	case "run":
		run()
		return
	case "version":
		pversion()
		return
	default:
		log.Fatal("unknown command")
	}
}
