/*zigen writes the per-family device constructors from a manifest.

Usage:

	zigen [manifest] [output]

defaulting to devices/families.yml and devices/devices_gen.go.  The
manifest is the single source of truth for instrument families; edit it
and rerun rather than touching the generated file.
*/
package main

import (
	"bytes"
	"fmt"
	"go/format"
	"io/ioutil"
	"log"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/theckman/yacspin"
	"gopkg.in/yaml.v2"
)

const (
	defaultManifest = "devices/families.yml"
	defaultOutput   = "devices/devices_gen.go"
)

// family is one manifest entry
type family struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Models      []string `yaml:"models"`
	HF2         bool     `yaml:"hf2"`
}

type manifest struct {
	Families []family `yaml:"families"`
}

var tmpl = template.Must(template.New("devices_gen").Funcs(template.FuncMap{
	"article": article,
	"quoted":  quoted,
}).Parse(`// Code generated by zigen from families.yml; DO NOT EDIT.

package devices

import "github.com/nasa-jpl/golabone/session"

// Families lists every instrument family, in manifest order
var Families = []Family{
{{- range .Families}}
	{Name: "{{.Name}}", Description: "{{.Description}}", Models: []string{ {{- quoted .Models -}} }{{if .HF2}}, HF2: true{{end}}},
{{- end}}
}
{{range $i, $f := .Families}}
// {{$f.Name}} connects to {{article $f.Description}} {{$f.Description}}
func {{$f.Name}}(serial, host string, opts ...Option) (*session.Device, error) {
	return connect(Families[{{$i}}], serial, host, opts...)
}
{{end}}`))

// article picks a or an for a description
func article(s string) string {
	if s == "" {
		return "a"
	}
	switch s[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "an"
	}
	return "a"
}

func quoted(ss []string) string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(out, ", ")
}

func generate(manifestPath, outPath string) error {
	buf, err := ioutil.ReadFile(manifestPath)
	if err != nil {
		return err
	}
	var m manifest
	if err := yaml.Unmarshal(buf, &m); err != nil {
		return fmt.Errorf("parsing %s: %w", manifestPath, err)
	}
	if len(m.Families) == 0 {
		return fmt.Errorf("%s names no families", manifestPath)
	}
	for _, f := range m.Families {
		if f.Name == "" || len(f.Models) == 0 {
			return fmt.Errorf("family %+v lacks a name or models", f)
		}
	}
	var rendered bytes.Buffer
	if err := tmpl.Execute(&rendered, m); err != nil {
		return err
	}
	src, err := format.Source(rendered.Bytes())
	if err != nil {
		return fmt.Errorf("generated code does not parse: %w", err)
	}
	return ioutil.WriteFile(outPath, src, 0644)
}

func main() {
	manifestPath := defaultManifest
	outPath := defaultOutput
	args := os.Args[1:]
	if len(args) > 0 {
		manifestPath = args[0]
	}
	if len(args) > 1 {
		outPath = args[1]
	}
	cfg := yacspin.Config{
		Frequency:         100 * time.Millisecond,
		CharSet:           yacspin.CharSets[59],
		Suffix:            " generating device constructors",
		SuffixAutoColon:   true,
		Message:           manifestPath,
		StopCharacter:     "✓",
		StopColors:        []string{"fgGreen"},
		StopFailCharacter: "✗",
		StopFailColors:    []string{"fgRed"},
	}
	spinner, err := yacspin.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	spinner.Start()
	if err := generate(manifestPath, outPath); err != nil {
		spinner.StopFailMessage(err.Error())
		spinner.StopFail()
		os.Exit(1)
	}
	spinner.StopMessage(outPath)
	spinner.Stop()
}
