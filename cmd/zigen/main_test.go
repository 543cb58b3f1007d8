package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
)

// the committed file must match what the manifest generates, or someone
// edited the output by hand
func TestCommittedOutputIsCurrent(t *testing.T) {
	dir, err := ioutil.TempDir("", "zigen")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	out := filepath.Join(dir, "devices_gen.go")
	if err := generate("../../devices/families.yml", out); err != nil {
		t.Fatal(err)
	}
	got, err := ioutil.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want, err := ioutil.ReadFile("../../devices/devices_gen.go")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Error("devices_gen.go is stale; rerun zigen")
	}
}

func TestGenerateRejectsBadManifests(t *testing.T) {
	dir, err := ioutil.TempDir("", "zigen")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	cases := map[string]string{
		"empty":     "families: []",
		"no name":   "families:\n  - models: [X]",
		"no models": "families:\n  - name: X",
	}
	for name, content := range cases {
		mf := filepath.Join(dir, name+".yml")
		if err := ioutil.WriteFile(mf, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		if err := generate(mf, filepath.Join(dir, "out.go")); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestArticle(t *testing.T) {
	if article("arbitrary waveform generator") != "an" {
		t.Error("vowel should take an")
	}
	if article("signal generator") != "a" {
		t.Error("consonant should take a")
	}
	if article("50 MHz lock-in amplifier") != "a" {
		t.Error("digit should take a")
	}
}
