package usbtmc

import (
	"encoding/binary"
	"testing"
)

func TestTagWrapsWithoutZero(t *testing.T) {
	g := &tagGen{value: 254}
	if got := g.next(); got != 255 {
		t.Fatalf("expected 255, got %d", got)
	}
	// zero is not a legal bTag; wraparound must skip it
	if got := g.next(); got != 1 {
		t.Fatalf("expected wrap to 1, got %d", got)
	}
}

func TestOutHeaderLayout(t *testing.T) {
	g := &tagGen{}
	hdr := encOutHeader(g, 300)
	if hdr[0] != msgDevDepOut {
		t.Errorf("wrong message ID %#x", hdr[0])
	}
	if hdr[2] != invTag(hdr[1]) {
		t.Error("bTag inverse wrong")
	}
	if got := binary.LittleEndian.Uint32(hdr[4:8]); got != 300 {
		t.Errorf("transfer size %d, want 300", got)
	}
	if hdr[8] != 0x01 {
		t.Error("end of message bit not set")
	}
}

func TestInHeaderTerminator(t *testing.T) {
	g := &tagGen{}
	term := byte('\n')
	hdr := encInHeader(g, 1500, &term)
	if hdr[0] != msgRequestDevDepIn {
		t.Errorf("wrong message ID %#x", hdr[0])
	}
	if hdr[8] != 0x02 || hdr[9] != '\n' {
		t.Error("terminator framing not encoded")
	}
	hdr = encInHeader(g, 1500, nil)
	if hdr[8] != 0x00 || hdr[9] != 0x00 {
		t.Error("nil terminator should leave the bitmap clear")
	}
}
