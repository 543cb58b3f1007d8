/*Package awg drives the arbitrary waveform generator cores of a device.

An AWG core takes three kinds of payload: waveforms (sample data, validated
and converted to the instrument's interleaved 16 bit format), command
tables (JSON programs sequencers index into), and compiled sequencer
programs (ELF images, verified by checksum after upload).  This package
validates each payload locally before anything is written, so malformed
data never reaches the instrument.
*/
package awg

import (
	"encoding/base64"
	"fmt"

	"github.com/snksoft/crc"

	"github.com/nasa-jpl/golabone/nodetree"
	"github.com/nasa-jpl/golabone/session"
)

var elfMagic = []byte{0x7f, 'E', 'L', 'F'}

var crcTable = crc.NewTable(crc.CRC32)

// Checksum computes the CRC the instrument reports for an uploaded
// sequencer image
func Checksum(elf []byte) uint32 {
	return uint32(crcTable.CalculateCRC(elf))
}

// AWG is one generator core of a device, addressed by index under the
// device's awgs branch
type AWG struct {
	dev   *session.Device
	index int
}

// New returns the handle to core index of the device
func New(dev *session.Device, index int) *AWG {
	return &AWG{dev: dev, index: index}
}

// Index returns the core index
func (a *AWG) Index() int { return a.index }

func (a *AWG) param(rel string) (*nodetree.Parameter, error) {
	n, err := a.dev.Root().Resolve(fmt.Sprintf("awgs/%d/%s", a.index, rel))
	if err != nil {
		return nil, err
	}
	if n.Param == nil {
		return nil, nodetree.ErrNotAParameter
	}
	return n.Param, nil
}

// Enable starts the sequencer
func (a *AWG) Enable() error {
	p, err := a.param("enable")
	if err != nil {
		return err
	}
	return p.Set(int64(1))
}

// Disable stops the sequencer
func (a *AWG) Disable() error {
	p, err := a.param("enable")
	if err != nil {
		return err
	}
	return p.Set(int64(0))
}

// UploadWaveform validates the waveform and writes it to the indexed slot
func (a *AWG) UploadWaveform(slot int, w Waveform) error {
	data, err := w.Interleave()
	if err != nil {
		return err
	}
	p, err := a.param(fmt.Sprintf("waveform/waves/%d", slot))
	if err != nil {
		return err
	}
	return p.Set(data)
}

// UploadWaveforms validates every slot, then uploads them in ascending
// slot order.  Validation of the whole set happens before any write, so a
// bad slot leaves the instrument untouched.
func (a *AWG) UploadWaveforms(ws Waveforms) error {
	if err := ws.Validate(); err != nil {
		return err
	}
	for _, slot := range ws.Slots() {
		if err := a.UploadWaveform(slot, ws[slot]); err != nil {
			return err
		}
	}
	return nil
}

// UploadCommandTable validates the table and writes it to the core
func (a *AWG) UploadCommandTable(ct CommandTable) error {
	if err := ct.Validate(); err != nil {
		return err
	}
	p, err := a.param("commandtable/data")
	if err != nil {
		return err
	}
	return p.Set(string(ct))
}

// UploadELF writes a compiled sequencer image to the core and verifies the
// checksum the instrument reports against a local computation
func (a *AWG) UploadELF(elf []byte) error {
	if len(elf) < len(elfMagic) || string(elf[:4]) != string(elfMagic) {
		return fmt.Errorf("sequencer image lacks the ELF magic")
	}
	p, err := a.param("elf/data")
	if err != nil {
		return err
	}
	if err := p.Set(base64.StdEncoding.EncodeToString(elf)); err != nil {
		return err
	}
	p, err = a.param("elf/checksum")
	if err != nil {
		return err
	}
	reported, err := p.GetInt()
	if err != nil {
		return err
	}
	if want := Checksum(elf); uint32(reported) != want {
		return fmt.Errorf("sequencer upload corrupt: checksum %#x, want %#x", reported, want)
	}
	return nil
}
