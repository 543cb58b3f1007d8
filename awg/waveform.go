package awg

import (
	"fmt"
	"math"
	"sort"
)

// Waveform granularity constraints of the generator hardware
const (
	MinSamples  = 32
	Granularity = 16
)

// Waveform is sample data for one slot: a required first channel, an
// optional second channel, and optional marker bits, all of equal length
type Waveform struct {
	Wave1   []float64
	Wave2   []float64
	Markers []uint8
}

// Validate checks length and amplitude constraints without converting
func (w Waveform) Validate() error {
	n := len(w.Wave1)
	if n < MinSamples {
		return fmt.Errorf("waveform has %d samples, minimum is %d", n, MinSamples)
	}
	if n%Granularity != 0 {
		return fmt.Errorf("waveform length %d is not a multiple of %d", n, Granularity)
	}
	if w.Wave2 != nil && len(w.Wave2) != n {
		return fmt.Errorf("channel lengths differ: %d vs %d", n, len(w.Wave2))
	}
	if w.Markers != nil && len(w.Markers) != n {
		return fmt.Errorf("marker length %d does not match %d samples", len(w.Markers), n)
	}
	for _, ch := range [][]float64{w.Wave1, w.Wave2} {
		for i, v := range ch {
			if math.Abs(v) > 1.0 {
				return fmt.Errorf("sample %d is %g, amplitude must be within [-1, 1]", i, v)
			}
		}
	}
	return nil
}

// Interleave validates and converts to the instrument's native format:
// full-scale 16 bit samples, channels interleaved, marker bits in a
// trailing interleaved channel when present
func (w Waveform) Interleave() ([]int16, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	channels := 1
	if w.Wave2 != nil {
		channels++
	}
	if w.Markers != nil {
		channels++
	}
	n := len(w.Wave1)
	out := make([]int16, 0, n*channels)
	for i := 0; i < n; i++ {
		out = append(out, toFull(w.Wave1[i]))
		if w.Wave2 != nil {
			out = append(out, toFull(w.Wave2[i]))
		}
		if w.Markers != nil {
			out = append(out, int16(w.Markers[i]))
		}
	}
	return out, nil
}

func toFull(v float64) int16 {
	return int16(math.Round(v * math.MaxInt16))
}

// Waveforms maps slot indices to waveforms for a bulk upload
type Waveforms map[int]Waveform

// Validate checks every slot, reporting the first failure by slot
func (ws Waveforms) Validate() error {
	for slot, w := range ws {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("slot %d: %w", slot, err)
		}
	}
	return nil
}

// Slots returns the populated slot indices in ascending order
func (ws Waveforms) Slots() []int {
	out := make([]int, 0, len(ws))
	for slot := range ws {
		out = append(out, slot)
	}
	sort.Ints(out)
	return out
}
