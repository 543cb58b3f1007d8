package awg

import (
	"encoding/json"
	"fmt"
)

// CommandTable is the JSON program the sequencer indexes into at run time.
// The instrument rejects malformed tables with an opaque status code, so
// Validate catches the common mistakes before upload.
type CommandTable []byte

// Validate checks that the table is well-formed JSON with the required
// header and a non-empty entry list
func (ct CommandTable) Validate() error {
	var t struct {
		Header struct {
			Version string `json:"version"`
		} `json:"header"`
		Table []json.RawMessage `json:"table"`
	}
	if err := json.Unmarshal(ct, &t); err != nil {
		return fmt.Errorf("command table is not valid JSON: %w", err)
	}
	if t.Header.Version == "" {
		return fmt.Errorf("command table header lacks a version")
	}
	if len(t.Table) == 0 {
		return fmt.Errorf("command table has no entries")
	}
	for i, entry := range t.Table {
		var e struct {
			Index *int `json:"index"`
		}
		if err := json.Unmarshal(entry, &e); err != nil {
			return fmt.Errorf("command table entry %d: %w", i, err)
		}
		if e.Index == nil {
			return fmt.Errorf("command table entry %d lacks an index", i)
		}
	}
	return nil
}
