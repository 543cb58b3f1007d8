/*Package devices provides one constructor per instrument family.

Each constructor dials (or reuses, via the session registry) the data
server on the family's default port, connects the serial, and checks that
the hardware on the other end really is what the caller asked for.  The
constructors themselves live in devices_gen.go, written by cmd/zigen from
families.yml; this file holds the hand-written machinery they share.
*/
package devices

import (
	"fmt"
	"strings"
)

// Standard data server ports.  HF2-generation hardware is served by a
// separate process on its own port.
const (
	DefaultPort = 8004
	HF2Port     = 8005
)

// Family describes one instrument family
type Family struct {
	Name        string
	Description string
	Models      []string
	HF2         bool
}

// Port returns the data server port serving this family
func (f Family) Port() int {
	if f.HF2 {
		return HF2Port
	}
	return DefaultPort
}

// Matches reports whether a device type reported by the server belongs to
// this family
func (f Family) Matches(devtype string) bool {
	devtype = strings.ToUpper(devtype)
	for _, m := range f.Models {
		if devtype == m {
			return true
		}
	}
	return strings.HasPrefix(devtype, f.Name)
}

// FamilyByName looks a family up by its (case-insensitive) name
func FamilyByName(name string) (Family, error) {
	name = strings.ToUpper(name)
	for _, f := range Families {
		if f.Name == name {
			return f, nil
		}
	}
	return Family{}, fmt.Errorf("unknown instrument family %q", name)
}

// PortFor returns the default data server port for a family name, falling
// back to the standard port for names it does not know
func PortFor(name string) int {
	f, err := FamilyByName(name)
	if err != nil {
		return DefaultPort
	}
	return f.Port()
}
