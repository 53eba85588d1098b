package store

import (
	"fmt"
	"strings"

	"homeclimate-go/errcode"
)

// MaxLocationLen bounds a location name in bytes.
const MaxLocationLen = 64

// Location names one reporting sensor. It is also the base name of the
// sensor's CSV file, so only names that map to a plain file name inside
// the log directory are accepted.
type Location string

// ParseLocation accepts ASCII letters, digits, '_', '-', and interior '.'
// or ' '. Names are never rewritten: anything else is rejected.
func ParseLocation(s string) (Location, error) {
	if s == "" || len(s) > MaxLocationLen {
		return "", errcode.New(errcode.InvalidLocation, "location", fmt.Sprintf("length must be 1..%d", MaxLocationLen))
	}
	if s[0] == '.' || s[0] == ' ' || s[len(s)-1] == '.' || s[len(s)-1] == ' ' {
		return "", errcode.New(errcode.InvalidLocation, "location", "leading or trailing '.' or space")
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == '-', c == '.', c == ' ':
		default:
			return "", errcode.New(errcode.InvalidLocation, "location", fmt.Sprintf("character %q not allowed", c))
		}
	}
	return Location(s), nil
}

func (l Location) String() string { return string(l) }

// FileName is the CSV log name for l.
func (l Location) FileName() string { return string(l) + ".csv" }

// locationFromFile reverses FileName for names found in the log directory.
func locationFromFile(name string) (Location, bool) {
	base, ok := strings.CutSuffix(name, ".csv")
	if !ok {
		return "", false
	}
	loc, err := ParseLocation(base)
	return loc, err == nil
}
