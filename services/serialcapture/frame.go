package serialcapture

import (
	"bytes"
	"strconv"
	"unicode/utf8"
)

// Values is what one buffer yielded. A field is only meaningful when its
// Has flag is set; frames may carry just one of the two markers.
type Values struct {
	Temp, Humid       float64
	HasTemp, HasHumid bool
}

// ScanFrame looks for "T:<v>:" and "H:<v>:" in buf. The first occurrence
// of each marker wins. Non-UTF-8 input and values that do not parse are
// ignored.
func ScanFrame(buf []byte) Values {
	var v Values
	if !utf8.Valid(buf) {
		return v
	}
	v.Temp, v.HasTemp = field(buf, "T:")
	v.Humid, v.HasHumid = field(buf, "H:")
	return v
}

func field(buf []byte, marker string) (float64, bool) {
	i := bytes.Index(buf, []byte(marker))
	if i < 0 {
		return 0, false
	}
	rest := buf[i+len(marker):]
	end := bytes.IndexByte(rest, ':')
	if end < 0 {
		return 0, false
	}
	f, err := strconv.ParseFloat(string(bytes.TrimSpace(rest[:end])), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
