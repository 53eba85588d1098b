// Package transport delivers samples from the reporter to a collector,
// either as an HTTP GET with the values in the path or as a text frame
// on a serial line.
package transport

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"homeclimate-go/errcode"
	"homeclimate-go/x/logx"
)

var log = logx.New("transport")

// Decimals caps the fractional digits written for a value.
const Decimals = 3

// FormatValue writes v with at most Decimals fractional digits and no
// trailing zeros ("22", "45.5", "-3.125"). NaN and ±Inf are rejected.
func FormatValue(v float32) (string, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", errcode.New(errcode.InvalidReading, "format", strconv.FormatFloat(f, 'g', -1, 32))
	}
	s := strconv.FormatFloat(f, 'f', Decimals, 32)
	if strings.IndexByte(s, '.') >= 0 {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s, nil
}

// ReadingPath builds "/reading/{location}/{celsius}/{humidity}". The
// result is rejected when longer than maxLen (0 disables the check).
func ReadingPath(location string, celsius, humidity float32, maxLen int) (string, error) {
	if location == "" {
		return "", errcode.New(errcode.InvalidLocation, "path", "empty location")
	}
	t, err := FormatValue(celsius)
	if err != nil {
		return "", err
	}
	h, err := FormatValue(humidity)
	if err != nil {
		return "", err
	}
	p := "/reading/" + url.PathEscape(location) + "/" + t + "/" + h
	if maxLen > 0 && len(p) > maxLen {
		return "", errcode.New(errcode.RequestTooLong, "path", strconv.Itoa(len(p))+" > "+strconv.Itoa(maxLen))
	}
	return p, nil
}
