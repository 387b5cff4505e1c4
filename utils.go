package synchrophasor

import (
	"encoding/binary"
	"io"
	"strings"
)

const _padLength = 16

// padString pads or truncates s to the fixed 16-byte ASCII field width used
// for station names and channel names.
func padString(s string) string {
	if len(s) >= _padLength {
		return s[:_padLength]
	}
	return s + strings.Repeat(" ", _padLength-len(s))
}

// trimField right-trims ASCII spaces from a fixed-width field, preserving
// internal spaces (e.g. "BREAKER 1 STATUS").
func trimField(b []byte) string {
	return strings.TrimRight(string(b), " ")
}

// writeBinary writes multiple values to a writer using binary.BigEndian.
func writeBinary(w io.Writer, values ...interface{}) error {
	for _, v := range values {
		if err := binary.Write(w, binary.BigEndian, v); err != nil {
			return err
		}
	}
	return nil
}

// readBinary reads multiple values from a reader using binary.BigEndian.
func readBinary(r io.Reader, values ...interface{}) error {
	for _, v := range values {
		if err := binary.Read(r, binary.BigEndian, v); err != nil {
			return err
		}
	}
	return nil
}
