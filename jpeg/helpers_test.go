package jpeg

import (
	"encoding/binary"
	"encoding/hex"
	"strings"
	"testing"
)

// fromHex decodes a hex string, ignoring whitespace.
func fromHex(t *testing.T, input string) []byte {
	t.Helper()
	output, err := hex.DecodeString(strings.Join(strings.Fields(input), ""))
	if err != nil {
		t.Fatalf("Could not decode hex %q: %v", input, err)
	}
	return output
}

// segmentBytes encodes a length-prefixed segment.
func segmentBytes(marker Marker, body ...byte) []byte {
	output := make([]byte, 4, 4+len(body))
	binary.BigEndian.PutUint16(output[0:2], uint16(marker))
	binary.BigEndian.PutUint16(output[2:4], uint16(len(body)+2))
	return append(output, body...)
}

// markerBytes encodes a bare marker.
func markerBytes(marker Marker) []byte {
	output := make([]byte, 2)
	binary.BigEndian.PutUint16(output, uint16(marker))
	return output
}

// join concatenates byte slices.
func join(parts ...[]byte) []byte {
	var output []byte
	for _, part := range parts {
		output = append(output, part...)
	}
	return output
}
