package jpeg

import "fmt"

// Marker is a 2-byte big-endian code identifying a JPEG segment type.
type Marker uint16

// Marker constants.
const (
	MarkerSOF0 Marker = 0xFFC0 // Baseline DCT
	MarkerSOF1 Marker = 0xFFC1 // Extended sequential DCT
	MarkerSOF2 Marker = 0xFFC2 // Progressive DCT
	MarkerDHT  Marker = 0xFFC4
	MarkerRST0 Marker = 0xFFD0 // RSTn = RST0+n, n = 0-7
	MarkerRST7 Marker = 0xFFD7
	MarkerSOI  Marker = 0xFFD8
	MarkerEOI  Marker = 0xFFD9
	MarkerSOS  Marker = 0xFFDA
	MarkerDQT  Marker = 0xFFDB
	MarkerDRI  Marker = 0xFFDD
	MarkerAPP0 Marker = 0xFFE0
	MarkerAPP1 Marker = 0xFFE1
	MarkerCOM  Marker = 0xFFFE
)

var markerNames = map[Marker]string{
	MarkerSOI:  "Start of Image",
	MarkerAPP0: "Application Default Header",
	MarkerDQT:  "Quantization Table",
	MarkerSOF0: "Start of Frame",
	MarkerDHT:  "Define Huffman Table",
	MarkerSOS:  "Start of Scan",
	MarkerEOI:  "End of Image",
}

// MarkerName returns the human-readable name of a marker.
// The second return value is false if the marker is not in the table.
func MarkerName(m Marker) (string, bool) {
	name, ok := markerNames[m]
	return name, ok
}

// String returns the name of the marker, or "Unknown (0xffxx)".
func (m Marker) String() string {
	if name, ok := markerNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Unknown (0x%04x)", uint16(m))
}

// IsRestart returns true for the RST0 through RST7 markers.
func (m Marker) IsRestart() bool {
	return m >= MarkerRST0 && m <= MarkerRST7
}
