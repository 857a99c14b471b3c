package jpeg

import "errors"

// Errors returned by the walker and the header parser.
var (
	// ErrTruncated means that the buffer ended in the middle of a marker, a
	// length field, or a declared segment body.
	ErrTruncated = errors.New("truncated")
	// ErrInvalidLength means that a segment declared a length that would not
	// move past its own length field.
	ErrInvalidLength = errors.New("invalid segment length")
	// ErrInvalidSegment means that a segment body holds a value that is out of range.
	ErrInvalidSegment = errors.New("invalid segment")
)

// OutcomeKind describes how a walk ended.
type OutcomeKind int

// These are the outcome kinds.
const (
	Completed OutcomeKind = iota
	ScanExtracted
)

func (k OutcomeKind) String() string {
	switch k {
	case Completed:
		return "Completed"
	case ScanExtracted:
		return "ScanExtracted"
	}
	return "Unknown"
}

// Segment is a marker plus (for most types) a length-prefixed body.
//
// Data is a view into the walked buffer.
type Segment struct {
	Marker Marker
	Offset int    // Position of the marker's first byte.
	Length int    // The declared length field; 0 when the marker carries none.
	Data   []byte // The body, excluding the marker and the length field.
}

// Outcome is the result of a walk.
type Outcome struct {
	Kind     OutcomeKind
	Segments []Segment

	// Payload is the scan payload; it is only set when Kind is ScanExtracted.
	// It starts immediately after the Start-of-Scan marker (so it includes the
	// scan header) and ends before the trailing 2-byte End-of-Image marker.
	Payload       []byte
	PayloadOffset int

	buffer []byte
}

// Segment returns the first segment with the given marker, or nil.
func (o *Outcome) Segment(marker Marker) *Segment {
	for i := range o.Segments {
		if o.Segments[i].Marker == marker {
			return &o.Segments[i]
		}
	}
	return nil
}

// ScanData returns the entropy-coded data that follows the complete
// Start-of-Scan header, ending before the trailing End-of-Image marker.
//
// This differs from Payload in that the scan header (its length field and
// component selectors) is excluded.  It returns nil if the walk did not reach
// a Start-of-Scan segment with a readable header.
func (o *Outcome) ScanData() []byte {
	if o.Kind != ScanExtracted {
		return nil
	}
	sos := o.Segment(MarkerSOS)
	if sos == nil || sos.Length == 0 {
		return nil
	}
	start := sos.Offset + 2 + sos.Length
	end := len(o.buffer) - 2
	if start > end {
		return nil
	}
	return o.buffer[start:end]
}

// Frame is the content of a Start-of-Frame segment.
type Frame struct {
	Marker     Marker
	Precision  uint8
	Height     uint16
	Width      uint16
	Components []FrameComponent
}

// FrameComponent is a single color component of a frame.
type FrameComponent struct {
	ID                  uint8
	Horizontal          uint8 // Horizontal sampling factor.
	Vertical            uint8 // Vertical sampling factor.
	QuantizationTableID uint8
}

// QuantizationTable is a single table from a DQT segment.
//
// Values are in the order in which they were stored (zig-zag).
type QuantizationTable struct {
	ID        uint8
	Precision int // 8 or 16
	Values    [64]uint16
}

// Huffman table classes.
const (
	HuffmanClassDC uint8 = 0
	HuffmanClassAC uint8 = 1
)

// HuffmanTable is a single table from a DHT segment.
type HuffmanTable struct {
	Class   uint8
	ID      uint8
	Counts  [16]uint8 // Counts[i] is the number of codes of length i+1.
	Symbols []uint8
}

// HuffmanCode is a single canonical code.
type HuffmanCode struct {
	Length int
	Code   uint16
	Symbol uint8
}

// ScanHeader is the content of a Start-of-Scan segment header.
type ScanHeader struct {
	Components    []ScanComponent
	SpectralStart uint8
	SpectralEnd   uint8
	ApproxHigh    uint8
	ApproxLow     uint8
}

// ScanComponent selects the Huffman tables for one component of a scan.
type ScanComponent struct {
	Selector uint8
	DCTable  uint8
	ACTable  uint8
}

// Header contains the tables and parameters that precede the scan data.
type Header struct {
	JFIF               *JFIF
	ExtensionCount     int // The number of JFXX APP0 segments.
	Frame              *Frame
	QuantizationTables []QuantizationTable
	HuffmanTables      []HuffmanTable
	RestartInterval    uint16
	Scan               *ScanHeader
	Comments           []string
}

// QuantizationTable returns the last table defined with the given ID, or nil.
func (h *Header) QuantizationTable(id uint8) *QuantizationTable {
	for i := len(h.QuantizationTables) - 1; i >= 0; i-- {
		if h.QuantizationTables[i].ID == id {
			return &h.QuantizationTables[i]
		}
	}
	return nil
}

// HuffmanTable returns the last table defined with the given class and ID, or nil.
func (h *Header) HuffmanTable(class uint8, id uint8) *HuffmanTable {
	for i := len(h.HuffmanTables) - 1; i >= 0; i-- {
		if h.HuffmanTables[i].Class == class && h.HuffmanTables[i].ID == id {
			return &h.HuffmanTables[i]
		}
	}
	return nil
}
