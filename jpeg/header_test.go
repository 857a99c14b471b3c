package jpeg

import (
	"errors"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/hashicorp/go-version"
)

// The standard luminance DC table from Annex K of the JPEG standard.
var luminanceDCCounts = []byte{0, 1, 5, 1, 1, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0}
var luminanceDCSymbols = []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}

func sampleImage(t *testing.T) []byte {
	t.Helper()

	quantization := []byte{0x00} // 8-bit, id 0
	for i := 0; i < 64; i++ {
		quantization = append(quantization, byte(i+1))
	}
	quantization = append(quantization, 0x11) // 16-bit, id 1
	for i := 0; i < 64; i++ {
		quantization = append(quantization, 0x01, byte(i))
	}

	huffman := []byte{0x00} // DC, id 0
	huffman = append(huffman, luminanceDCCounts...)
	huffman = append(huffman, luminanceDCSymbols...)
	huffman = append(huffman, 0x11) // AC, id 1
	huffman = append(huffman, 0, 2, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	huffman = append(huffman, 0x01, 0x02)

	return join(
		markerBytes(MarkerSOI),
		segmentBytes(MarkerAPP0, []byte("JFIF\x00\x01\x01\x01\x00\x48\x00\x48\x00\x00")...),
		segmentBytes(MarkerAPP0, []byte("JFXX\x00\x10")...),
		segmentBytes(MarkerCOM, []byte("hello\x00")...),
		segmentBytes(MarkerDQT, quantization...),
		segmentBytes(MarkerSOF0, fromHex(t, "08 0010 0020 03 012200 021101 031101")...),
		segmentBytes(MarkerDHT, huffman...),
		segmentBytes(MarkerDRI, 0x00, 0x04),
		segmentBytes(MarkerSOS, fromHex(t, "03 0100 0211 0311 00 3F 00")...),
		fromHex(t, "12FF0034FFD056"),
		markerBytes(MarkerEOI),
	)
}

func TestParseHeader(t *testing.T) {
	outcome, err := Walk(sampleImage(t))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if outcome.Kind != ScanExtracted {
		t.Fatalf("Wrong kind: got %s", outcome.Kind)
	}

	header, err := ParseHeader(outcome)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	t.Run("JFIF", func(t *testing.T) {
		if header.JFIF == nil {
			t.Fatalf("Missing JFIF header")
		}
		if header.JFIF.Version.Original() != "1.01" {
			t.Errorf("Wrong version: got %s", header.JFIF.Version.Original())
		}
		if !header.JFIF.Version.Equal(version.Must(version.NewVersion("1.1"))) {
			t.Errorf("Version %s should compare equal to 1.1", header.JFIF.Version)
		}
		if !header.JFIF.Version.LessThan(jfifExtensionVersion) {
			t.Errorf("Version %s should predate %s", header.JFIF.Version, jfifExtensionVersion)
		}
		if header.JFIF.Units != 1 || header.JFIF.XDensity != 72 || header.JFIF.YDensity != 72 {
			t.Errorf("Wrong density: %s", spew.Sdump(header.JFIF))
		}
		if header.ExtensionCount != 1 {
			t.Errorf("Wrong extension count: got %d", header.ExtensionCount)
		}
	})

	t.Run("Frame", func(t *testing.T) {
		frame := header.Frame
		if frame == nil {
			t.Fatalf("Missing frame")
		}
		if frame.Marker != MarkerSOF0 || frame.Precision != 8 || frame.Height != 16 || frame.Width != 32 {
			t.Errorf("Wrong frame: %s", spew.Sdump(frame))
		}
		expected := []FrameComponent{
			{ID: 1, Horizontal: 2, Vertical: 2, QuantizationTableID: 0},
			{ID: 2, Horizontal: 1, Vertical: 1, QuantizationTableID: 1},
			{ID: 3, Horizontal: 1, Vertical: 1, QuantizationTableID: 1},
		}
		if len(frame.Components) != len(expected) {
			t.Fatalf("Wrong component count: got %d", len(frame.Components))
		}
		for i := range expected {
			if frame.Components[i] != expected[i] {
				t.Errorf("Component %d: got %+v, expected %+v", i, frame.Components[i], expected[i])
			}
		}
	})

	t.Run("QuantizationTables", func(t *testing.T) {
		if len(header.QuantizationTables) != 2 {
			t.Fatalf("Wrong table count: got %d", len(header.QuantizationTables))
		}
		table := header.QuantizationTable(0)
		if table == nil || table.Precision != 8 || table.Values[0] != 1 || table.Values[63] != 64 {
			t.Errorf("Wrong table 0: %s", spew.Sdump(table))
		}
		table = header.QuantizationTable(1)
		if table == nil || table.Precision != 16 || table.Values[0] != 0x0100 || table.Values[63] != 0x013f {
			t.Errorf("Wrong table 1: %s", spew.Sdump(table))
		}
		if header.QuantizationTable(2) != nil {
			t.Errorf("Unexpected table 2")
		}
	})

	t.Run("HuffmanTables", func(t *testing.T) {
		if len(header.HuffmanTables) != 2 {
			t.Fatalf("Wrong table count: got %d", len(header.HuffmanTables))
		}
		dc := header.HuffmanTable(HuffmanClassDC, 0)
		if dc == nil || len(dc.Symbols) != 12 {
			t.Fatalf("Wrong DC table: %s", spew.Sdump(dc))
		}
		ac := header.HuffmanTable(HuffmanClassAC, 1)
		if ac == nil || len(ac.Symbols) != 2 || ac.Symbols[1] != 0x02 {
			t.Fatalf("Wrong AC table: %s", spew.Sdump(ac))
		}
		if header.HuffmanTable(HuffmanClassAC, 0) != nil {
			t.Errorf("Unexpected AC table 0")
		}
	})

	t.Run("Other", func(t *testing.T) {
		if header.RestartInterval != 4 {
			t.Errorf("Wrong restart interval: got %d", header.RestartInterval)
		}
		if len(header.Comments) != 1 || header.Comments[0] != "hello" {
			t.Errorf("Wrong comments: %q", header.Comments)
		}
	})

	t.Run("Scan", func(t *testing.T) {
		scan := header.Scan
		if scan == nil {
			t.Fatalf("Missing scan header")
		}
		if scan.SpectralStart != 0 || scan.SpectralEnd != 63 || scan.ApproxHigh != 0 || scan.ApproxLow != 0 {
			t.Errorf("Wrong scan header: %s", spew.Sdump(scan))
		}
		expected := []ScanComponent{
			{Selector: 1, DCTable: 0, ACTable: 0},
			{Selector: 2, DCTable: 1, ACTable: 1},
			{Selector: 3, DCTable: 1, ACTable: 1},
		}
		if len(scan.Components) != len(expected) {
			t.Fatalf("Wrong component count: got %d", len(scan.Components))
		}
		for i := range expected {
			if scan.Components[i] != expected[i] {
				t.Errorf("Component %d: got %+v, expected %+v", i, scan.Components[i], expected[i])
			}
		}
		if scanData := outcome.ScanData(); string(scanData) != "\x12\xff\x00\x34\xff\xd0\x56" {
			t.Errorf("Wrong scan data: %x", scanData)
		}
	})
}

func TestParseHeaderErrors(t *testing.T) {
	rows := []struct {
		name     string
		segment  []byte
		expected error
	}{
		{name: "short quantization table", segment: segmentBytes(MarkerDQT, 0x00, 0x01, 0x02), expected: ErrTruncated},
		{name: "quantization precision", segment: segmentBytes(MarkerDQT, append([]byte{0x20}, make([]byte, 64)...)...), expected: ErrInvalidSegment},
		{name: "quantization id", segment: segmentBytes(MarkerDQT, append([]byte{0x04}, make([]byte, 64)...)...), expected: ErrInvalidSegment},
		{name: "short huffman header", segment: segmentBytes(MarkerDHT, 0x00, 0x01), expected: ErrTruncated},
		{name: "short huffman symbols", segment: segmentBytes(MarkerDHT, append(append([]byte{0x00}, luminanceDCCounts...), 0x00)...), expected: ErrTruncated},
		{name: "huffman class", segment: segmentBytes(MarkerDHT, append([]byte{0x20}, make([]byte, 16)...)...), expected: ErrInvalidSegment},
		{name: "huffman id", segment: segmentBytes(MarkerDHT, append([]byte{0x05}, make([]byte, 16)...)...), expected: ErrInvalidSegment},
		{name: "short frame", segment: segmentBytes(MarkerSOF0, 0x08, 0x00), expected: ErrTruncated},
		{name: "short frame components", segment: segmentBytes(MarkerSOF2, 0x08, 0x00, 0x10, 0x00, 0x10, 0x02, 0x01, 0x11, 0x00), expected: ErrTruncated},
		{name: "frame quantization id", segment: segmentBytes(MarkerSOF0, 0x08, 0x00, 0x10, 0x00, 0x10, 0x01, 0x01, 0x11, 0x07), expected: ErrInvalidSegment},
		{name: "short restart interval", segment: segmentBytes(MarkerDRI, 0x00), expected: ErrTruncated},
		{name: "short JFIF", segment: segmentBytes(MarkerAPP0, []byte("JFIF\x00\x01\x02")...), expected: ErrTruncated},
	}
	for _, row := range rows {
		t.Run(row.name, func(t *testing.T) {
			outcome, err := Walk(join(markerBytes(MarkerSOI), row.segment, markerBytes(MarkerEOI)))
			if err != nil {
				t.Fatalf("Unexpected walk error: %v", err)
			}
			header, err := ParseHeader(outcome)
			if err == nil {
				t.Fatalf("Expected an error; got header: %s", spew.Sdump(header))
			}
			if !errors.Is(err, row.expected) {
				t.Errorf("Wrong error: got %v, expected %v", err, row.expected)
			}
		})
	}
}

func TestParseHeaderShortScanHeader(t *testing.T) {
	input := join(markerBytes(MarkerSOI), segmentBytes(MarkerSOS, 0x02, 0x01, 0x00), fromHex(t, "AABB"), markerBytes(MarkerEOI))
	outcome, err := Walk(input)
	if err != nil {
		t.Fatalf("Unexpected walk error: %v", err)
	}
	_, err = ParseHeader(outcome)
	if !errors.Is(err, ErrTruncated) {
		t.Errorf("Wrong error: got %v, expected %v", err, ErrTruncated)
	}
}

func TestHuffmanCodes(t *testing.T) {
	table := &HuffmanTable{Symbols: luminanceDCSymbols}
	copy(table.Counts[:], luminanceDCCounts)

	expected := []string{"00", "010", "011", "100", "101", "110", "1110", "11110", "111110", "1111110", "11111110", "111111110"}

	codes := table.Codes()
	if len(codes) != len(expected) {
		t.Fatalf("Wrong code count: got %d, expected %d", len(codes), len(expected))
	}
	for i, code := range codes {
		if code.String() != expected[i] {
			t.Errorf("Code %d: got %s, expected %s", i, code, expected[i])
		}
		if code.Symbol != luminanceDCSymbols[i] {
			t.Errorf("Code %d: got symbol %d, expected %d", i, code.Symbol, luminanceDCSymbols[i])
		}
		if code.Length != len(expected[i]) {
			t.Errorf("Code %d: got length %d, expected %d", i, code.Length, len(expected[i]))
		}
	}
}

func TestHuffmanCodesMissingSymbols(t *testing.T) {
	table := &HuffmanTable{Symbols: []uint8{7}}
	table.Counts[0] = 2

	codes := table.Codes()
	if len(codes) != 1 || codes[0].Symbol != 7 || codes[0].String() != "0" {
		t.Errorf("Wrong codes: %s", spew.Sdump(codes))
	}
}

func TestMarkerNames(t *testing.T) {
	rows := []struct {
		marker Marker
		name   string
		known  bool
	}{
		{MarkerSOI, "Start of Image", true},
		{MarkerAPP0, "Application Default Header", true},
		{MarkerDQT, "Quantization Table", true},
		{MarkerSOF0, "Start of Frame", true},
		{MarkerDHT, "Define Huffman Table", true},
		{MarkerSOS, "Start of Scan", true},
		{MarkerEOI, "End of Image", true},
		{MarkerCOM, "", false},
		{Marker(0x1234), "", false},
	}
	for _, row := range rows {
		name, known := MarkerName(row.marker)
		if name != row.name || known != row.known {
			t.Errorf("Marker 0x%04x: got (%q, %v), expected (%q, %v)", uint16(row.marker), name, known, row.name, row.known)
		}
	}

	if MarkerCOM.String() != "Unknown (0xfffe)" {
		t.Errorf("Wrong string: %s", MarkerCOM)
	}
	if !Marker(0xffd3).IsRestart() || MarkerSOI.IsRestart() {
		t.Errorf("Wrong restart detection")
	}
}
