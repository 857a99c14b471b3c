package jpeg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/hashicorp/go-version"
)

// JFIF is the content of a JFIF APP0 segment.
type JFIF struct {
	Version         *version.Version
	Units           uint8 // 0: no units (aspect ratio only), 1: dots per inch, 2: dots per cm.
	XDensity        uint16
	YDensity        uint16
	ThumbnailWidth  uint8
	ThumbnailHeight uint8
}

var (
	jfifIdentifier = []byte("JFIF\x00")
	jfxxIdentifier = []byte("JFXX\x00")
)

// JFIF extension segments were introduced in JFIF 1.02.
var jfifExtensionVersion = version.Must(version.NewVersion("1.02"))

// ParseHeader interprets the table and parameter segments isolated by Walk.
//
// Only segments that precede the scan are available; segments that are not
// understood are skipped.
func ParseHeader(outcome *Outcome) (*Header, error) {
	header := &Header{}

	for i, segment := range outcome.Segments {
		var err error
		switch segment.Marker {
		case MarkerAPP0:
			err = parseAPP0(header, segment.Data)
		case MarkerSOF0, MarkerSOF1, MarkerSOF2:
			if header.Frame != nil {
				logger.Warnf("Segment %d: %s: replacing an earlier frame header", i, segment.Marker)
			}
			header.Frame, err = parseFrame(segment.Marker, segment.Data)
		case MarkerDQT:
			var tables []QuantizationTable
			tables, err = parseQuantizationTables(segment.Data)
			header.QuantizationTables = append(header.QuantizationTables, tables...)
		case MarkerDHT:
			var tables []HuffmanTable
			tables, err = parseHuffmanTables(segment.Data)
			header.HuffmanTables = append(header.HuffmanTables, tables...)
		case MarkerDRI:
			if len(segment.Data) < 2 {
				err = fmt.Errorf("restart interval: %w", ErrTruncated)
				break
			}
			header.RestartInterval = binary.BigEndian.Uint16(segment.Data)
		case MarkerSOS:
			if segment.Length == 0 {
				logger.Debugf("Segment %d: no scan header was recorded", i)
				break
			}
			header.Scan, err = parseScanHeader(segment.Data)
		case MarkerCOM:
			header.Comments = append(header.Comments, strings.TrimRight(string(segment.Data), "\x00"))
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("could not parse segment %d (%s at offset %d): %w", i, segment.Marker, segment.Offset, err)
		}
	}

	if header.JFIF != nil && header.ExtensionCount > 0 && header.JFIF.Version.LessThan(jfifExtensionVersion) {
		logger.Warnf("Found %d JFIF extension segment(s), but the JFIF version is %s", header.ExtensionCount, header.JFIF.Version.Original())
	}

	return header, nil
}

func parseAPP0(header *Header, data []byte) error {
	switch {
	case bytes.HasPrefix(data, jfifIdentifier):
		data = data[len(jfifIdentifier):]
		if len(data) < 9 {
			return fmt.Errorf("JFIF header: %w", ErrTruncated)
		}
		fileVersion, err := version.NewVersion(fmt.Sprintf("%d.%02d", data[0], data[1]))
		if err != nil {
			return fmt.Errorf("could not parse the JFIF version: %v", err)
		}
		logger.Debugf("JFIF version: %s", fileVersion.Original())
		header.JFIF = &JFIF{
			Version:         fileVersion,
			Units:           data[2],
			XDensity:        binary.BigEndian.Uint16(data[3:5]),
			YDensity:        binary.BigEndian.Uint16(data[5:7]),
			ThumbnailWidth:  data[7],
			ThumbnailHeight: data[8],
		}
	case bytes.HasPrefix(data, jfxxIdentifier):
		header.ExtensionCount++
	default:
		logger.Debugf("Unrecognized APP0 segment (%d bytes)", len(data))
	}
	return nil
}

func parseFrame(marker Marker, data []byte) (*Frame, error) {
	if len(data) < 6 {
		return nil, fmt.Errorf("frame header: %w", ErrTruncated)
	}
	frame := &Frame{
		Marker:    marker,
		Precision: data[0],
		Height:    binary.BigEndian.Uint16(data[1:3]),
		Width:     binary.BigEndian.Uint16(data[3:5]),
	}
	count := int(data[5])
	data = data[6:]
	if len(data) < count*3 {
		return nil, fmt.Errorf("frame has %d components, but only %d bytes remain: %w", count, len(data), ErrTruncated)
	}
	for c := 0; c < count; c++ {
		component := FrameComponent{
			ID:                  data[c*3],
			Horizontal:          data[c*3+1] >> 4,
			Vertical:            data[c*3+1] & 0x0f,
			QuantizationTableID: data[c*3+2],
		}
		if component.QuantizationTableID > 3 {
			return nil, fmt.Errorf("component %d uses quantization table %d: %w", component.ID, component.QuantizationTableID, ErrInvalidSegment)
		}
		logger.Debugf("Component %d: sampling %dx%d, quantization table %d", component.ID, component.Horizontal, component.Vertical, component.QuantizationTableID)
		frame.Components = append(frame.Components, component)
	}
	return frame, nil
}

func parseQuantizationTables(data []byte) ([]QuantizationTable, error) {
	var tables []QuantizationTable
	for len(data) > 0 {
		precision := data[0] >> 4
		table := QuantizationTable{
			ID:        data[0] & 0x0f,
			Precision: 8,
		}
		if precision > 1 {
			return nil, fmt.Errorf("quantization table %d has precision %d: %w", table.ID, precision, ErrInvalidSegment)
		}
		if table.ID > 3 {
			return nil, fmt.Errorf("quantization table id %d: %w", table.ID, ErrInvalidSegment)
		}
		data = data[1:]

		size := 64
		if precision == 1 {
			table.Precision = 16
			size = 128
		}
		if len(data) < size {
			return nil, fmt.Errorf("quantization table %d needs %d bytes, but only %d remain: %w", table.ID, size, len(data), ErrTruncated)
		}
		for i := range table.Values {
			if precision == 1 {
				table.Values[i] = binary.BigEndian.Uint16(data[i*2:])
			} else {
				table.Values[i] = uint16(data[i])
			}
		}
		data = data[size:]

		logger.Debugf("Quantization table %d: %d-bit", table.ID, table.Precision)
		tables = append(tables, table)
	}
	return tables, nil
}

func parseHuffmanTables(data []byte) ([]HuffmanTable, error) {
	var tables []HuffmanTable
	for len(data) > 0 {
		if len(data) < 17 {
			return nil, fmt.Errorf("huffman table header: %w", ErrTruncated)
		}
		table := HuffmanTable{
			Class: data[0] >> 4,
			ID:    data[0] & 0x0f,
		}
		if table.Class > HuffmanClassAC {
			return nil, fmt.Errorf("huffman table class %d: %w", table.Class, ErrInvalidSegment)
		}
		if table.ID > 3 {
			return nil, fmt.Errorf("huffman table id %d: %w", table.ID, ErrInvalidSegment)
		}
		copy(table.Counts[:], data[1:17])
		data = data[17:]

		total := 0
		for _, count := range table.Counts {
			total += int(count)
		}
		if len(data) < total {
			return nil, fmt.Errorf("huffman table %d/%d has %d symbols, but only %d bytes remain: %w", table.Class, table.ID, total, len(data), ErrTruncated)
		}
		table.Symbols = data[:total]
		data = data[total:]

		logger.Debugf("Huffman table: class %d, id %d, %d symbols", table.Class, table.ID, total)
		tables = append(tables, table)
	}
	return tables, nil
}

func parseScanHeader(data []byte) (*ScanHeader, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("scan header: %w", ErrTruncated)
	}
	count := int(data[0])
	data = data[1:]
	if len(data) < count*2+3 {
		return nil, fmt.Errorf("scan has %d components, but only %d bytes remain: %w", count, len(data), ErrTruncated)
	}
	scan := &ScanHeader{}
	for c := 0; c < count; c++ {
		scan.Components = append(scan.Components, ScanComponent{
			Selector: data[c*2],
			DCTable:  data[c*2+1] >> 4,
			ACTable:  data[c*2+1] & 0x0f,
		})
	}
	data = data[count*2:]
	scan.SpectralStart = data[0]
	scan.SpectralEnd = data[1]
	scan.ApproxHigh = data[2] >> 4
	scan.ApproxLow = data[2] & 0x0f
	return scan, nil
}

// Codes returns the canonical Huffman codes of the table, ordered by length
// and then by code.
func (t *HuffmanTable) Codes() []HuffmanCode {
	var codes []HuffmanCode
	code := uint16(0)
	symbol := 0
	for length := 1; length <= 16; length++ {
		for i := 0; i < int(t.Counts[length-1]); i++ {
			if symbol >= len(t.Symbols) {
				return codes
			}
			codes = append(codes, HuffmanCode{
				Length: length,
				Code:   code,
				Symbol: t.Symbols[symbol],
			})
			code++
			symbol++
		}
		code <<= 1
	}
	return codes
}

// String returns the code as a zero-padded binary string.
func (c HuffmanCode) String() string {
	return fmt.Sprintf("%0*b", c.Length, c.Code)
}
