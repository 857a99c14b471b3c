package jpeg

import (
	"encoding/binary"
	"fmt"
)

// Walk walks the marker segments of an entire JPEG file held in buffer.
//
// The walk stops at the End-of-Image marker (Completed) or at the
// Start-of-Scan marker (ScanExtracted).  Every segment other than SOI, EOI,
// and SOS is treated as a generic length-prefixed segment, whether or not the
// marker is known.
//
// The buffer is never modified, and the outcome only holds views into it.
func Walk(buffer []byte) (*Outcome, error) {
	outcome := &Outcome{
		buffer: buffer,
	}

	cursor := 0
	for {
		if len(buffer)-cursor < 2 {
			return nil, fmt.Errorf("could not read the marker at offset %d: %w", cursor, ErrTruncated)
		}
		marker := Marker(binary.BigEndian.Uint16(buffer[cursor : cursor+2]))
		logger.Debugf("Marker at offset %d: %s", cursor, marker)

		switch marker {
		case MarkerSOI:
			// No length; no body.
			outcome.Segments = append(outcome.Segments, Segment{Marker: marker, Offset: cursor})
			cursor += 2
		case MarkerEOI:
			outcome.Segments = append(outcome.Segments, Segment{Marker: marker, Offset: cursor})
			outcome.Kind = Completed
			return outcome, nil
		case MarkerSOS:
			// The entropy-coded data has no length; it runs up to the final
			// 2 bytes of the file, which are reserved for the End-of-Image marker.
			start := cursor + 2
			end := len(buffer) - 2
			if start > end {
				return nil, fmt.Errorf("could not read the scan payload at offset %d: %w", start, ErrTruncated)
			}
			outcome.Segments = append(outcome.Segments, scanSegment(buffer, cursor))
			outcome.Kind = ScanExtracted
			outcome.Payload = buffer[start:end]
			outcome.PayloadOffset = start
			logger.Debugf("Scan payload: %d bytes at offset %d", len(outcome.Payload), start)
			return outcome, nil
		default:
			if len(buffer)-cursor < 4 {
				return nil, fmt.Errorf("could not read the length of %s at offset %d: %w", marker, cursor, ErrTruncated)
			}
			length := int(binary.BigEndian.Uint16(buffer[cursor+2 : cursor+4]))
			if length < 2 {
				return nil, fmt.Errorf("%s at offset %d declares length %d: %w", marker, cursor, length, ErrInvalidLength)
			}
			next := cursor + 2 + length
			if next > len(buffer) {
				return nil, fmt.Errorf("%s at offset %d declares length %d, but only %d bytes remain: %w", marker, cursor, length, len(buffer)-cursor-2, ErrTruncated)
			}
			logger.Debugf("Length: %d", length)
			outcome.Segments = append(outcome.Segments, Segment{
				Marker: marker,
				Offset: cursor,
				Length: length,
				Data:   buffer[cursor+4 : next],
			})
			cursor = next
		}

		if cursor >= len(buffer) {
			// A well-formed file ends with End-of-Image before this happens.
			logger.Debugf("Reached the end of the buffer without an End-of-Image marker")
			outcome.Kind = Completed
			return outcome, nil
		}
	}
}

// scanSegment describes the Start-of-Scan segment at the given offset.
//
// The header is recorded only when its length field is readable and the
// header fits before the trailing End-of-Image marker; the walk itself does
// not depend on it.
func scanSegment(buffer []byte, offset int) Segment {
	segment := Segment{Marker: MarkerSOS, Offset: offset}
	if len(buffer)-offset < 4 {
		return segment
	}
	length := int(binary.BigEndian.Uint16(buffer[offset+2 : offset+4]))
	if length < 2 || offset+2+length > len(buffer)-2 {
		logger.Debugf("Start of Scan header length %d does not fit; not recording it", length)
		return segment
	}
	segment.Length = length
	segment.Data = buffer[offset+4 : offset+2+length]
	return segment
}
