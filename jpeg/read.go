package jpeg

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// ReadImage reads exactly one JPEG image from the reader and returns its bytes.
//
// Reading stops right after the End-of-Image marker, so calling this
// repeatedly on the same reader returns consecutive images from a
// concatenated stream.  If the reader is empty, io.EOF is returned.
func ReadImage(reader *bufio.Reader) ([]byte, error) {
	var result []byte

	readByte := func() (byte, error) {
		b, err := reader.ReadByte()
		if err == io.EOF {
			return 0, fmt.Errorf("could not read byte %d: %w", len(result), ErrTruncated)
		}
		if err != nil {
			return 0, err
		}
		result = append(result, b)
		return b, nil
	}
	readFull := func(count int) ([]byte, error) {
		buffer := make([]byte, count)
		_, err := io.ReadFull(reader, buffer)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("could not read %d bytes at offset %d: %w", count, len(result), ErrTruncated)
		}
		if err != nil {
			return nil, err
		}
		result = append(result, buffer...)
		return buffer, nil
	}

	if _, err := reader.Peek(1); err == io.EOF {
		return nil, io.EOF
	}

	for {
		b, err := readByte()
		if err != nil {
			return nil, err
		}
		if b != 0xff {
			return nil, fmt.Errorf("expected 0xff at offset %d; got 0x%02x", len(result)-1, b)
		}

		// Skip any fill bytes.
		for b == 0xff {
			b, err = readByte()
			if err != nil {
				return nil, err
			}
		}
		if b == 0x00 {
			// A stuffed 0xff; not a marker.
			logger.Debugf("Skipping a stuffed 0xff at offset %d", len(result)-2)
			continue
		}
		marker := Marker(0xff00 | uint16(b))
		logger.Debugf("Marker at offset %d: %s", len(result)-2, marker)

		switch {
		case marker == MarkerEOI:
			return result, nil
		case marker == MarkerSOI, marker.IsRestart():
			// No payload.
		default:
			buffer, err := readFull(2)
			if err != nil {
				return nil, err
			}
			length := int(binary.BigEndian.Uint16(buffer))
			if length < 2 {
				return nil, fmt.Errorf("%s at offset %d declares length %d: %w", marker, len(result)-4, length, ErrInvalidLength)
			}
			_, err = readFull(length - 2)
			if err != nil {
				return nil, err
			}
		}

		if marker == MarkerSOS {
			// The scan data has no length; read until "FF D9".
			lastWasFF := false
			for {
				b, err := readByte()
				if err != nil {
					return nil, err
				}
				if lastWasFF && b == 0xd9 {
					return result, nil
				}
				lastWasFF = b == 0xff
			}
		}
	}
}
