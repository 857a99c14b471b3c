package hexline

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Print writes the dump of the data to stdout.
func Print(data []byte, byteLimit int, width int) error {
	return Write(os.Stdout, data, byteLimit, width)
}

// Write writes a two-line dump of the data for every `width` bytes.
//
// The first line shows the printable characters (".." for anything else),
// and the second line shows the hex values, so that each byte takes two
// columns on both lines.  A width of 0 puts everything on one pair of lines,
// and a byte limit of 0 dumps all of the data.
func Write(out io.Writer, data []byte, byteLimit int, width int) error {
	if byteLimit > 0 && byteLimit < len(data) {
		log.Debugf("Reached the byte limit of %d; ending early.", byteLimit)
		data = data[:byteLimit]
	}
	if width <= 0 {
		width = len(data)
	}

	for start := 0; start < len(data) || start == 0; start += width {
		end := start + width
		if end > len(data) {
			end = len(data)
		}
		line := data[start:end]

		for row := 0; row < 2; row++ {
			_, err := fmt.Fprintf(out, "0x%06x: ", start)
			if err != nil {
				return err
			}
			for _, currentByte := range line {
				switch row {
				case 0:
					if currentByte < ' ' || currentByte > '~' {
						_, err = io.WriteString(out, "..")
					} else {
						_, err = fmt.Fprintf(out, " %c", currentByte)
					}
				case 1:
					_, err = fmt.Fprintf(out, "%02x", currentByte)
				}
				if err != nil {
					return err
				}
			}
			_, err = io.WriteString(out, "\n")
			if err != nil {
				return err
			}
		}

		if len(data) == 0 {
			break
		}
	}

	return nil
}
