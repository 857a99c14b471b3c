// Package jpeg walks the marker segments of a JPEG file.
//
// Walk isolates the segments of an in-memory file and the entropy-coded scan
// payload; ParseHeader interprets the tables that precede the scan; Unstuff
// removes byte stuffing from scan data; and ReadImage pulls a single image out
// of a stream.  Nothing here decodes pixels.
package jpeg

import (
	"io"

	"github.com/sirupsen/logrus"
)

// logger reports each visited marker at debug level.
var logger = logrus.New()

// SetLogLevel sets the log level for this package.
func SetLogLevel(level logrus.Level) {
	logger.SetLevel(level)
}

// SetLogOutput sets the destination of this package's log messages.
func SetLogOutput(out io.Writer) {
	logger.SetOutput(out)
}
