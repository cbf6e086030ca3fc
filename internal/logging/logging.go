// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

// New returns a logger writing to w at the named level. Timestamps are
// reported, and caller locations are added at debug level.
func New(level string, w io.Writer) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          "r3",
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		ReportCaller:    lvl <= log.DebugLevel,
	})
	if f, ok := w.(*os.File); ok && !term.IsTerminal(int(f.Fd())) {
		// Under a display manager stderr usually lands in a session log.
		logger.SetFormatter(log.LogfmtFormatter)
	}
	return logger, nil
}
