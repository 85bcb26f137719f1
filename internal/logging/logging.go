// Package logging builds the process logger. Everything else receives it
// through a Dependencies struct.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"
)

// New returns a logger writing to w at the named level. Unknown levels fall
// back to info. In prod the output is logfmt without colours so log
// shippers can parse it.
func New(w io.Writer, level, env string) *clog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := clog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "kinetic",
	}
	if strings.EqualFold(env, "prod") {
		opts.Formatter = clog.LogfmtFormatter
	}
	l := clog.NewWithOptions(w, opts)
	l.SetLevel(ParseLevel(level))
	return l
}

// ParseLevel maps a config string to a level, defaulting to info.
func ParseLevel(level string) clog.Level {
	lvl, err := clog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return clog.InfoLevel
	}
	return lvl
}

// Discard is a logger that drops everything.
func Discard() *clog.Logger {
	return clog.New(io.Discard)
}
