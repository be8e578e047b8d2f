package audit

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

const (
	dumpStartBanner = "----------------Start of Dump-------------------"
	dumpEndBanner   = "---------------End of Dump------------------------"
)

// Discard is a Sink that drops everything
var Discard Sink = discardSink{}

type discardSink struct{}

func (discardSink) Record(Entry)   {}
func (discardSink) Replay([]Entry) {}

// ConsoleSink mirrors the record to a terminal. Rejected lines are printed in red and the dump frame in cyan.
type ConsoleSink struct {
	out      io.Writer
	accepted *color.Color
	rejected *color.Color
	banner   *color.Color
}

// NewConsoleSink writes to out, typically color.Output. When colored is false every line is written plain.
func NewConsoleSink(out io.Writer, colored bool) *ConsoleSink {
	s := &ConsoleSink{
		out:      out,
		accepted: color.New(color.Reset),
		rejected: color.New(color.FgRed),
		banner:   color.New(color.FgCyan, color.Bold),
	}
	if !colored {
		s.accepted.DisableColor()
		s.rejected.DisableColor()
		s.banner.DisableColor()
	}
	return s
}

func (s *ConsoleSink) Record(entry Entry) {
	if entry.Rejected {
		s.rejected.Fprintln(s.out, entry.Line)
		return
	}
	s.accepted.Fprintln(s.out, entry.Line)
}

// Replay prints the record between the start and end banners, preceded by two blank lines
func (s *ConsoleSink) Replay(entries []Entry) {
	fmt.Fprint(s.out, "\n\n")
	s.banner.Fprintln(s.out, dumpStartBanner)
	fmt.Fprintln(s.out, Render(entries))
	s.banner.Fprintln(s.out, dumpEndBanner)
}
