package audit

import "strings"

// Entry is a single line of the official record. Rejected marks lines produced by a command that failed validation.
type Entry struct {
	// Seq is the 1-based position of the entry in the record
	Seq      int
	Line     string
	Rejected bool
}

// Sink receives the audit trail as it is written. Record is called once per appended entry, in order. Replay is
// called by Log.Dump with a copy of the whole record.
type Sink interface {
	Record(entry Entry)
	Replay(entries []Entry)
}

// Log is the append-only official record of an election. It is owned by a single goroutine and does no locking.
type Log struct {
	entries []Entry
	sink    Sink
}

// NewLog creates an empty record mirrored to sink. A nil sink discards the mirror.
func NewLog(sink Sink) *Log {
	if sink == nil {
		sink = Discard
	}
	return &Log{
		entries: make([]Entry, 0, 64),
		sink:    sink,
	}
}

// Append records an accepted action
func (l *Log) Append(line string) {
	l.append(line, false)
}

// Reject records the message of a failed command
func (l *Log) Reject(line string) {
	l.append(line, true)
}

func (l *Log) append(line string, rejected bool) {
	entry := Entry{
		Seq:      len(l.entries) + 1,
		Line:     line,
		Rejected: rejected,
	}
	l.entries = append(l.entries, entry)
	l.sink.Record(entry)
}

// Entries returns a copy of the record
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Lines returns the text of every entry in order
func (l *Log) Lines() []string {
	out := make([]string, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Line
	}
	return out
}

// Len returns the number of entries recorded so far
func (l *Log) Len() int {
	return len(l.entries)
}

// Dump hands the whole record to the sink for a framed replay. It does not add an entry.
func (l *Log) Dump() {
	l.sink.Replay(l.Entries())
}

// String renders the record as newline-terminated lines
func (l *Log) String() string {
	return Render(l.entries)
}

// Render joins entries into newline-terminated text
func Render(entries []Entry) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.Line)
		b.WriteByte('\n')
	}
	return b.String()
}
