package console

import (
	"strings"
	"time"
)

// Kind tells the UI how to style a line.
type Kind int

const (
	KindResponse Kind = iota
	KindCommand
	KindInfo
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindInfo:
		return "info"
	case KindError:
		return "error"
	default:
		return "response"
	}
}

// Klipper marks error output with "!!" and informational echoes with "//".
const (
	errorPrefix = "!!"
	infoPrefix  = "//"
)

// Classify returns the kind of a line received from the printer.
func Classify(text string) Kind {
	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(trimmed, errorPrefix):
		return KindError
	case strings.HasPrefix(trimmed, infoPrefix):
		return KindInfo
	default:
		return KindResponse
	}
}

// Line is one console entry.
type Line struct {
	Time time.Time
	Text string
	Kind Kind
}

// Buffer keeps console lines in arrival order. With a positive limit the
// oldest lines are dropped once the limit is reached; a limit of zero keeps
// everything. The zero value is an unbounded buffer.
type Buffer struct {
	limit int
	lines []Line
	start int
	now   func() time.Time
}

// New returns a buffer holding at most limit lines (0 means unbounded).
func New(limit int) *Buffer {
	if limit < 0 {
		limit = 0
	}
	return &Buffer{limit: limit}
}

// Append adds a line with an explicit kind.
func (b *Buffer) Append(text string, kind Kind) {
	line := Line{Time: b.clock(), Text: text, Kind: kind}
	if b.limit == 0 || len(b.lines) < b.limit {
		b.lines = append(b.lines, line)
		return
	}
	b.lines[b.start] = line
	b.start = (b.start + 1) % b.limit
}

// AppendResponse adds printer output, classifying each line of a multi-line
// response separately.
func (b *Buffer) AppendResponse(text string) {
	for _, part := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		b.Append(part, Classify(part))
	}
}

// AppendCommand records a command typed by the user.
func (b *Buffer) AppendCommand(text string) {
	b.Append(text, KindCommand)
}

// AppendError records a failure reported for a user command.
func (b *Buffer) AppendError(text string) {
	if !strings.HasPrefix(text, errorPrefix) {
		text = errorPrefix + " " + text
	}
	b.Append(text, KindError)
}

// Len returns the number of lines held.
func (b *Buffer) Len() int {
	return len(b.lines)
}

// Lines returns every held line, oldest first.
func (b *Buffer) Lines() []Line {
	return b.Tail(len(b.lines))
}

// Tail returns at most n lines from the end, oldest first.
func (b *Buffer) Tail(n int) []Line {
	count := len(b.lines)
	if n <= 0 || count == 0 {
		return nil
	}
	if n > count {
		n = count
	}
	out := make([]Line, n)
	first := count - n
	for i := 0; i < n; i++ {
		out[i] = b.lines[(b.start+first+i)%count]
	}
	return out
}

// Clear drops every line.
func (b *Buffer) Clear() {
	b.lines = nil
	b.start = 0
}

func (b *Buffer) clock() time.Time {
	if b.now != nil {
		return b.now()
	}
	return time.Now()
}
