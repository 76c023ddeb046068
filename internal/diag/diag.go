// Package diag carries non-fatal warnings from the nesting core to whoever is
// listening. Sinks never fail and never block the caller.
package diag

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"fortio.org/safecast"
)

// Code identifies the kind of warning.
type Code string

const (
	// CodeSubproperty is reported when a dotted name has no parent.
	CodeSubproperty Code = "subproperty"
	// CodeMalformedHead is reported (opt-in) when the first record of a list is
	// itself dotted and the rest of the list is discarded.
	CodeMalformedHead Code = "malformed_head"
)

// Warning is a single diagnostic event.
type Warning struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	File    string `json:"file"`
	Line    uint32 `json:"line"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s:%d: warning[%s]: %s", w.File, w.Line, w.Code, w.Message)
}

// NewWarning builds a Warning. Lines that do not fit (negative) are recorded as 0.
func NewWarning(code Code, msg, file string, line int) Warning {
	ln, err := safecast.Conv[uint32](line)
	if err != nil {
		ln = 0
	}
	return Warning{Code: code, Message: msg, File: file, Line: ln}
}

// Sink receives warnings.
type Sink interface {
	Warn(w Warning)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(w Warning)

func (f SinkFunc) Warn(w Warning) {
	if f != nil {
		f(w)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Warn(Warning) {}

// Bag collects warnings up to a limit. Safe for concurrent use.
type Bag struct {
	mu      sync.Mutex
	items   []Warning
	max     int
	dropped int
}

// NewBag returns a Bag holding at most max warnings (max <= 0 means no limit).
func NewBag(max int) *Bag {
	return &Bag{max: max}
}

func (b *Bag) Warn(w Warning) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.max > 0 && len(b.items) >= b.max {
		b.dropped++
		return
	}
	b.items = append(b.items, w)
}

// Len returns the number of collected warnings.
func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Dropped returns how many warnings were rejected because of the limit.
func (b *Bag) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Items returns a copy of the collected warnings.
func (b *Bag) Items() []Warning {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Warning, len(b.items))
	copy(out, b.items)
	return out
}

// Sort orders warnings by file, then line, then code. Stable.
func (b *Bag) Sort() {
	b.mu.Lock()
	defer b.mu.Unlock()
	sort.SliceStable(b.items, func(i, j int) bool {
		wi, wj := b.items[i], b.items[j]
		if wi.File != wj.File {
			return wi.File < wj.File
		}
		if wi.Line != wj.Line {
			return wi.Line < wj.Line
		}
		return wi.Code < wj.Code
	})
}

// SlogSink forwards warnings to a structured logger.
type SlogSink struct {
	Log *slog.Logger
}

func (s SlogSink) Warn(w Warning) {
	if s.Log == nil {
		return
	}
	s.Log.Warn(w.Message, "code", string(w.Code), "file", w.File, "line", w.Line)
}

// Multi fans a warning out to every sink in order.
type Multi []Sink

func (m Multi) Warn(w Warning) {
	for _, s := range m {
		if s != nil {
			s.Warn(w)
		}
	}
}
