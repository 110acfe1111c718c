// Package progress carries fire-and-forget status events from long-running
// sandbox operations to whoever is displaying them.
//
// Emitting never blocks and never fails: a missing, full or abandoned
// receiver simply loses the event.
package progress

// Kind distinguishes step announcements from raw output lines.
type Kind int

const (
	KindStepStarted Kind = iota
	KindOutput
)

// Source identifies the producer of an event.
type Source string

const (
	SourceHook    Source = "hook"
	SourceCompose Source = "compose"
	SourceSystem  Source = "system"
)

// Event is a single progress notification.
type Event struct {
	Kind   Kind
	Source Source
	// Text is the step label for KindStepStarted and the output line for KindOutput.
	Text string
}

// StepStarted announces the start of a labelled step.
func StepStarted(src Source, label string) Event {
	return Event{Kind: KindStepStarted, Source: src, Text: label}
}

// Output carries one line of command output.
func Output(src Source, line string) Event {
	return Event{Kind: KindOutput, Source: src, Text: line}
}

// Sink receives progress events. Implementations must not block.
type Sink interface {
	Send(Event)
}

// Emit sends ev to sink when sink is non-nil.
func Emit(sink Sink, ev Event) {
	if sink != nil {
		sink.Send(ev)
	}
}

// ChanSink delivers events to a channel without blocking.
type ChanSink struct {
	ch chan<- Event
}

// NewChanSink wraps ch. A nil channel yields a sink that drops everything.
func NewChanSink(ch chan<- Event) *ChanSink {
	return &ChanSink{ch: ch}
}

// Send delivers ev if the channel has room and drops it otherwise.
func (s *ChanSink) Send(ev Event) {
	if s == nil || s.ch == nil {
		return
	}
	select {
	case s.ch <- ev:
	default:
	}
}

// FuncSink adapts a plain function to a Sink.
type FuncSink func(Event)

// Send calls f(ev).
func (f FuncSink) Send(ev Event) {
	if f != nil {
		f(ev)
	}
}
