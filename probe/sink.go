package probe

// Sink receives probe events. Implementations must be safe for concurrent
// use when the wrapped connections are used from multiple goroutines.
type Sink interface {
	// Enabled reports whether events of this kind currently have a
	// listener. The wrapper calls it before reading depth or assembling
	// fields, so a disabled sink costs one predicate call per probe site.
	Enabled(ev Event) bool

	// Fire delivers one event. Fields is passed by value; implementations
	// may keep it.
	Fire(ev Event, f Fields)
}

// Compile-time interface checks.
var (
	_ Sink = NopSink{}
	_ Sink = multiSink(nil)
)

// NopSink discards everything. It is the default sink, so firing probes
// before any sink is registered is a safe no-op.
type NopSink struct{}

// Enabled implements Sink. Always false.
func (NopSink) Enabled(Event) bool { return false }

// Fire implements Sink. Does nothing.
func (NopSink) Fire(Event, Fields) {}

// Multi returns a sink that fans out to all of sinks. Enabled is the OR of
// the parts; Fire forwards only to the parts that report the event enabled.
// Nil entries are skipped.
func Multi(sinks ...Sink) Sink {
	m := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			m = append(m, s)
		}
	}
	return m
}

type multiSink []Sink

func (m multiSink) Enabled(ev Event) bool {
	for _, s := range m {
		if s.Enabled(ev) {
			return true
		}
	}
	return false
}

func (m multiSink) Fire(ev Event, f Fields) {
	for _, s := range m {
		if s.Enabled(ev) {
			s.Fire(ev, f)
		}
	}
}
