package progress

// Sink receives events for a job. Publish must not block on or propagate
// observer failures; a sink with no observers drops the event.
type Sink interface {
	Publish(jobID string, evt Event)
}

// Fanout delivers each event to every sink in order. Nil entries are
// skipped.
type Fanout []Sink

// Publish implements Sink.
func (f Fanout) Publish(jobID string, evt Event) {
	for _, s := range f {
		if s == nil {
			continue
		}
		s.Publish(jobID, evt)
	}
}

// Recorder mirrors the latest progress snapshot into durable job state so
// status queries agree with the most recent stream event even when no
// observer is connected.
type Recorder interface {
	RecordStep(jobID string, progress float64, step string)
}
