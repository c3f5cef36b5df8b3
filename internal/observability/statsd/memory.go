package statsd

import (
	"sync"
	"time"
)

// Sample is one metric recorded by MemorySink.
type Sample struct {
	Kind  string // KindCount, KindGauge or KindTiming
	Name  string
	Value float64
	Tags  map[string]string
}

// MemorySink records metrics in memory. It backs tests and the admin CLI's dry runs.
type MemorySink struct {
	mu      sync.Mutex
	samples []Sample
}

var _ Sink = (*MemorySink)(nil)

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (m *MemorySink) record(s Sample) {
	m.mu.Lock()
	m.samples = append(m.samples, s)
	m.mu.Unlock()
}

// Count implements Sink.
func (m *MemorySink) Count(name string, value int64, tags map[string]string) {
	m.record(Sample{Kind: KindCount, Name: name, Value: float64(value), Tags: cloneTags(tags)})
}

// Gauge implements Sink.
func (m *MemorySink) Gauge(name string, value float64, tags map[string]string) {
	m.record(Sample{Kind: KindGauge, Name: name, Value: value, Tags: cloneTags(tags)})
}

// Timing implements Sink.
func (m *MemorySink) Timing(name string, value time.Duration, tags map[string]string) {
	m.record(Sample{Kind: KindTiming, Name: name, Value: float64(value) / float64(time.Millisecond), Tags: cloneTags(tags)})
}

// Samples returns a copy of everything recorded so far.
func (m *MemorySink) Samples() []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sample, len(m.samples))
	copy(out, m.samples)
	return out
}

// Total sums the values of every count sample named name whose tags include match.
func (m *MemorySink) Total(name string, match map[string]string) int64 {
	var total int64
	for _, s := range m.Samples() {
		if s.Kind != KindCount || s.Name != name || !tagsInclude(s.Tags, match) {
			continue
		}
		total += int64(s.Value)
	}
	return total
}

func tagsInclude(tags, match map[string]string) bool {
	for k, v := range match {
		if tags[k] != v {
			return false
		}
	}
	return true
}
