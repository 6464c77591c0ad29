package step

import "sync/atomic"

// Stats is a point-in-time copy of a step's counters.
type Stats struct {
	LinesRead     int64
	LinesWritten  int64
	LinesInput    int64
	LinesOutput   int64
	LinesUpdated  int64
	LinesRejected int64
	Errors        int64
}

// Add returns the field-wise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		LinesRead:     s.LinesRead + o.LinesRead,
		LinesWritten:  s.LinesWritten + o.LinesWritten,
		LinesInput:    s.LinesInput + o.LinesInput,
		LinesOutput:   s.LinesOutput + o.LinesOutput,
		LinesUpdated:  s.LinesUpdated + o.LinesUpdated,
		LinesRejected: s.LinesRejected + o.LinesRejected,
		Errors:        s.Errors + o.Errors,
	}
}

// Counters are the live row counters of a step. Read counts rows taken from
// input buffers, written counts rows put to output buffers; input and output
// count lines exchanged with external systems such as files.
type Counters struct {
	read, written, input, output, updated, rejected, errors atomic.Int64
}

func (c *Counters) AddRead(n int64)     { c.read.Add(n) }
func (c *Counters) AddWritten(n int64)  { c.written.Add(n) }
func (c *Counters) AddInput(n int64)    { c.input.Add(n) }
func (c *Counters) AddOutput(n int64)   { c.output.Add(n) }
func (c *Counters) AddUpdated(n int64)  { c.updated.Add(n) }
func (c *Counters) AddRejected(n int64) { c.rejected.Add(n) }
func (c *Counters) AddErrors(n int64)   { c.errors.Add(n) }

// Snapshot returns the current counter values.
func (c *Counters) Snapshot() Stats {
	return Stats{
		LinesRead:     c.read.Load(),
		LinesWritten:  c.written.Load(),
		LinesInput:    c.input.Load(),
		LinesOutput:   c.output.Load(),
		LinesUpdated:  c.updated.Load(),
		LinesRejected: c.rejected.Load(),
		Errors:        c.errors.Load(),
	}
}
