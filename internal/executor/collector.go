package executor

import "bytes"

// collector captures one output stream with a byte cap. It implements
// io.Writer; writes past the cap are discarded and flagged, never
// buffered, so a chatty package manager cannot grow memory unbounded.
type collector struct {
	buf       bytes.Buffer
	maxBytes  int
	truncated bool
}

func newCollector(maxBytes int) *collector {
	return &collector{maxBytes: maxBytes}
}

// Write implements io.Writer. It always reports the full length as
// written so the upstream io.Copy keeps draining the pipe; a blocked pipe
// would stall the child instead of truncating its output.
func (c *collector) Write(p []byte) (int, error) {
	remaining := c.maxBytes - c.buf.Len()
	if remaining <= 0 {
		c.truncated = true
		return len(p), nil
	}

	toWrite := p
	if len(toWrite) > remaining {
		toWrite = toWrite[:remaining]
		c.truncated = true
	}
	if _, err := c.buf.Write(toWrite); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *collector) String() string {
	return c.buf.String()
}
