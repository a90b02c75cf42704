package logging

import (
	"bufio"
	"bytes"
	"io"
	"sync"
	"time"
)

const DefaultBufferSize = 1000

// RingBuffer keeps the most recent console lines of the supervised server.
// It is safe for concurrent use: the process reader goroutine writes while
// the dashboard reads.
type RingBuffer struct {
	mu     sync.Mutex
	lines  []string
	size   int
	pos    int
	count  int
	mirror io.Writer
	now    func() time.Time
}

// NewRingBuffer creates a ring buffer with the given capacity.
func NewRingBuffer(size int) *RingBuffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &RingBuffer{
		lines: make([]string, size),
		size:  size,
		now:   time.Now,
	}
}

// Mirror copies every raw write to w as well, e.g. os.Stdout when the
// supervisor runs without the dashboard.
func (rb *RingBuffer) Mirror(w io.Writer) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.mirror = w
}

// WriteString appends a line to the buffer.
func (rb *RingBuffer) WriteString(line string) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.push(line)
}

func (rb *RingBuffer) push(line string) {
	rb.lines[rb.pos] = line
	rb.pos = (rb.pos + 1) % rb.size
	if rb.count < rb.size {
		rb.count++
	}
}

// Write implements io.Writer. Each line is stamped with the wall-clock time
// it was captured; carriage returns from the PTY are dropped.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.mirror != nil {
		_, _ = rb.mirror.Write(p)
	}

	ts := rb.now().Format("15:04:05")
	scanner := bufio.NewScanner(bytes.NewReader(p))
	for scanner.Scan() {
		line := bytes.TrimRight(scanner.Bytes(), "\r")
		rb.push("[" + ts + "] " + string(line))
	}
	return len(p), nil
}

// Lines returns the last n lines. If n <= 0 or n > count, returns all lines.
func (rb *RingBuffer) Lines(n int) []string {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if n <= 0 || n > rb.count {
		n = rb.count
	}
	if n == 0 {
		return nil
	}

	result := make([]string, n)
	start := (rb.pos - n + rb.size) % rb.size
	for i := 0; i < n; i++ {
		result[i] = rb.lines[(start+i)%rb.size]
	}
	return result
}

// All returns all lines in order.
func (rb *RingBuffer) All() []string {
	return rb.Lines(0)
}

// Len returns the number of lines currently in the buffer.
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.count
}
