package logging

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRingBuffer_Overflow(t *testing.T) {
	rb := NewRingBuffer(3)

	for i := 1; i <= 5; i++ {
		rb.WriteString(fmt.Sprint(i))
	}

	assert.Equal(t, []string{"3", "4", "5"}, rb.All())
	assert.Equal(t, 3, rb.Len())
}

func TestRingBuffer_LinesN(t *testing.T) {
	rb := NewRingBuffer(10)
	for i := 1; i <= 5; i++ {
		rb.WriteString(fmt.Sprintf("line %d", i))
	}

	assert.Equal(t, []string{"line 4", "line 5"}, rb.Lines(2))
	assert.Len(t, rb.Lines(10), 5)
}

func TestRingBuffer_Empty(t *testing.T) {
	rb := NewRingBuffer(5)
	assert.Nil(t, rb.All())
	assert.Equal(t, 0, rb.Len())
}

func TestRingBuffer_DefaultSize(t *testing.T) {
	rb := NewRingBuffer(0)
	assert.Equal(t, DefaultBufferSize, rb.size)
}

func TestRingBuffer_WriteStampsAndStripsCR(t *testing.T) {
	rb := NewRingBuffer(10)
	rb.now = func() time.Time { return time.Date(2026, 1, 2, 21, 50, 3, 0, time.Local) }

	input := []byte("[Server] Done (3.2s)!\r\nsay hello\r\n")
	n, err := rb.Write(input)
	assert.NoError(t, err)
	assert.Equal(t, len(input), n)

	assert.Equal(t, []string{
		"[21:50:03] [Server] Done (3.2s)!",
		"[21:50:03] say hello",
	}, rb.All())
}

func TestRingBuffer_Mirror(t *testing.T) {
	rb := NewRingBuffer(10)
	var out bytes.Buffer
	rb.Mirror(&out)

	_, _ = rb.Write([]byte("joined the game\n"))

	assert.Equal(t, "joined the game\n", out.String())
	assert.Equal(t, 1, rb.Len())
}

func TestRingBuffer_ThreadSafety(t *testing.T) {
	rb := NewRingBuffer(100)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rb.WriteString(fmt.Sprintf("goroutine %d line %d", id, j))
			}
		}(i)
	}

	wg.Wait()
	assert.Len(t, rb.All(), 100)
}
