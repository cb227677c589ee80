package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer provides thread-safe access to a bytes.Buffer.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (s *syncBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func TestNewInterruptHandler(t *testing.T) {
	tests := []struct {
		writer io.Writer
		name   string
	}{
		{
			name:   "with custom writer",
			writer: &bytes.Buffer{},
		},
		{
			name:   "with nil writer",
			writer: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewInterruptHandler(tt.writer, "")
			assert.NotNil(t, handler)
			assert.NotNil(t, handler.writer)
			assert.False(t, handler.WasInterrupted())
		})
	}
}

func TestHandleInterrupts(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output, "State will be saved before exit.")

	ctx := handler.HandleInterrupts(context.Background())

	select {
	case <-ctx.Done():
		t.Fatal("Context should not be canceled initially")
	default:
	}

	handler.signals <- os.Interrupt

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Context was not canceled after interrupt")
	}

	require.Eventually(t, handler.WasInterrupted, time.Second, 10*time.Millisecond)
	out := output.String()
	assert.Contains(t, out, "Interrupted, shutting down...")
	assert.Contains(t, out, "State will be saved before exit.")
	assert.Equal(t, 1, strings.Count(out, "Interrupted"))
}

func TestHandleInterrupts_ParentCanceled(t *testing.T) {
	output := &syncBuffer{}
	handler := NewInterruptHandler(output, "")

	parent, cancel := context.WithCancel(context.Background())
	ctx := handler.HandleInterrupts(parent)
	cancel()

	<-ctx.Done()
	time.Sleep(20 * time.Millisecond)
	assert.False(t, handler.WasInterrupted())
	assert.Empty(t, output.String())
}

func TestShowInterruptMessage(t *testing.T) {
	tests := []struct {
		name        string
		notice      string
		expected    []string
		notExpected []string
	}{
		{
			name:     "with notice",
			notice:   "Resume with: sieve daemon",
			expected: []string{"Interrupted, shutting down...", "Resume with: sieve daemon"},
		},
		{
			name:        "without notice",
			expected:    []string{"Interrupted, shutting down..."},
			notExpected: []string{"Resume with"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var output bytes.Buffer
			handler := NewInterruptHandler(&output, tt.notice)

			handler.showInterruptMessage()

			for _, want := range tt.expected {
				assert.Contains(t, output.String(), want)
			}
			for _, unwanted := range tt.notExpected {
				assert.NotContains(t, output.String(), unwanted)
			}
		})
	}
}
