package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler turns SIGINT and SIGTERM into context cancellation and
// prints a short shutdown notice once.
type InterruptHandler struct {
	writer      io.Writer
	signals     chan os.Signal
	notice      string
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a handler. notice is printed on the first
// interrupt; an empty notice prints only the generic message.
func NewInterruptHandler(writer io.Writer, notice string) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{
		writer:  writer,
		signals: make(chan os.Signal, 1),
		notice:  notice,
	}
}

// HandleInterrupts returns a context that is cancelled on interrupt. Signal
// delivery stops once ctx is done.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	signal.Notify(h.signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(h.signals)
		select {
		case <-h.signals:
			h.mu.Lock()
			if !h.interrupted {
				h.interrupted = true
				h.showInterruptMessage()
			}
			h.mu.Unlock()
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n" + FormatWarning("Interrupted, shutting down...")
	if h.notice != "" {
		msg += "\n" + FormatInfo(h.notice)
	}
	msg += "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the process was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
