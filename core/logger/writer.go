package logger

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"sync"
)

var errWriterClosed = errors.New("logger: writer closed")

// lineWriter hands log lines to a single goroutine that fans them out to
// every sink. Callers block only when the queue is full.
type lineWriter struct {
	queue chan chunk
	done  chan struct{}

	gate   sync.RWMutex
	closed bool

	errMu sync.Mutex
	err   error

	sinks []*bufio.Writer
}

// chunk is either a line to write or, when ack is set, a flush request.
type chunk struct {
	line []byte
	ack  chan error
}

func newLineWriter(sinks []io.Writer, queueLen int) *lineWriter {
	if queueLen <= 0 {
		queueLen = 256
	}
	w := &lineWriter{
		queue: make(chan chunk, queueLen),
		done:  make(chan struct{}),
	}
	for _, s := range sinks {
		if s != nil {
			w.sinks = append(w.sinks, bufio.NewWriter(s))
		}
	}
	go w.run()
	return w
}

func (w *lineWriter) run() {
	defer close(w.done)
	for c := range w.queue {
		if c.ack != nil {
			c.ack <- w.flush()
			continue
		}
		for _, s := range w.sinks {
			if _, err := s.Write(c.line); err != nil {
				w.fail(err)
			}
		}
		// flush once the burst is drained
		if len(w.queue) == 0 {
			if err := w.flush(); err != nil {
				w.fail(err)
			}
		}
	}
	if err := w.flush(); err != nil {
		w.fail(err)
	}
}

// Write queues a copy of p.
func (w *lineWriter) Write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	w.gate.RLock()
	defer w.gate.RUnlock()
	if w.closed {
		return errWriterClosed
	}
	if err := w.failure(); err != nil {
		return err
	}
	w.queue <- chunk{line: bytes.Clone(p)}
	return nil
}

// Flush waits until every line queued before the call reached the sinks.
func (w *lineWriter) Flush() error {
	w.gate.RLock()
	if w.closed {
		w.gate.RUnlock()
		return w.failure()
	}
	ack := make(chan error, 1)
	w.queue <- chunk{ack: ack}
	w.gate.RUnlock()
	return <-ack
}

// Close drains the queue and returns the first write error.
func (w *lineWriter) Close() error {
	w.gate.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.gate.Unlock()
	<-w.done
	return w.failure()
}

func (w *lineWriter) flush() error {
	var errs []error
	for _, s := range w.sinks {
		if err := s.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *lineWriter) fail(err error) {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

func (w *lineWriter) failure() error {
	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.err
}
