package audit

import (
	"encoding/json"
	"os"
	"sync"

	opserrors "github.com/opscorehq/opscore/pkg/errors"
)

type submission struct {
	record Record
	ack    chan error
}

// Writer is the single-writer, append-only audit log. Callers submit
// records through Write, which blocks until the record has been encoded and
// synced to disk — the "flushed acknowledgement" of spec §5, so a crash
// between the audit write and the client response never leaves the audit
// trail behind the client's view of what happened.
type Writer struct {
	file    *os.File
	queue   chan submission
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// Open opens (creating if necessary) the JSONL audit log at path and starts
// its writer goroutine.
func Open(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, opserrors.NewInternalError("failed to open audit log "+path, err)
	}
	w := &Writer{
		file:    f,
		queue:   make(chan submission, 64),
		closeCh: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *Writer) run() {
	defer w.wg.Done()
	enc := json.NewEncoder(w.file)
	for {
		// Drain any queued records before honoring a close, so records
		// submitted before shutdown are never silently dropped.
		select {
		case sub := <-w.queue:
			w.handle(enc, sub)
			continue
		default:
		}

		select {
		case sub := <-w.queue:
			w.handle(enc, sub)
		case <-w.closeCh:
			return
		}
	}
}

func (w *Writer) handle(enc *json.Encoder, sub submission) {
	err := enc.Encode(sub.record)
	if err == nil {
		err = w.file.Sync()
	}
	sub.ack <- err
}

// Write submits rec and blocks until it has been flushed to disk.
func (w *Writer) Write(rec Record) error {
	ack := make(chan error, 1)
	w.queue <- submission{record: rec, ack: ack}
	return <-ack
}

// Close stops the writer goroutine, draining any queued records first, and
// closes the underlying file.
func (w *Writer) Close() error {
	close(w.closeCh)
	w.wg.Wait()
	return w.file.Close()
}
