package record

import (
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/oxplot/go-pdtrigger"
	"github.com/oxplot/go-pdtrigger/poller"
)

// Writer is a poller.Sink appending reports to a record.
type Writer struct {
	c   io.Closer
	enc *cbor.Encoder
}

// NewWriter creates a writer encoding to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: encMode.NewEncoder(w)}
}

// Create opens the record file at path for appending, creating it with
// permissions 0644 if it does not exist.
func Create(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	w := NewWriter(f)
	w.c = f
	return w, nil
}

// Write appends e.
func (w *Writer) Write(e Entry) error {
	return w.enc.Encode(e)
}

// Publish implements poller.Sink interface. Only reports carrying events or
// errors are appended; quiet ticks are dropped so the record grows with what
// happened rather than with uptime.
func (w *Writer) Publish(r poller.Report) error {
	if r.Events == pdtrigger.EventNone && r.Err == nil {
		return nil
	}
	return w.Write(FromReport(r))
}

// Close closes the underlying file if the writer was opened with Create.
func (w *Writer) Close() error {
	if w.c == nil {
		return nil
	}
	return w.c.Close()
}
