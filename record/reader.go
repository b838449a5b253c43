package record

import (
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// Reader reads entries back from a record in the order they were written.
type Reader struct {
	c   io.Closer
	dec *cbor.Decoder

	// Session, if set, skips entries of other sessions.
	Session string
}

// NewReader creates a reader decoding from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: decMode.NewDecoder(r)}
}

// Open opens the record file at path.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r := NewReader(f)
	r.c = f
	return r, nil
}

// Next returns the next entry. It returns io.EOF when no more entries are
// left.
func (r *Reader) Next() (Entry, error) {
	for {
		var e Entry
		if err := r.dec.Decode(&e); err != nil {
			return Entry{}, err
		}
		if r.Session == "" || e.Session == r.Session {
			return e, nil
		}
	}
}

// Close closes the underlying file if the reader was opened with Open.
func (r *Reader) Close() error {
	if r.c == nil {
		return nil
	}
	return r.c.Close()
}
