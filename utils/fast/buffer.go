package fast

// buffer.go provides a lightweight, non-thread-safe cursor over byte slices.
//
// Purpose:
// - Header extra-data is a concatenation of fixed-width fields (vanity, validator
//   entries, turn length, seal) followed by an RLP tail. Reading it is a linear walk,
//   so a Reader that advances an offset is all that is needed.
// - Unlike bytes.Reader, a short read is never partial: either the full field is
//   returned or ErrShortBuffer is, and the cursor does not move.
// - Returned slices share memory with the source buffer. Callers that keep them
//   beyond the life of the buffer must copy.

import "errors"

// ErrShortBuffer is returned when a read asks for more bytes than remain.
var ErrShortBuffer = errors.New("fast: short buffer")

type Reader struct {
	// buf is the underlying data source.
	buf []byte
	// offset tracks the current reading position (cursor).
	offset int
}

type Writer struct {
	// buf is the accumulating byte slice.
	buf []byte
}

// NewReader creates a Reader to consume the provided byte slice.
func NewReader(bb []byte) *Reader {
	return &Reader{
		buf:    bb,
		offset: 0,
	}
}

// NewWriter creates a Writer that appends to the provided initial slice.
// Often called with `make([]byte, 0, capacity)` to pre-allocate memory.
func NewWriter(bb []byte) *Writer {
	return &Writer{
		buf: bb,
	}
}

// WriteByte appends a single byte to the buffer. It never fails.
func (b *Writer) WriteByte(v byte) error {
	b.buf = append(b.buf, v)
	return nil
}

// Write appends a slice of bytes (bulk write) to the buffer.
func (b *Writer) Write(v []byte) {
	b.buf = append(b.buf, v...)
}

// Read consumes and returns the next n bytes from the buffer.
// If fewer than n bytes remain, nothing is consumed and ErrShortBuffer is returned.
func (b *Reader) Read(n int) ([]byte, error) {
	if n < 0 || n > b.Len() {
		return nil, ErrShortBuffer
	}
	res := b.buf[b.offset : b.offset+n]
	b.offset += n
	return res, nil
}

// ReadByte consumes and returns a single byte.
func (b *Reader) ReadByte() (byte, error) {
	if b.Empty() {
		return 0, ErrShortBuffer
	}
	res := b.buf[b.offset]
	b.offset++
	return res, nil
}

// Rest consumes and returns everything that is left.
func (b *Reader) Rest() []byte {
	res := b.buf[b.offset:]
	b.offset = len(b.buf)
	return res
}

// Len returns the number of unread bytes.
func (b *Reader) Len() int {
	return len(b.buf) - b.offset
}

// Position returns the current cursor index of the Reader.
// Useful for determining how many bytes have been consumed.
func (b *Reader) Position() int {
	return b.offset
}

// Bytes returns the accumulated content of the Writer.
func (b *Writer) Bytes() []byte {
	return b.buf
}

// Empty checks if the Reader has reached the end of the buffer.
// Returns true if there are no more bytes to read.
func (b *Reader) Empty() bool {
	return len(b.buf) == b.offset
}
