/*******************************************************************************
*
* Package align implements the ASR/ASW component: byte-stream wrappers that
* track a logical offset from the moment of construction and can pad a
* write stream with zeros, or read-and-discard a read stream, up to a
* requested alignment boundary (spec.md §4.2).
*
*******************************************************************************/

package align

import (
	"io"

	"github.com/nrao/rfio/rfioerr"
)

// MaxAlignment is the largest alignment accepted by AlignTo.
const MaxAlignment = 64

// Reader wraps an io.Reader, tracking a logical byte offset and supporting
// read-and-discard alignment.
type Reader struct {
	r      io.Reader
	offset uint64
}

// NewReader wraps r. The logical offset starts at 0 regardless of any
// position the underlying stream may already be at.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Offset returns the number of bytes read through this wrapper so far.
func (a *Reader) Offset() uint64 { return a.offset }

// Inner returns the wrapped reader.
func (a *Reader) Inner() io.Reader { return a.r }

// Read implements io.Reader. Partial reads are passed through unmodified;
// the offset advances by exactly the number of bytes transferred.
func (a *Reader) Read(p []byte) (int, error) {
	n, err := a.r.Read(p)
	a.offset += uint64(n)
	return n, err
}

// AlignTo pads the logical offset up to the next multiple of n by reading
// and discarding bytes. It returns true if the stream was already aligned
// (in which case nothing is read). n must be in [1, MaxAlignment].
func (a *Reader) AlignTo(n int) (alreadyAligned bool, err error) {
	if n < 1 || n > MaxAlignment {
		return false, rfioerr.Newf(rfioerr.KindInvalidArgument, "align.Reader.AlignTo", "",
			"alignment %d out of range [1, %d]", n, MaxAlignment)
	}
	rem := a.offset % uint64(n)
	if rem == 0 {
		return true, nil
	}
	skip := uint64(n) - rem
	if _, err := io.CopyN(io.Discard, a, int64(skip)); err != nil {
		return false, err
	}
	return false, nil
}

// Writer wraps an io.Writer, tracking a logical byte offset and supporting
// zero-padding alignment.
type Writer struct {
	w      io.Writer
	offset uint64
}

// NewWriter wraps w. The logical offset starts at 0.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Offset returns the number of bytes written through this wrapper so far.
func (a *Writer) Offset() uint64 { return a.offset }

// Inner returns the wrapped writer.
func (a *Writer) Inner() io.Writer { return a.w }

// Write implements io.Writer.
func (a *Writer) Write(p []byte) (int, error) {
	n, err := a.w.Write(p)
	a.offset += uint64(n)
	return n, err
}

// AlignTo pads the logical offset up to the next multiple of n with zero
// bytes. It returns true if the stream was already aligned (in which case
// nothing is written). n must be in [1, MaxAlignment].
func (a *Writer) AlignTo(n int) (alreadyAligned bool, err error) {
	if n < 1 || n > MaxAlignment {
		return false, rfioerr.Newf(rfioerr.KindInvalidArgument, "align.Writer.AlignTo", "",
			"alignment %d out of range [1, %d]", n, MaxAlignment)
	}
	rem := a.offset % uint64(n)
	if rem == 0 {
		return true, nil
	}
	pad := uint64(n) - rem
	zeros := make([]byte, pad)
	if _, err := a.Write(zeros); err != nil {
		return false, err
	}
	return false, nil
}
