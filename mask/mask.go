/*******************************************************************************
*
* Package mask implements the MASK component: a bit-packed boolean stream
* used by DDS to flag visibility samples. 32-bit big-endian words hold 31
* booleans each; bit 31 (the MSB) is reserved and always zero (spec.md
* §4.4).
*
*******************************************************************************/

package mask

import (
	"io"

	"github.com/nrao/rfio/bigend"
	"github.com/nrao/rfio/eofread"
	"github.com/nrao/rfio/rfioerr"
)

const bitsPerWord = 31

// Reader decodes a bit-packed boolean stream, pulling a fresh 32-bit word
// only when the current bit reservoir is empty and more booleans are
// requested.
type Reader struct {
	r        io.Reader
	word     uint32
	bitsLeft int // number of undecoded bits remaining in word, counted from bit 30 downward
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Expand fills dst with the next len(dst) booleans from the stream.
func (d *Reader) Expand(dst []bool) error {
	for i := range dst {
		if d.bitsLeft == 0 {
			buf := make([]byte, bigend.SizeInt32)
			ok, err := eofread.ExactRead(d.r, buf)
			if err != nil {
				return rfioerr.New(rfioerr.KindUnexpectedEOF, "mask.Reader.Expand", "", err)
			}
			if !ok {
				return rfioerr.Newf(rfioerr.KindUnexpectedEOF, "mask.Reader.Expand", "",
					"stream ended with %d booleans still requested", len(dst)-i)
			}
			d.word = uint32(bigend.Int32(buf))
			d.bitsLeft = bitsPerWord
		}
		bitIndex := d.bitsLeft - 1 // counts down from 30 to 0
		dst[i] = (d.word>>uint(bitIndex))&1 != 0
		d.bitsLeft--
	}
	return nil
}

// Writer packs booleans into a 31-bit reservoir, flushing a full 32-bit word
// (with bit 31 left zero) whenever the reservoir fills.
type Writer struct {
	w        io.Writer
	word     uint32
	bitsUsed int // number of bits already placed into word, counted from bit 30 downward
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Append packs bs into the stream, flushing whole words as the reservoir
// fills.
func (e *Writer) Append(bs []bool) error {
	for _, b := range bs {
		if b {
			bitIndex := bitsPerWord - 1 - e.bitsUsed
			e.word |= 1 << uint(bitIndex)
		}
		e.bitsUsed++
		if e.bitsUsed == bitsPerWord {
			if err := e.flushWord(); err != nil {
				return err
			}
		}
	}
	return nil
}

// AppendRun is a supplementary convenience for the common case of a long
// run of identical flag values; it is implemented purely in terms of
// Append and introduces no new wire format.
func (e *Writer) AppendRun(v bool, n int) error {
	const chunk = 256
	buf := make([]bool, chunk)
	for i := range buf {
		buf[i] = v
	}
	for n > 0 {
		k := n
		if k > chunk {
			k = chunk
		}
		if err := e.Append(buf[:k]); err != nil {
			return err
		}
		n -= k
	}
	return nil
}

func (e *Writer) flushWord() error {
	buf := make([]byte, bigend.SizeInt32)
	bigend.PutInt32(buf, int32(e.word))
	if _, err := e.w.Write(buf); err != nil {
		return rfioerr.New(rfioerr.KindIO, "mask.Writer.Append", "", err)
	}
	e.word = 0
	e.bitsUsed = 0
	return nil
}

// Close flushes the final partial word unconditionally (writing zero bits
// for any unused slots), the way the MASK encoder must on stream close.
func (e *Writer) Close() error {
	if e.bitsUsed == 0 {
		return nil
	}
	return e.flushWord()
}
