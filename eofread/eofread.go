/*******************************************************************************
*
* Package eofread implements the EOFR component: a read helper that
* distinguishes "clean end of stream" from "truncated mid-value", which a
* bare io.ReadFull cannot do on its own (spec.md §4.3).
*
*******************************************************************************/

package eofread

import (
	"errors"
	"io"

	"github.com/nrao/rfio/bigend"
	"github.com/nrao/rfio/rfioerr"
)

// ExactRead repeatedly reads from r into buf until it is full. It returns
// (true, nil) on a full fill, (false, nil) if EOF occurred before any byte
// was placed into buf, and a *rfioerr.Error with KindUnexpectedEOF if EOF
// occurred after at least one byte was placed. The Go io.Reader contract has
// no interrupt-kind error, so no error from r is retried: io.ReadFull only
// repeats short reads that returned no error, and any other error is
// returned as a *rfioerr.Error with KindIO.
func ExactRead(r io.Reader, buf []byte) (bool, error) {
	if len(buf) == 0 {
		return true, nil
	}
	n, err := io.ReadFull(r, buf)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, io.EOF) && n == 0:
		return false, nil
	case errors.Is(err, io.ErrUnexpectedEOF) || (errors.Is(err, io.EOF) && n > 0):
		return false, rfioerr.New(rfioerr.KindUnexpectedEOF, "eofread.ExactRead", "", err)
	default:
		return false, rfioerr.New(rfioerr.KindIO, "eofread.ExactRead", "", err)
	}
}

// ReadBEInt16 reads a big-endian int16. ok is false (with nil error) only on
// a clean end-of-stream before any byte of the value was read.
func ReadBEInt16(r io.Reader) (v int16, ok bool, err error) {
	buf := make([]byte, bigend.SizeInt16)
	full, err := ExactRead(r, buf)
	if err != nil || !full {
		return 0, full, err
	}
	return bigend.Int16(buf), true, nil
}

// ReadBEInt32 reads a big-endian int32.
func ReadBEInt32(r io.Reader) (v int32, ok bool, err error) {
	buf := make([]byte, bigend.SizeInt32)
	full, err := ExactRead(r, buf)
	if err != nil || !full {
		return 0, full, err
	}
	return bigend.Int32(buf), true, nil
}

// ReadBEInt64 reads a big-endian int64.
func ReadBEInt64(r io.Reader) (v int64, ok bool, err error) {
	buf := make([]byte, bigend.SizeInt64)
	full, err := ExactRead(r, buf)
	if err != nil || !full {
		return 0, full, err
	}
	return bigend.Int64(buf), true, nil
}

// ReadBEFloat32 reads a big-endian IEEE binary32.
func ReadBEFloat32(r io.Reader) (v float32, ok bool, err error) {
	buf := make([]byte, bigend.SizeFloat32)
	full, err := ExactRead(r, buf)
	if err != nil || !full {
		return 0, full, err
	}
	return bigend.Float32(buf), true, nil
}

// ReadBEFloat64 reads a big-endian IEEE binary64.
func ReadBEFloat64(r io.Reader) (v float64, ok bool, err error) {
	buf := make([]byte, bigend.SizeFloat64)
	full, err := ExactRead(r, buf)
	if err != nil || !full {
		return 0, full, err
	}
	return bigend.Float64(buf), true, nil
}

// ReadBEComplex64 reads a big-endian {real, imag} pair of binary32 values.
func ReadBEComplex64(r io.Reader) (v bigend.Complex64, ok bool, err error) {
	buf := make([]byte, bigend.SizeComplex64)
	full, err := ExactRead(r, buf)
	if err != nil || !full {
		return bigend.Complex64{}, full, err
	}
	return bigend.DecodeComplex64(buf), true, nil
}
