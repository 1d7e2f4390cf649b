/*******************************************************************************
*
* Generic element encode/decode between Go slices and the big-endian byte
* layouts bigend.go defines. Kept separate from header.go/large.go so both
* the Small (in-memory payload) and Large (streamed file) storage paths
* share one implementation of "what does a []T look like on disk".
*
*******************************************************************************/

package dds

import (
	"bytes"
	"io"

	"github.com/nrao/rfio/bigend"
	"github.com/nrao/rfio/eofread"
	"github.com/nrao/rfio/rfioerr"
)

// elemTypeOf reports the ElemType corresponding to the generic vector
// element type T, if any. Text is deliberately excluded: it is a
// single-valued item type, handled by the dedicated Text accessors rather
// than as a vector element.
func elemTypeOf[T any]() (ElemType, bool) {
	var zero T
	switch any(zero).(type) {
	case int8:
		return Int8, true
	case int16:
		return Int16, true
	case int32:
		return Int32, true
	case int64:
		return Int64, true
	case float32:
		return Float32, true
	case float64:
		return Float64, true
	case bigend.Complex64:
		return Complex64, true
	case byte:
		return Binary, true
	default:
		return 0, false
	}
}

// encodeElements appends the on-disk big-endian representation of values to
// w in order.
func encodeElements[T any](w io.Writer, values []T) error {
	const op = "dds.encodeElements"
	for _, v := range values {
		var buf []byte
		switch x := any(v).(type) {
		case int8:
			buf = []byte{byte(x)}
		case int16:
			buf = make([]byte, bigend.SizeInt16)
			bigend.PutInt16(buf, x)
		case int32:
			buf = make([]byte, bigend.SizeInt32)
			bigend.PutInt32(buf, x)
		case int64:
			buf = make([]byte, bigend.SizeInt64)
			bigend.PutInt64(buf, x)
		case float32:
			buf = make([]byte, bigend.SizeFloat32)
			bigend.PutFloat32(buf, x)
		case float64:
			buf = make([]byte, bigend.SizeFloat64)
			bigend.PutFloat64(buf, x)
		case bigend.Complex64:
			buf = make([]byte, bigend.SizeComplex64)
			bigend.PutComplex64(buf, x)
		case byte:
			buf = []byte{x}
		default:
			return invalidArg(op, "unsupported element type")
		}
		if _, err := w.Write(buf); err != nil {
			return rfioerr.New(rfioerr.KindIO, op, "", err)
		}
	}
	return nil
}

// decodeElements reads n elements of type T from r.
func decodeElements[T any](r io.Reader, n int64) ([]T, error) {
	const op = "dds.decodeElements"
	var zero T
	out := make([]T, n)

	readExact := func(buf []byte) error {
		full, err := eofread.ExactRead(r, buf)
		if err != nil {
			return err
		}
		if !full {
			return rfioerr.Newf(rfioerr.KindUnexpectedEOF, op, "", "truncated element stream")
		}
		return nil
	}

	switch any(zero).(type) {
	case int8:
		buf := make([]byte, 1)
		for i := range out {
			if err := readExact(buf); err != nil {
				return nil, err
			}
			out[i] = any(int8(buf[0])).(T)
		}
	case int16:
		buf := make([]byte, bigend.SizeInt16)
		for i := range out {
			if err := readExact(buf); err != nil {
				return nil, err
			}
			out[i] = any(bigend.Int16(buf)).(T)
		}
	case int32:
		buf := make([]byte, bigend.SizeInt32)
		for i := range out {
			if err := readExact(buf); err != nil {
				return nil, err
			}
			out[i] = any(bigend.Int32(buf)).(T)
		}
	case int64:
		buf := make([]byte, bigend.SizeInt64)
		for i := range out {
			if err := readExact(buf); err != nil {
				return nil, err
			}
			out[i] = any(bigend.Int64(buf)).(T)
		}
	case float32:
		buf := make([]byte, bigend.SizeFloat32)
		for i := range out {
			if err := readExact(buf); err != nil {
				return nil, err
			}
			out[i] = any(bigend.Float32(buf)).(T)
		}
	case float64:
		buf := make([]byte, bigend.SizeFloat64)
		for i := range out {
			if err := readExact(buf); err != nil {
				return nil, err
			}
			out[i] = any(bigend.Float64(buf)).(T)
		}
	case bigend.Complex64:
		buf := make([]byte, bigend.SizeComplex64)
		for i := range out {
			if err := readExact(buf); err != nil {
				return nil, err
			}
			out[i] = any(bigend.DecodeComplex64(buf)).(T)
		}
	case byte:
		buf := make([]byte, n)
		if n > 0 {
			if err := readExact(buf); err != nil {
				return nil, err
			}
		}
		for i := range out {
			out[i] = any(buf[i]).(T)
		}
	default:
		return nil, invalidArg(op, "unsupported element type")
	}
	return out, nil
}

// TypeOf exposes elemTypeOf for packages (such as dds/uv) that need to
// type-check a generic vector element type against an ElemType without
// duplicating the mapping.
func TypeOf[T any]() (ElemType, bool) { return elemTypeOf[T]() }

// DecodeVector decodes a complete in-memory payload into a []T, inferring
// the element count from len(payload) and T's on-disk size.
func DecodeVector[T any](payload []byte) ([]T, error) {
	const op = "dds.DecodeVector"
	t, ok := elemTypeOf[T]()
	if !ok {
		return nil, invalidArg(op, "unsupported element type")
	}
	sz := t.ElemSize()
	if sz == 0 || len(payload)%sz != 0 {
		return nil, rfioerr.Newf(rfioerr.KindMalformed, op, "",
			"payload length %d is not a multiple of element size %d", len(payload), sz)
	}
	return decodeElements[T](bytes.NewReader(payload), int64(len(payload)/sz))
}

// EncodeVector is the inverse of DecodeVector.
func EncodeVector[T any](values []T) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeElements(&buf, values); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
