/*******************************************************************************
*
* Package bigend implements the BC component: big-endian, two's-complement
* fixed-width integer and IEEE-754 float encode/decode. Complex64 is a pair
* of 32-bit floats (real, imag), real first. There is no endian-conversion
* knob; every on-disk integer and float in DDS and RFITS is big-endian, full
* stop (spec.md §4.1).
*
*******************************************************************************/

package bigend

import (
	"encoding/binary"
	"math"
)

// Complex64 mirrors the DDS Complex64 scalar type: two IEEE binary32 values.
type Complex64 struct {
	Real float32
	Imag float32
}

// Sizes, in bytes, of each wire representation. These match the elem_size
// column of spec.md §3.1.
const (
	SizeInt8      = 1
	SizeInt16     = 2
	SizeInt32     = 4
	SizeInt64     = 8
	SizeFloat32   = 4
	SizeFloat64   = 8
	SizeComplex64 = 8
)

func PutInt8(buf []byte, v int8) { buf[0] = byte(v) }
func Int8(buf []byte) int8       { return int8(buf[0]) }

func PutInt16(buf []byte, v int16) { binary.BigEndian.PutUint16(buf, uint16(v)) }
func Int16(buf []byte) int16       { return int16(binary.BigEndian.Uint16(buf)) }

func PutInt32(buf []byte, v int32) { binary.BigEndian.PutUint32(buf, uint32(v)) }
func Int32(buf []byte) int32       { return int32(binary.BigEndian.Uint32(buf)) }

func PutInt64(buf []byte, v int64) { binary.BigEndian.PutUint64(buf, uint64(v)) }
func Int64(buf []byte) int64       { return int64(binary.BigEndian.Uint64(buf)) }

func PutFloat32(buf []byte, v float32) { binary.BigEndian.PutUint32(buf, math.Float32bits(v)) }
func Float32(buf []byte) float32       { return math.Float32frombits(binary.BigEndian.Uint32(buf)) }

func PutFloat64(buf []byte, v float64) { binary.BigEndian.PutUint64(buf, math.Float64bits(v)) }
func Float64(buf []byte) float64       { return math.Float64frombits(binary.BigEndian.Uint64(buf)) }

func PutComplex64(buf []byte, v Complex64) {
	PutFloat32(buf[0:4], v.Real)
	PutFloat32(buf[4:8], v.Imag)
}

func DecodeComplex64(buf []byte) Complex64 {
	return Complex64{Real: Float32(buf[0:4]), Imag: Float32(buf[4:8])}
}
