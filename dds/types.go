/*******************************************************************************
*
* Package dds implements the DDS façade: a directory-based dataset format
* whose files encode typed scalar and vector items (spec.md §2-4, "DDS").
* This file carries the scalar type table of spec.md §3.1.
*
*******************************************************************************/

package dds

import "github.com/nrao/rfio/rfioerr"

// ElemType is one of the nine DDS scalar type codes. The numeric values are
// normative: they are the on-disk type tag written into header records and
// large-item files.
type ElemType int

const (
	Binary    ElemType = 0
	Int8      ElemType = 1
	Int32     ElemType = 2
	Int16     ElemType = 3
	Float32   ElemType = 4
	Float64   ElemType = 5
	Text      ElemType = 6
	Complex64 ElemType = 7
	Int64     ElemType = 8
)

func (t ElemType) String() string {
	switch t {
	case Binary:
		return "binary"
	case Int8:
		return "int8"
	case Int32:
		return "int32"
	case Int16:
		return "int16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Text:
		return "text"
	case Complex64:
		return "complex64"
	case Int64:
		return "int64"
	default:
		return "unknown"
	}
}

// ElemSize returns the on-disk size, in bytes, of one element of t. For
// Complex64 this is the combined size of both component floats.
func (t ElemType) ElemSize() int {
	switch t {
	case Binary, Int8, Text:
		return 1
	case Int16:
		return 2
	case Int32, Float32:
		return 4
	case Float64, Int64:
		return 8
	case Complex64:
		return 8
	default:
		return 0
	}
}

// Alignment returns the natural alignment of t per spec.md §3.1. Complex64
// is 4, not 8 -- surprising but normative.
func (t ElemType) Alignment() int {
	switch t {
	case Binary, Int8, Text:
		return 1
	case Int16:
		return 2
	case Int32, Float32, Complex64:
		return 4
	case Float64, Int64:
		return 8
	default:
		return 1
	}
}

// IsScalarOnly reports whether t is a single-valued item type (only Text).
func (t ElemType) IsScalarOnly() bool { return t == Text }

// ValidType reports whether code is one of the nine recognised type codes.
func ValidType(code int32) (ElemType, bool) {
	t := ElemType(code)
	switch t {
	case Binary, Int8, Int32, Int16, Float32, Float64, Text, Complex64, Int64:
		return t, true
	default:
		return 0, false
	}
}

// headerAlignZone is the alignment used inside a DDS-HDR record's interior,
// per spec.md §4.5: max(4, elem_size(type)). The type tag occupies the
// first 4 bytes of this zone.
func headerAlignZone(t ElemType) int {
	sz := t.ElemSize()
	if sz < 4 {
		return 4
	}
	return sz
}

func invalidArg(op, msg string) error {
	return rfioerr.Newf(rfioerr.KindInvalidArgument, op, "", "%s", msg)
}
