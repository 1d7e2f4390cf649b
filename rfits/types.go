/*******************************************************************************
*
* Package rfits implements RFITS (spec.md §3.3-3.4, §4.9-4.10): a
* record-stream image/table format modeled on FITS. This file carries the
* HDU-level type vocabulary (§3.3) shared by the streaming decoder
* (FITS-DEC) and the random-access parser (FITS-PARSE).
*
*******************************************************************************/

package rfits

import "github.com/nrao/rfio/rfioerr"

const BlockSize = 2880
const RecordSize = 80

// Bitpix is the on-disk element type code of an HDU's data region.
type Bitpix int

const (
	U8  Bitpix = 8
	I16 Bitpix = 16
	I32 Bitpix = 32
	I64 Bitpix = 64
	F32 Bitpix = -32
	F64 Bitpix = -64
)

// Size returns the on-disk byte size of one data-region element.
func (b Bitpix) Size() int {
	switch b {
	case U8:
		return 1
	case I16:
		return 2
	case I32, F32:
		return 4
	case I64, F64:
		return 8
	default:
		return 0
	}
}

// ValidBitpix reports whether v is one of the six recognised codes.
func ValidBitpix(v int64) (Bitpix, bool) {
	b := Bitpix(v)
	switch b {
	case U8, I16, I32, I64, F32, F64:
		return b, true
	default:
		return 0, false
	}
}

// HduKind classifies an HDU. OtherExtension carries its XTENSION token in
// ParsedHdu.ExtensionToken.
type HduKind int

const (
	PrimaryArray HduKind = iota
	PrimaryRandomGroups
	PrimaryNoData
	ImageExtension
	AsciiTableExtension
	BinaryTableExtension
	OtherExtension
)

func (k HduKind) String() string {
	switch k {
	case PrimaryArray:
		return "PrimaryArray"
	case PrimaryRandomGroups:
		return "PrimaryRandomGroups"
	case PrimaryNoData:
		return "PrimaryNoData"
	case ImageExtension:
		return "ImageExtension"
	case AsciiTableExtension:
		return "AsciiTableExtension"
	case BinaryTableExtension:
		return "BinaryTableExtension"
	case OtherExtension:
		return "OtherExtension"
	default:
		return "Unknown"
	}
}

// ParsedHdu is the random-access description of one HDU (spec.md §3.3).
type ParsedHdu struct {
	Kind             HduKind
	ExtensionToken   string // meaningful only when Kind == OtherExtension
	Name             string // EXTNAME, empty for the primary HDU
	HeaderByteOffset int64
	NHeaderRecords   int
	Bitpix           Bitpix
	Pcount           int64
	Gcount           int64
	Naxis            []int64
}

// GroupSize computes pcount + the product of the relevant NAXIS values per
// spec.md §3.3: all of Naxis for a normal HDU, or Naxis[1:] (Naxis[0] having
// already been stripped) for a random-groups primary HDU. An empty Naxis
// contributes 0 rather than 1, so an HDU with NAXIS = 0 and no PCOUNT has
// no data region.
func (h ParsedHdu) GroupSize() (int64, error) {
	const op = "rfits.ParsedHdu.GroupSize"
	product := int64(0)
	if len(h.Naxis) > 0 {
		product = 1
		for _, n := range h.Naxis {
			product *= n
		}
	}
	size := h.Pcount + product
	if size < 0 {
		return 0, rfioerr.Newf(rfioerr.KindMalformed, op, h.Name, "negative group size %d", size)
	}
	return size, nil
}

// DataByteLen computes the unpadded data-region byte length per spec.md
// §3.3: bitpix.Size() * gcount * group_size.
func (h ParsedHdu) DataByteLen() (int64, error) {
	groupSize, err := h.GroupSize()
	if err != nil {
		return 0, err
	}
	return int64(h.Bitpix.Size()) * h.Gcount * groupSize, nil
}

// PaddedDataByteLen rounds DataByteLen up to the next 2880-byte block.
func (h ParsedHdu) PaddedDataByteLen() (int64, error) {
	n, err := h.DataByteLen()
	if err != nil {
		return 0, err
	}
	return roundUpBlock(n), nil
}

func roundUpBlock(n int64) int64 {
	if rem := n % BlockSize; rem != 0 {
		return n + (BlockSize - rem)
	}
	return n
}
